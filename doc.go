// Package jwtgate admits HTTP requests by verifying a JWT bearer token and
// publishing its claims into a per-request context before the handler runs.
//
// A [Gate] is assembled once through [Builder.Build] and is then safe to use
// from any number of goroutines. For every request, [Gate.Admit] runs the
// same pipeline:
//
//  1. whitelist: a path matching any whitelist pattern skips everything;
//  2. token location: a custom [TokenGetter], or the Authorization header;
//  3. scheme: the header must split into a Bearer scheme and a token;
//  4. decode: the [Decoder] verifies the token with the configured secret or
//     public key and algorithms;
//  5. revocation: an optional [RevocationChecker] sees the decoded claims;
//  6. publish: claims, and optionally the raw token, land in the
//     [RequestContext].
//
// Refusals are returned as [*Rejection], classified as Unauthorized (no
// usable credentials) or Forbidden (credentials refused). Construction
// errors all wrap [ErrConfig].
//
// # Architecture boundaries
//
// The default decoder lives in the jwt sub-package; revocation lists live in
// revocation; net/http wiring lives in middleware. This package imports jwt
// only for its default and never imports the others.
//
// # What this package must NOT do
//
//   - Issue, refresh or rotate tokens.
//   - Make authorization decisions on claim contents.
//   - Perform I/O of its own; all I/O happens in the configured hooks.
package jwtgate
