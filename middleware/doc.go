// Package middleware adapts a jwtgate.Gate to net/http.
//
// [Guard] runs Gate.Admit for every request, attaches the per-request
// jwtgate.RequestContext to the request context, and renders refusals.
// Rejections become 401 or 403 responses with a small JSON body; hook
// failures become 500; a cancelled request gets no response at all.
//
// [RequireIdentity] is for routes that need an identity behind a gate
// configured with optional credentials.
//
// This package does not parse or verify tokens itself. Every decision is
// made by the Gate.
package middleware
