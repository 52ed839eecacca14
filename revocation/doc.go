// Package revocation provides revocation lists that plug into a jwtgate
// Gate as its RevocationChecker.
//
// Two kinds of entries are supported:
//
//   - token entries keyed by the "jti" claim, revoking one token;
//   - subject entries keyed by the "sub" claim, revoking every token for
//     that subject issued ("iat") before a cut-off time.
//
// Entries expire after a TTL, which callers normally set to the maximum
// lifetime of the tokens they revoke. RedisList shares state across gate
// replicas; MemoryList is for single-process deployments and tests.
package revocation
