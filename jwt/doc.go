// Package jwt provides the token decoders used by jwtgate: Decoder verifies
// HMAC, RSA, ECDSA and Ed25519 signed tokens against a configured secret or
// PEM public key, and JWKSDecoder verifies against remote JSON Web Key Sets.
//
// This package does not issue tokens.
package jwt
