package jwt

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config tunes claim validation for Decoder and JWKSDecoder. The zero value
// verifies signature, exp and nbf when present, with no leeway.
type Config struct {
	Leeway            time.Duration
	Issuer            string
	Audience          string
	RequireExpiration bool
	RequireIAT        bool
	// MaxFutureIAT rejects tokens whose iat is further than this in the
	// future. Zero disables the check.
	MaxFutureIAT time.Duration
}

var (
	ErrEmptyToken           = errors.New("token is empty")
	ErrUnsupportedAlg       = errors.New("unsupported signing algorithm")
	ErrHMACWithPublicKey    = errors.New("hmac algorithm used with public key material")
	ErrInvalidKey           = errors.New("invalid verification key")
	ErrIATTooFarInTheFuture = errors.New("token iat too far in the future")
)

type keyFamily uint8

const (
	familyHMAC keyFamily = iota + 1
	familyRSA
	familyECDSA
	familyEdDSA
)

type cacheKey struct {
	family keyFamily
	key    string
}

// Decoder verifies compact JWS tokens with golang-jwt. The key passed to
// Decode is interpreted by the token's alg header:
//
//   - HS256/HS384/HS512: the key bytes are the HMAC secret
//   - RS*/PS*: PEM encoded RSA public key
//   - ES*: PEM encoded EC public key
//   - EdDSA: PEM encoded or raw 32-byte Ed25519 public key
//
// Parsed public keys are cached, so a Decoder is cheap to share between
// requests and safe for concurrent use.
type Decoder struct {
	config Config
	keys   sync.Map
}

// NewDecoder returns a Decoder using cfg.
func NewDecoder(cfg Config) *Decoder {
	return &Decoder{config: cfg}
}

// Decode verifies token with key and returns its claims. When algorithms is
// non-empty only those alg values are accepted; "none" is never accepted.
func (d *Decoder) Decode(ctx context.Context, token []byte, key string, algorithms []string) (map[string]any, error) {
	if len(token) == 0 {
		return nil, ErrEmptyToken
	}
	return parse(string(token), d.config, algorithms, func(t *jwt.Token) (any, error) {
		return d.verifyKey(t.Method.Alg(), key)
	})
}

func (d *Decoder) verifyKey(alg, key string) (any, error) {
	family, err := familyOf(alg)
	if err != nil {
		return nil, err
	}
	if family == familyHMAC {
		if looksLikePEM(key) {
			return nil, ErrHMACWithPublicKey
		}
		return []byte(key), nil
	}

	ck := cacheKey{family: family, key: key}
	if v, ok := d.keys.Load(ck); ok {
		return v, nil
	}

	parsed, err := parsePublicKey(family, key)
	if err != nil {
		return nil, err
	}
	v, _ := d.keys.LoadOrStore(ck, parsed)
	return v, nil
}

func familyOf(alg string) (keyFamily, error) {
	switch {
	case strings.HasPrefix(alg, "HS"):
		return familyHMAC, nil
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		return familyRSA, nil
	case strings.HasPrefix(alg, "ES"):
		return familyECDSA, nil
	case alg == jwt.SigningMethodEdDSA.Alg():
		return familyEdDSA, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedAlg, alg)
	}
}

func looksLikePEM(key string) bool {
	return strings.Contains(key, "-----BEGIN")
}

func parsePublicKey(family keyFamily, key string) (any, error) {
	switch family {
	case familyRSA:
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return pub, nil
	case familyECDSA:
		pub, err := jwt.ParseECPublicKeyFromPEM([]byte(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return pub, nil
	case familyEdDSA:
		return parseEdPublicKey([]byte(key))
	default:
		return nil, ErrUnsupportedAlg
	}
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ed25519 public key", ErrInvalidKey)
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: invalid ed25519 public key type", ErrInvalidKey)
	}
	return edKey, nil
}

// parse is shared by Decoder and JWKSDecoder.
func parse(tokenStr string, cfg Config, algorithms []string, keyFunc jwt.Keyfunc) (map[string]any, error) {
	var options []jwt.ParserOption
	if len(algorithms) > 0 {
		options = append(options, jwt.WithValidMethods(algorithms))
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.RequireExpiration {
		options = append(options, jwt.WithExpirationRequired())
	}
	if cfg.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, jwt.MapClaims{}, keyFunc)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if cfg.MaxFutureIAT > 0 {
		iat, err := claims.GetIssuedAt()
		if err != nil {
			return nil, err
		}
		if iat != nil && iat.Time.After(time.Now().Add(cfg.MaxFutureIAT)) {
			return nil, ErrIATTooFarInTheFuture
		}
	}

	return map[string]any(claims), nil
}
