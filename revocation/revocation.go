package revocation

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmptyID is returned when revoking an empty jti or subject.
	ErrEmptyID = errors.New("revocation: empty identifier")
	// ErrInvalidTTL is returned for a non-positive TTL.
	ErrInvalidTTL = errors.New("revocation: ttl must be positive")
)

const (
	claimJTI = "jti"
	claimSub = "sub"
	claimIAT = "iat"
)

func validate(id string, ttl time.Duration) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}

func stringClaim(claims map[string]any, name string) string {
	s, _ := claims[name].(string)
	return s
}

// issuedAt reads iat as unix seconds. Decoded JSON numbers arrive as
// float64; json.Number and integers are accepted as well.
func issuedAt(claims map[string]any) (int64, bool) {
	switch v := claims[claimIAT].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case interface{ Int64() (int64, error) }:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// revokedBySubject reports whether a token issued at iat falls before the
// subject cut-off. Tokens without iat are treated as issued before any
// cut-off.
func revokedBySubject(claims map[string]any, cutoff int64) bool {
	iat, ok := issuedAt(claims)
	if !ok {
		return true
	}
	return iat < cutoff
}
