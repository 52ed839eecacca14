package jwtgate

import (
	"context"
	"net/http"
	"reflect"
)

// Claims is the decoded token payload. The gate never inspects it.
type Claims = map[string]any

// Decoder turns a raw token into verified claims. Any returned error is
// treated as a decoding failure and rejects the request as Forbidden.
//
// key is Config.SecretOrPublicKey; algorithms is Config.Algorithms and may
// be nil.
type Decoder interface {
	Decode(ctx context.Context, token []byte, key string, algorithms []string) (Claims, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, token []byte, key string, algorithms []string) (Claims, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, token []byte, key string, algorithms []string) (Claims, error) {
	return f(ctx, token, key, algorithms)
}

// TokenGetter overrides Authorization header extraction. When configured it
// is the only token source. An empty result means no token: the request is
// refused with 401 when credentials are required and continues anonymously
// otherwise. The Decoder never sees an empty token.
type TokenGetter interface {
	GetToken(r *http.Request) (string, error)
}

// TokenGetterFunc adapts a function to the TokenGetter interface.
type TokenGetterFunc func(r *http.Request) (string, error)

// GetToken calls f.
func (f TokenGetterFunc) GetToken(r *http.Request) (string, error) {
	return f(r)
}

// RevocationChecker reports whether successfully decoded claims belong to a
// token that has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, r *http.Request, claims Claims) (bool, error)
}

// RevocationCheckerFunc adapts a function to the RevocationChecker interface.
type RevocationCheckerFunc func(ctx context.Context, r *http.Request, claims Claims) (bool, error)

// IsRevoked calls f.
func (f RevocationCheckerFunc) IsRevoked(ctx context.Context, r *http.Request, claims Claims) (bool, error) {
	return f(ctx, r, claims)
}

func isNilCapability(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
