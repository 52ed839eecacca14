package jwtgate

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"
)

// locateResult is the outcome of token discovery. bypass means the request
// carried a non-Bearer scheme while credentials are optional and must
// continue without identity.
type locateResult struct {
	token  []byte
	found  bool
	bypass bool
}

func (g *Gate) locateToken(r *http.Request) (locateResult, error) {
	if g.config.TokenGetter != nil {
		raw, err := g.config.TokenGetter.GetToken(r)
		if err != nil {
			if ctxErr := r.Context().Err(); ctxErr != nil {
				return locateResult{}, ctxErr
			}
			return locateResult{}, fmt.Errorf("%w: %w", ErrTokenGetter, err)
		}
		if raw == "" {
			return locateResult{}, nil
		}
		return locateResult{token: []byte(raw), found: true}, nil
	}

	values := r.Header.Values(authorizationHeader)
	if len(values) == 0 {
		return locateResult{}, nil
	}

	scheme, token, ok := splitAuthorization(values[0])
	if !ok {
		return locateResult{}, reject(Forbidden, ErrMalformedHeader, "Invalid authorization header", nil)
	}

	if !strings.HasPrefix(scheme, bearerScheme) {
		if g.config.CredentialsRequired {
			return locateResult{}, reject(Forbidden, ErrInvalidScheme, "Invalid token scheme", nil)
		}
		return locateResult{bypass: true}, nil
	}

	return locateResult{token: []byte(token), found: token != ""}, nil
}

// splitAuthorization trims the header value and splits it on single spaces.
// Anything other than exactly two parts is malformed, so "Bearer  tok" with
// a doubled space is rejected.
func splitAuthorization(value string) (scheme, token string, ok bool) {
	parts := strings.Split(strings.TrimSpace(value), " ")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
