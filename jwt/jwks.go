package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoJWKSURL is returned when the key passed to JWKSDecoder.Decode holds no
// URL.
var ErrNoJWKSURL = errors.New("no jwks url configured")

// JWKSDecoder verifies tokens against remote JSON Web Key Sets. The key
// passed to Decode is a comma-separated list of JWKS URLs; one
// auto-refreshing key set is created per distinct key value and kept for
// the lifetime of the decoder's context.
type JWKSDecoder struct {
	ctx    context.Context
	config Config

	mu   sync.Mutex
	sets map[string]keyfunc.Keyfunc
}

// NewJWKSDecoder returns a JWKSDecoder whose background refreshes stop when
// ctx is cancelled.
func NewJWKSDecoder(ctx context.Context, cfg Config) *JWKSDecoder {
	return &JWKSDecoder{
		ctx:    ctx,
		config: cfg,
		sets:   make(map[string]keyfunc.Keyfunc),
	}
}

// Decode verifies token against the key sets at the URLs in key. When
// algorithms is empty any asymmetric alg published by the key set is
// accepted; HMAC is always refused.
func (d *JWKSDecoder) Decode(ctx context.Context, token []byte, key string, algorithms []string) (map[string]any, error) {
	if len(token) == 0 {
		return nil, ErrEmptyToken
	}
	kf, err := d.keyfunc(key)
	if err != nil {
		return nil, err
	}
	return parse(string(token), d.config, algorithms, func(t *jwt.Token) (any, error) {
		if family, err := familyOf(t.Method.Alg()); err != nil {
			return nil, err
		} else if family == familyHMAC {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlg, t.Method.Alg())
		}
		return kf.Keyfunc(t)
	})
}

// Preload fetches the key sets for key ahead of the first request.
func (d *JWKSDecoder) Preload(key string) error {
	_, err := d.keyfunc(key)
	return err
}

func (d *JWKSDecoder) keyfunc(key string) (keyfunc.Keyfunc, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if kf, ok := d.sets[key]; ok {
		return kf, nil
	}

	urls := splitURLs(key)
	if len(urls) == 0 {
		return nil, ErrNoJWKSURL
	}
	kf, err := keyfunc.NewDefaultCtx(d.ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	d.sets[key] = kf
	return kf, nil
}

func splitURLs(key string) []string {
	var urls []string
	for _, u := range strings.Split(key, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
