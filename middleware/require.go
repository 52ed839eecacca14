package middleware

import (
	"net/http"

	"github.com/MrEthical07/jwtgate"
)

// RequireIdentity returns middleware that rejects requests for which gate
// published no claims. It must run after Guard.
func RequireIdentity(gate *jwtgate.Gate, opts ...Option) func(http.Handler) http.Handler {
	o := options{onReject: WriteRejection}
	for _, opt := range opts {
		opt(&o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ClaimsFromRequest(gate, r); !ok {
				o.onReject(w, r, &jwtgate.Rejection{
					Class:  jwtgate.Unauthorized,
					Reason: "Missing authorization token",
					Kind:   jwtgate.ErrMissingToken,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
