package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/jwtgate"
	"go.uber.org/zap"
)

// RejectionHandler renders a request the gate refused.
type RejectionHandler func(w http.ResponseWriter, r *http.Request, rej *jwtgate.Rejection)

// ErrorHandler renders a failure that is not a rejection, such as a
// TokenGetter or RevocationChecker error.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type options struct {
	onReject RejectionHandler
	onError  ErrorHandler
	logger   *zap.Logger
}

// Option configures Guard.
type Option func(*options)

// WithRejectionHandler replaces WriteRejection.
func WithRejectionHandler(h RejectionHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onReject = h
		}
	}
}

// WithErrorHandler replaces the default 500 response for hook failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

// WithLogger sets the logger used for hook failures. Defaults to the gate's
// logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteRejection writes rej as a JSON error with its status code. 401
// responses carry a Bearer challenge.
func WriteRejection(w http.ResponseWriter, _ *http.Request, rej *jwtgate.Rejection) {
	if rej.Class == jwtgate.Unauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="jwtgate"`)
	}
	writeJSON(w, rej.StatusCode(), errorBody{Code: rej.Class.String(), Message: rej.Reason})
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ error) {
	writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Guard returns middleware that admits requests through gate. Admitted
// requests reach next with a jwtgate.RequestContext attached to their
// context; an existing one is reused.
func Guard(gate *jwtgate.Gate, opts ...Option) func(http.Handler) http.Handler {
	o := options{
		onReject: WriteRejection,
		onError:  writeInternalError,
	}
	if gate != nil {
		o.logger = gate.Logger()
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			rc, ok := jwtgate.RequestContextFrom(r.Context())
			if !ok {
				rc = jwtgate.NewRequestContext()
				r = r.WithContext(jwtgate.WithRequestContext(r.Context(), rc))
			}

			if _, err := gate.Admit(r, rc); err != nil {
				if jwtgate.Cancelled(r, err) {
					return
				}
				if rej, ok := jwtgate.AsRejection(err); ok {
					o.onReject(w, r, rej)
					return
				}
				o.logger.Error("admission failed", zap.String("path", r.URL.Path), zap.Error(err))
				o.onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromRequest returns the claims gate published for r.
func ClaimsFromRequest(gate *jwtgate.Gate, r *http.Request) (jwtgate.Claims, bool) {
	if gate == nil {
		return nil, false
	}
	return gate.Claims(r.Context())
}

// TokenFromRequest returns the raw token gate published for r.
func TokenFromRequest(gate *jwtgate.Gate, r *http.Request) ([]byte, bool) {
	if gate == nil {
		return nil, false
	}
	return gate.Token(r.Context())
}
