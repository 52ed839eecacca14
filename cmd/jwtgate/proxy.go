package main

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/jwtgate"
	"github.com/MrEthical07/jwtgate/metrics/export/prometheus"
	"github.com/MrEthical07/jwtgate/middleware"
)

const requestIDHeader = "X-Request-Id"

// requestID keeps an incoming X-Request-Id or assigns a new one, and echoes
// it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// encodeClaims renders claims as unpadded base64url JSON for a header value.
func encodeClaims(claims jwtgate.Claims) (string, error) {
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func newProxy(upstream *url.URL, gate *jwtgate.Gate, claimsHeader string, logger *zap.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			// Never forward a client-supplied claims header.
			pr.Out.Header.Del(claimsHeader)

			claims, ok := gate.Claims(pr.In.Context())
			if !ok {
				return
			}
			value, err := encodeClaims(claims)
			if err != nil {
				logger.Warn("claims not forwarded", zap.Error(err))
				return
			}
			pr.Out.Header.Set(claimsHeader, value)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("upstream request failed",
				zap.String("path", r.URL.Path),
				zap.String("request_id", r.Header.Get(requestIDHeader)),
				zap.Error(err),
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

// newRouter serves /healthz and /metrics without authentication and proxies
// everything else through the gate.
func newRouter(gate *jwtgate.Gate, proxy http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", prometheus.NewPrometheusExporter(gate).Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(gate, middleware.WithLogger(logger)))
		r.Handle("/*", proxy)
	})
	return r
}
