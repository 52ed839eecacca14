package jwtgate

import "context"

type requestContextKey struct{}

// RequestContext is the per-request bag the gate publishes identity into.
// It is owned by a single request and is not safe for concurrent use.
type RequestContext struct {
	values map[string]any
}

// NewRequestContext returns an empty RequestContext.
func NewRequestContext() *RequestContext {
	return &RequestContext{values: make(map[string]any, 2)}
}

// Get returns the value stored under name.
func (rc *RequestContext) Get(name string) (any, bool) {
	if rc == nil {
		return nil, false
	}
	v, ok := rc.values[name]
	return v, ok
}

// Set stores v under name.
func (rc *RequestContext) Set(name string, v any) {
	if rc.values == nil {
		rc.values = make(map[string]any, 2)
	}
	rc.values[name] = v
}

// Claims returns the claims stored under name.
func (rc *RequestContext) Claims(name string) (Claims, bool) {
	v, ok := rc.Get(name)
	if !ok {
		return nil, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

// Token returns the raw token bytes stored under name.
func (rc *RequestContext) Token(name string) ([]byte, bool) {
	v, ok := rc.Get(name)
	if !ok {
		return nil, false
	}
	tok, ok := v.([]byte)
	return tok, ok
}

// Len returns the number of stored entries.
func (rc *RequestContext) Len() int {
	if rc == nil {
		return 0
	}
	return len(rc.values)
}

// WithRequestContext attaches rc to ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the RequestContext attached to ctx.
func RequestContextFrom(ctx context.Context) (*RequestContext, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok && rc != nil
}
