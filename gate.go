package jwtgate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Decision is the non-rejecting outcome of an admission.
type Decision int

const (
	// DecisionAuthenticated means a token was decoded, passed the revocation
	// check, and its claims were published.
	DecisionAuthenticated Decision = iota + 1
	// DecisionAnonymous means credentials are optional and none were usable;
	// nothing was published.
	DecisionAnonymous
	// DecisionWhitelisted means the path is exempt; no authentication work
	// was done.
	DecisionWhitelisted
)

func (d Decision) String() string {
	switch d {
	case DecisionAuthenticated:
		return "authenticated"
	case DecisionAnonymous:
		return "anonymous"
	case DecisionWhitelisted:
		return "whitelisted"
	default:
		return "none"
	}
}

// Gate runs the admission pipeline. A Gate is immutable after Build and safe
// for concurrent use by any number of requests.
type Gate struct {
	config    Config
	whitelist Whitelist
	logger    *zap.Logger
	metrics   *Metrics
	audit     *auditDispatcher
}

// Admit decides whether r may proceed. The checks run in a fixed order:
// whitelist, token location, scheme, decode, revocation, publish.
//
// On success it returns the Decision; for DecisionAuthenticated the claims
// (and the raw token, when configured) have been written into rc. Refusals
// are returned as *Rejection. Hook failures wrap ErrTokenGetter or
// ErrRevocationCheck. If r's context is cancelled while a hook or the
// Decoder runs, the context error is returned and rc is left untouched.
//
// rc may be nil, in which case nothing is published.
func (g *Gate) Admit(r *http.Request, rc *RequestContext) (Decision, error) {
	start := time.Now()
	decision, claims, err := g.admit(r, rc)
	g.metrics.Observe(MetricAdmitLatency, time.Since(start))
	g.record(r, decision, claims, err)
	return decision, err
}

func (g *Gate) admit(r *http.Request, rc *RequestContext) (Decision, Claims, error) {
	ctx := r.Context()

	if g.whitelist.Match(r.URL.Path) {
		return DecisionWhitelisted, nil, nil
	}

	loc, err := g.locateToken(r)
	if err != nil {
		return 0, nil, err
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if loc.bypass {
		return DecisionAnonymous, nil, nil
	}

	if !loc.found {
		if g.config.CredentialsRequired {
			return 0, nil, reject(Unauthorized, ErrMissingToken, "Missing authorization token", nil)
		}
		return DecisionAnonymous, nil, nil
	}

	claims, err := g.config.Decoder.Decode(ctx, loc.token, g.config.SecretOrPublicKey, g.config.Algorithms)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, nil, ctxErr
	}
	if err != nil {
		derr := &DecodingError{Message: err.Error(), Err: err}
		rej := reject(Forbidden, ErrDecoding, "Invalid authorization token, "+derr.Message, derr)
		g.logger.Error("invalid authorization token",
			zap.String("path", r.URL.Path),
			zap.String("reason", rej.Reason),
			zap.Error(err),
		)
		return 0, nil, rej
	}

	if checker := g.config.RevocationChecker; checker != nil {
		revoked, err := checker.IsRevoked(ctx, r, claims)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %w", ErrRevocationCheck, err)
		}
		if revoked {
			g.logger.Warn("revoked token presented",
				zap.String("path", r.URL.Path),
				zap.String("sub", stringClaim(claims, "sub")),
			)
			return 0, claims, reject(Forbidden, ErrTokenRevoked, "Token is revoked", nil)
		}
	}

	if rc != nil {
		rc.Set(g.config.IdentityProperty, claims)
		if g.config.StoreTokenProperty != "" {
			tok := make([]byte, len(loc.token))
			copy(tok, loc.token)
			rc.Set(g.config.StoreTokenProperty, tok)
		}
	}

	return DecisionAuthenticated, claims, nil
}

func (g *Gate) record(r *http.Request, decision Decision, claims Claims, err error) {
	if err == nil {
		switch decision {
		case DecisionAuthenticated:
			g.metrics.Inc(MetricAdmitted)
			if g.config.Audit.EmitGranted {
				g.emitAudit(r, claims, AuditEvent{Outcome: AuditGranted})
			}
		case DecisionAnonymous:
			g.metrics.Inc(MetricAnonymous)
		case DecisionWhitelisted:
			g.metrics.Inc(MetricWhitelisted)
		}
		return
	}

	if Cancelled(r, err) {
		g.metrics.Inc(MetricCancelled)
		g.logger.Debug("admission cancelled", zap.String("path", r.URL.Path), zap.Error(err))
		return
	}

	if rej, ok := AsRejection(err); ok {
		g.metrics.Inc(rejectionMetric(rej))
		event := AuditEvent{
			Outcome: AuditRejected,
			Class:   rej.Class.String(),
			Reason:  rej.Reason,
		}
		if rej.Cause != nil {
			event.Error = rej.Cause.Error()
		}
		g.emitAudit(r, claims, event)
		return
	}

	g.metrics.Inc(MetricHookFailure)
	g.logger.Error("admission hook failed", zap.String("path", r.URL.Path), zap.Error(err))
	g.emitAudit(r, claims, AuditEvent{Outcome: AuditHookError, Error: err.Error()})
}

func rejectionMetric(rej *Rejection) MetricID {
	switch {
	case errors.Is(rej.Kind, ErrMissingToken):
		return MetricMissingToken
	case errors.Is(rej.Kind, ErrMalformedHeader):
		return MetricMalformedHeader
	case errors.Is(rej.Kind, ErrInvalidScheme):
		return MetricInvalidScheme
	case errors.Is(rej.Kind, ErrTokenRevoked):
		return MetricRevoked
	default:
		return MetricDecodeFailure
	}
}

func (g *Gate) emitAudit(r *http.Request, claims Claims, event AuditEvent) {
	if g.audit == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Time = time.Now().UTC()
	event.Method = r.Method
	event.Path = r.URL.Path
	event.RemoteIP = remoteIP(r)
	event.Subject = stringClaim(claims, "sub")
	event.TokenID = stringClaim(claims, "jti")
	g.audit.publish(r.Context(), event)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Cancelled reports whether err is Admit giving up because r's own context
// ended. Context errors raised inside a Decoder or hook while the request is
// still live are not cancellations; they surface as a rejection or a hook
// failure.
func Cancelled(r *http.Request, err error) bool {
	if err == nil || r == nil {
		return false
	}
	ctxErr := r.Context().Err()
	if ctxErr == nil {
		return false
	}
	if _, ok := AsRejection(err); ok {
		return false
	}
	return errors.Is(err, ctxErr)
}

func stringClaim(claims Claims, name string) string {
	v, _ := claims[name].(string)
	return v
}

// Claims returns the claims published for the request carrying ctx.
func (g *Gate) Claims(ctx context.Context) (Claims, bool) {
	rc, ok := RequestContextFrom(ctx)
	if !ok {
		return nil, false
	}
	return rc.Claims(g.config.IdentityProperty)
}

// Token returns the raw token published for the request carrying ctx. It is
// only present when StoreTokenProperty is configured.
func (g *Gate) Token(ctx context.Context) ([]byte, bool) {
	if g.config.StoreTokenProperty == "" {
		return nil, false
	}
	rc, ok := RequestContextFrom(ctx)
	if !ok {
		return nil, false
	}
	return rc.Token(g.config.StoreTokenProperty)
}

// IdentityProperty returns the name claims are published under.
func (g *Gate) IdentityProperty() string {
	return g.config.IdentityProperty
}

// StoreTokenProperty returns the name the raw token is published under, or
// "" when disabled.
func (g *Gate) StoreTokenProperty() string {
	return g.config.StoreTokenProperty
}

// Logger returns the gate's logger.
func (g *Gate) Logger() *zap.Logger {
	return g.logger
}

// MetricsSnapshot returns a copy of the admission counters.
func (g *Gate) MetricsSnapshot() MetricsSnapshot {
	return g.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped because the
// dispatcher buffer was full.
func (g *Gate) AuditDropped() uint64 {
	return g.audit.Dropped()
}

// Close flushes pending audit events. The Gate keeps admitting requests
// after Close but no longer audits them.
func (g *Gate) Close() {
	g.audit.shutdown()
}
