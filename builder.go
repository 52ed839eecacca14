package jwtgate

import (
	"go.uber.org/zap"

	"github.com/MrEthical07/jwtgate/jwt"
)

// Builder assembles a Gate. Builder instances are single-use: Build may be
// called once.
type Builder struct {
	config Config
	logger *zap.Logger

	decoderSet bool
	auditSink  AuditSink

	built bool
}

// New starts a Builder from DefaultConfig with the given secret or public
// key.
func New(secretOrPublicKey string) *Builder {
	cfg := DefaultConfig()
	cfg.SecretOrPublicKey = secretOrPublicKey
	return &Builder{config: cfg}
}

// WithConfig replaces the whole configuration. A nil Decoder in cfg falls
// back to the default jwt decoder, and an empty IdentityProperty falls back
// to DefaultIdentityProperty.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	b.decoderSet = false
	return b
}

// WithDecoder sets the Decoder. Passing nil makes Build fail with
// ErrInvalidProvider.
func (b *Builder) WithDecoder(d Decoder) *Builder {
	b.config.Decoder = d
	b.decoderSet = true
	return b
}

// WithIdentityProperty sets the request-context key that receives the claims.
func (b *Builder) WithIdentityProperty(name string) *Builder {
	b.config.IdentityProperty = name
	return b
}

// WithCredentialsRequired controls whether a request without a Bearer token
// is refused or continues anonymously.
func (b *Builder) WithCredentialsRequired(required bool) *Builder {
	b.config.CredentialsRequired = required
	return b
}

// WithWhitelist sets path patterns that bypass authentication entirely.
func (b *Builder) WithWhitelist(patterns ...string) *Builder {
	b.config.Whitelist = cloneStrings(patterns)
	return b
}

// WithTokenGetter replaces Authorization header extraction with g.
func (b *Builder) WithTokenGetter(g TokenGetter) *Builder {
	b.config.TokenGetter = g
	return b
}

// WithRevocationChecker consults c after every successful decode.
func (b *Builder) WithRevocationChecker(c RevocationChecker) *Builder {
	b.config.RevocationChecker = c
	return b
}

// WithStoreToken publishes the raw token bytes under name after a
// successful admission. An empty name disables it.
func (b *Builder) WithStoreToken(name string) *Builder {
	b.config.StoreTokenProperty = name
	return b
}

// WithAlgorithms restricts accepted signing algorithms. Empty means any.
func (b *Builder) WithAlgorithms(algs ...string) *Builder {
	b.config.Algorithms = cloneStrings(algs)
	return b
}

// WithLogger sets the logger used for security-relevant events. Defaults to
// zap.NewNop.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink enables audit dispatch to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process admission counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms records Admit latency buckets when metrics are on.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a Gate safe for concurrent
// use. It fails with an ErrConfig-wrapped error before any request is
// processed.
func (b *Builder) Build() (*Gate, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if cfg.Decoder == nil && !b.decoderSet {
		cfg.Decoder = jwt.NewDecoder(jwt.Config{})
	}
	if cfg.IdentityProperty == "" {
		cfg.IdentityProperty = DefaultIdentityProperty
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	whitelist, err := CompileWhitelist(cfg.Whitelist)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gate{
		config:    cfg,
		whitelist: whitelist,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
	}
	if isNilCapability(cfg.TokenGetter) {
		g.config.TokenGetter = nil
	}
	if isNilCapability(cfg.RevocationChecker) {
		g.config.RevocationChecker = nil
	}
	g.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true
	return g, nil
}
