package jwtgate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/MrEthical07/jwtgate/jwt"
)

// DefaultIdentityProperty is the RequestContext name decoded claims are
// published under unless Config.IdentityProperty says otherwise.
const DefaultIdentityProperty = "payload"

// Config is the construction-time configuration of a Gate.
//
// Config instances are validated once by Builder.Build and then treated as
// immutable; every request reuses the same copy.
type Config struct {
	// SecretOrPublicKey is handed to the Decoder for every token. It is an
	// HMAC secret, a PEM public key, or whatever the configured Decoder
	// expects (JWKS URLs for jwt.JWKSDecoder).
	SecretOrPublicKey string
	Decoder           Decoder
	// IdentityProperty names the RequestContext entry holding the claims.
	IdentityProperty string
	// CredentialsRequired rejects requests without a usable token. When
	// false those requests continue with no identity published.
	CredentialsRequired bool
	// Whitelist holds unanchored regular expressions matched against the
	// request path.
	Whitelist         []string
	TokenGetter       TokenGetter
	RevocationChecker RevocationChecker
	// StoreTokenProperty, when non-empty, also publishes the raw token bytes
	// under this name.
	StoreTokenProperty string
	// Algorithms restricts accepted signing algorithms. Nil lets the
	// Decoder decide.
	Algorithms []string
	Metrics    MetricsConfig
	Audit      AuditConfig
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process admission counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls asynchronous audit event dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// EmitGranted also audits successful admissions. Rejections and hook
	// errors are always audited when Enabled is set.
	EmitGranted bool
}

// DefaultConfig returns a Config with credentials required, claims published
// under "payload", and the HS/RS/ES/EdDSA jwt decoder. SecretOrPublicKey is
// left empty and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		Decoder:             jwt.NewDecoder(jwt.Config{}),
		IdentityProperty:    DefaultIdentityProperty,
		CredentialsRequired: true,
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Whitelist = cloneStrings(cfg.Whitelist)
	out.Algorithms = cloneStrings(cfg.Algorithms)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Validate checks the construction-time invariants of c. Every returned error
// wraps ErrConfig.
//
// Validate does not mutate c and has no side effects.
func (c *Config) Validate() error {
	if isNilCapability(c.Decoder) {
		return ErrInvalidProvider
	}
	if strings.TrimSpace(c.SecretOrPublicKey) == "" {
		return ErrMissingSecret
	}
	if !validPropertyName(c.IdentityProperty) {
		return fmt.Errorf("%w: identity property %q", ErrInvalidPropertyType, c.IdentityProperty)
	}
	if c.StoreTokenProperty != "" {
		if !validPropertyName(c.StoreTokenProperty) {
			return fmt.Errorf("%w: token property %q", ErrInvalidPropertyType, c.StoreTokenProperty)
		}
		if c.StoreTokenProperty == c.IdentityProperty {
			return fmt.Errorf("%w: token property collides with identity property %q", ErrInvalidPropertyType, c.IdentityProperty)
		}
	}
	if _, err := CompileWhitelist(c.Whitelist); err != nil {
		return err
	}
	for _, alg := range c.Algorithms {
		if strings.TrimSpace(alg) == "" {
			return fmt.Errorf("%w: empty algorithm entry", ErrConfig)
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return fmt.Errorf("%w: audit buffer size must be >= 0", ErrConfig)
	}
	return nil
}

func validPropertyName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
