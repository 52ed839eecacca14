package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/jwtgate"
	"github.com/MrEthical07/jwtgate/jwt"
	"github.com/MrEthical07/jwtgate/revocation"
)

const envPrefix = "JWTGATE_"

var (
	errNoKey      = errors.New("one of JWTGATE_SECRET, JWTGATE_SECRET_FILE or JWTGATE_JWKS_URL is required")
	errNoUpstream = errors.New("JWTGATE_UPSTREAM is required")
	errNoRedis    = errors.New("JWTGATE_REDIS_ADDR is required")
)

// config is read from JWTGATE_* environment variables. Command flags
// override individual fields.
type config struct {
	Listen   string `env:"LISTEN" envDefault:":8080"`
	Upstream string `env:"UPSTREAM"`

	Secret string `env:"SECRET"`
	// SecretFile holds the contents of the file JWTGATE_SECRET_FILE points
	// at, typically a PEM public key.
	SecretFile string `env:"SECRET_FILE,file"`
	JWKSURL    string `env:"JWKS_URL"`

	Algorithms          []string      `env:"ALGORITHMS" envSeparator:","`
	Whitelist           []string      `env:"WHITELIST" envSeparator:" "`
	CredentialsOptional bool          `env:"CREDENTIALS_OPTIONAL"`
	Issuer              string        `env:"ISSUER"`
	Audience            string        `env:"AUDIENCE"`
	Leeway              time.Duration `env:"LEEWAY" envDefault:"0s"`
	RequireExpiration   bool          `env:"REQUIRE_EXP" envDefault:"true"`
	ClaimsHeader        string        `env:"CLAIMS_HEADER" envDefault:"X-Jwtgate-Claims"`

	RedisAddr        string `env:"REDIS_ADDR"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
	RevocationPrefix string `env:"REVOCATION_PREFIX" envDefault:"jwtgate:revoked"`

	AuditLog        bool          `env:"AUDIT_LOG"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// loadConfig parses the environment. A nil environ reads the process
// environment.
func loadConfig(environ map[string]string) (config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      envPrefix,
		Environment: environ,
	}); err != nil {
		return config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// key returns what the gate hands its decoder: JWKS URLs when configured,
// otherwise the secret file contents or the inline secret.
func (c config) key() string {
	switch {
	case c.JWKSURL != "":
		return c.JWKSURL
	case strings.TrimSpace(c.SecretFile) != "":
		return c.SecretFile
	default:
		return c.Secret
	}
}

func (c config) validateKey() error {
	if strings.TrimSpace(c.key()) == "" {
		return errNoKey
	}
	return nil
}

func (c config) decoderConfig() jwt.Config {
	return jwt.Config{
		Leeway:            c.Leeway,
		Issuer:            c.Issuer,
		Audience:          c.Audience,
		RequireExpiration: c.RequireExpiration,
	}
}

// newDecoder returns the decoder serve and decode share.
func (c config) newDecoder(ctx context.Context) jwtgate.Decoder {
	if c.JWKSURL != "" {
		return jwt.NewJWKSDecoder(ctx, c.decoderConfig())
	}
	return jwt.NewDecoder(c.decoderConfig())
}

func (c config) newRedis() (redis.UniversalClient, error) {
	if c.RedisAddr == "" {
		return nil, errNoRedis
	}
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    strings.Split(c.RedisAddr, ","),
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}), nil
}

func (c config) newRevocationList(client redis.UniversalClient) *revocation.RedisList {
	return revocation.NewRedisList(client, c.RevocationPrefix)
}
