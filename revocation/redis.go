package revocation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "jwtgate:revoked"

// RedisList is a revocation list stored in Redis. Keys are
// "<prefix>:jti:<jti>" and "<prefix>:sub:<sub>"; subject keys hold the
// cut-off as unix seconds.
type RedisList struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisList returns a RedisList using prefix, or DefaultPrefix when
// prefix is empty.
func NewRedisList(client redis.UniversalClient, prefix string) *RedisList {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisList{
		redis:  client,
		prefix: prefix,
	}
}

func (l *RedisList) jtiKey(jti string) string {
	return l.prefix + ":jti:" + jti
}

func (l *RedisList) subKey(sub string) string {
	return l.prefix + ":sub:" + sub
}

// Revoke revokes the token with the given jti for ttl.
func (l *RedisList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := validate(jti, ttl); err != nil {
		return err
	}
	if err := l.redis.Set(ctx, l.jtiKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke jti: %w", err)
	}
	return nil
}

// RevokeSubject revokes every token for sub issued before the cut-off. A
// later cut-off replaces an earlier one.
func (l *RedisList) RevokeSubject(ctx context.Context, sub string, before time.Time, ttl time.Duration) error {
	if err := validate(sub, ttl); err != nil {
		return err
	}
	if err := l.redis.Set(ctx, l.subKey(sub), before.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke subject: %w", err)
	}
	return nil
}

// Unrevoke removes the token entry for jti. Removing a missing entry is not
// an error.
func (l *RedisList) Unrevoke(ctx context.Context, jti string) error {
	if err := l.redis.Del(ctx, l.jtiKey(jti)).Err(); err != nil {
		return fmt.Errorf("unrevoke jti: %w", err)
	}
	return nil
}

// UnrevokeSubject removes the subject entry for sub.
func (l *RedisList) UnrevokeSubject(ctx context.Context, sub string) error {
	if err := l.redis.Del(ctx, l.subKey(sub)).Err(); err != nil {
		return fmt.Errorf("unrevoke subject: %w", err)
	}
	return nil
}

// IsRevoked checks the token and subject entries for claims in a single
// pipelined round trip. Claims carrying neither jti nor sub are never
// revoked.
func (l *RedisList) IsRevoked(ctx context.Context, _ *http.Request, claims map[string]any) (bool, error) {
	jti := stringClaim(claims, claimJTI)
	sub := stringClaim(claims, claimSub)
	if jti == "" && sub == "" {
		return false, nil
	}

	var (
		jtiCmd *redis.IntCmd
		subCmd *redis.StringCmd
	)
	_, err := l.redis.Pipelined(ctx, func(p redis.Pipeliner) error {
		if jti != "" {
			jtiCmd = p.Exists(ctx, l.jtiKey(jti))
		}
		if sub != "" {
			subCmd = p.Get(ctx, l.subKey(sub))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}

	if jtiCmd != nil && jtiCmd.Val() > 0 {
		return true, nil
	}
	if subCmd != nil {
		raw, err := subCmd.Result()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("revocation lookup: %w", err)
		}
		cutoff, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return false, fmt.Errorf("corrupt subject revocation entry: %w", err)
		}
		return revokedBySubject(claims, cutoff), nil
	}
	return false, nil
}
