package revocation

import (
	"context"
	"net/http"
	"sync"
	"time"
)

type memoryEntry struct {
	cutoff    int64
	expiresAt time.Time
}

// MemoryList is an in-process revocation list with the same semantics as
// RedisList. Expired entries are dropped lazily on lookup.
type MemoryList struct {
	mu   sync.RWMutex
	jtis map[string]time.Time
	subs map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryList returns an empty MemoryList.
func NewMemoryList() *MemoryList {
	return &MemoryList{
		jtis: make(map[string]time.Time),
		subs: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// Revoke blocks the token with the given jti for ttl.
func (l *MemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if err := validate(jti, ttl); err != nil {
		return err
	}
	l.mu.Lock()
	l.jtis[jti] = l.now().Add(ttl)
	l.mu.Unlock()
	return nil
}

// RevokeSubject blocks tokens for sub issued before before, for ttl.
func (l *MemoryList) RevokeSubject(_ context.Context, sub string, before time.Time, ttl time.Duration) error {
	if err := validate(sub, ttl); err != nil {
		return err
	}
	l.mu.Lock()
	l.subs[sub] = memoryEntry{cutoff: before.Unix(), expiresAt: l.now().Add(ttl)}
	l.mu.Unlock()
	return nil
}

// Unrevoke lifts a jti revocation. Unknown ids are not an error.
func (l *MemoryList) Unrevoke(_ context.Context, jti string) error {
	l.mu.Lock()
	delete(l.jtis, jti)
	l.mu.Unlock()
	return nil
}

// UnrevokeSubject lifts a subject cutoff.
func (l *MemoryList) UnrevokeSubject(_ context.Context, sub string) error {
	l.mu.Lock()
	delete(l.subs, sub)
	l.mu.Unlock()
	return nil
}

// IsRevoked never fails; the error is there to satisfy the checker
// contract.
func (l *MemoryList) IsRevoked(_ context.Context, _ *http.Request, claims map[string]any) (bool, error) {
	jti := stringClaim(claims, claimJTI)
	sub := stringClaim(claims, claimSub)
	now := l.now()

	l.mu.RLock()
	jtiExp, jtiOK := l.jtis[jti]
	subEntry, subOK := l.subs[sub]
	l.mu.RUnlock()

	if jti != "" && jtiOK {
		if now.Before(jtiExp) {
			return true, nil
		}
		l.mu.Lock()
		if exp, ok := l.jtis[jti]; ok && !now.Before(exp) {
			delete(l.jtis, jti)
		}
		l.mu.Unlock()
	}

	if sub != "" && subOK {
		if now.Before(subEntry.expiresAt) {
			return revokedBySubject(claims, subEntry.cutoff), nil
		}
		l.mu.Lock()
		if e, ok := l.subs[sub]; ok && !now.Before(e.expiresAt) {
			delete(l.subs, sub)
		}
		l.mu.Unlock()
	}

	return false, nil
}

// Len returns the number of stored entries, expired or not.
func (l *MemoryList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.jtis) + len(l.subs)
}
