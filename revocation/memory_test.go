package revocation

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMemoryListRevokeAndExpire(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	list := NewMemoryList()
	list.now = func() time.Time { return now }
	ctx := context.Background()

	if err := list.Revoke(ctx, "t-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got, _ := list.IsRevoked(ctx, nil, map[string]any{"jti": "t-1"}); !got {
		t.Fatal("expected revoked")
	}

	now = now.Add(time.Minute)
	if got, _ := list.IsRevoked(ctx, nil, map[string]any{"jti": "t-1"}); got {
		t.Fatal("expected entry to expire")
	}
	if list.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped, have %d", list.Len())
	}
}

func TestMemoryListRevokeSubject(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	list := NewMemoryList()
	list.now = func() time.Time { return now }
	ctx := context.Background()

	if err := list.RevokeSubject(ctx, "u-1", now, time.Hour); err != nil {
		t.Fatalf("revoke subject: %v", err)
	}

	old := map[string]any{"sub": "u-1", "iat": json.Number("1699999000")}
	fresh := map[string]any{"sub": "u-1", "iat": int64(1_700_000_100)}
	if got, _ := list.IsRevoked(ctx, nil, old); !got {
		t.Fatal("expected token issued before cutoff to be revoked")
	}
	if got, _ := list.IsRevoked(ctx, nil, fresh); got {
		t.Fatal("expected token issued after cutoff to pass")
	}

	if err := list.UnrevokeSubject(ctx, "u-1"); err != nil {
		t.Fatalf("unrevoke subject: %v", err)
	}
	if got, _ := list.IsRevoked(ctx, nil, old); got {
		t.Fatal("expected subject entry removed")
	}
}

func TestMemoryListUnrevoke(t *testing.T) {
	list := NewMemoryList()
	ctx := context.Background()
	if err := list.Revoke(ctx, "t-1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := list.Unrevoke(ctx, "t-1"); err != nil {
		t.Fatalf("unrevoke: %v", err)
	}
	if got, _ := list.IsRevoked(ctx, nil, map[string]any{"jti": "t-1"}); got {
		t.Fatal("expected token to pass after unrevoke")
	}
}

func TestMemoryListNoIdentifiers(t *testing.T) {
	list := NewMemoryList()
	if err := list.Revoke(context.Background(), "t-1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got, err := list.IsRevoked(context.Background(), nil, map[string]any{"scope": "read"}); got || err != nil {
		t.Fatalf("expected claims without jti/sub to pass, got %v err=%v", got, err)
	}
}

func TestIssuedAt(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{float64(10), 10, true},
		{int64(11), 11, true},
		{12, 12, true},
		{json.Number("13"), 13, true},
		{"14", 14, true},
		{"x", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := issuedAt(map[string]any{"iat": tc.in})
		if got != tc.want || ok != tc.ok {
			t.Fatalf("issuedAt(%v) = %d,%v; want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
