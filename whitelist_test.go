package jwtgate

import (
	"errors"
	"testing"
)

func TestWhitelistMatchIsUnanchored(t *testing.T) {
	wl, err := CompileWhitelist([]string{"/public*", "^/health$"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cases := map[string]bool{
		"/public/info":     true,
		"/api/public/data": true,
		"/publi":           true,
		"/health":          true,
		"/healthz":         false,
		"/api/private":     false,
	}
	for path, want := range cases {
		if got := wl.Match(path); got != want {
			t.Fatalf("Match(%q) = %v, want %v", path, got, want)
		}
	}
	if wl.Len() != 2 {
		t.Fatalf("expected 2 patterns, got %d", wl.Len())
	}
}

func TestWhitelistEmptyMatchesNothing(t *testing.T) {
	var wl Whitelist
	if wl.Match("/") || wl.Match("") {
		t.Fatal("empty whitelist must not match")
	}
}

func TestCompileWhitelistRejectsBadPattern(t *testing.T) {
	if _, err := CompileWhitelist([]string{"[a-"}); !errors.Is(err, ErrInvalidWhitelist) {
		t.Fatalf("expected ErrInvalidWhitelist, got %v", err)
	}
}

func TestIsWhitelisted(t *testing.T) {
	patterns := []string{"(", "/static/"}
	if !IsWhitelisted("/static/app.js", patterns) {
		t.Fatal("expected valid pattern to match past an invalid one")
	}
	if IsWhitelisted("/api", patterns) {
		t.Fatal("expected no match")
	}
	if IsWhitelisted("/api", nil) {
		t.Fatal("nil patterns must not match")
	}
}
