package jwtgate

import (
	"strings"
	"testing"
)

func TestSecurityReport(t *testing.T) {
	g := newTestGate(t, New("k3y-x").
		WithWhitelist("/public", "^/health$").
		WithCredentialsRequired(false).
		WithStoreToken("tok"))

	r := g.SecurityReport()
	if r.CredentialsRequired || !r.TokenStored || r.RevocationEnabled || r.WhitelistPatterns != 2 {
		t.Fatalf("unexpected report %+v", r)
	}
	if !strings.Contains(r.Decoder, "jwt.Decoder") {
		t.Fatalf("unexpected decoder %q", r.Decoder)
	}

	want := []string{"no algorithm restriction", "hmac secret shorter", `"/public" is not anchored`, "credentials optional"}
	joined := strings.Join(r.Warnings, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Fatalf("expected warning containing %q, got %v", w, r.Warnings)
		}
	}
	if strings.Contains(joined, "k3y-x") {
		t.Fatal("report must not include the secret")
	}
}

func TestSecurityReportQuietForStrictConfig(t *testing.T) {
	g := newTestGate(t, New(strings.Repeat("k", 48)).WithAlgorithms("HS256").WithWhitelist("^/public/"))
	if r := g.SecurityReport(); len(r.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", r.Warnings)
	}
}

func TestSecurityReportNilGate(t *testing.T) {
	var g *Gate
	if r := g.SecurityReport(); r.Decoder != "" || r.Warnings != nil {
		t.Fatalf("expected zero report, got %+v", r)
	}
}
