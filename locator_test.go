package jwtgate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSplitAuthorization(t *testing.T) {
	cases := []struct {
		in     string
		scheme string
		token  string
		ok     bool
	}{
		{"Bearer abc", "Bearer", "abc", true},
		{"  Bearer abc  ", "Bearer", "abc", true},
		{"Bearer", "", "", false},
		{"Bearer  abc", "", "", false},
		{"Bearer a b", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		scheme, token, ok := splitAuthorization(tc.in)
		if scheme != tc.scheme || token != tc.token || ok != tc.ok {
			t.Fatalf("splitAuthorization(%q) = %q,%q,%v", tc.in, scheme, token, ok)
		}
	}
}

func TestLocateTokenFromHeader(t *testing.T) {
	g := newTestGate(t, New("S"))

	loc, err := g.locateToken(bearerRequest("/", "abc"))
	if err != nil || !loc.found || string(loc.token) != "abc" {
		t.Fatalf("unexpected result %+v err=%v", loc, err)
	}

	loc, err = g.locateToken(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil || loc.found || loc.bypass {
		t.Fatalf("expected no token, got %+v err=%v", loc, err)
	}
}

func TestLocateTokenSchemePrefix(t *testing.T) {
	g := newTestGate(t, New("S"))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "BearerX abc")

	loc, err := g.locateToken(r)
	if err != nil || !loc.found {
		t.Fatalf("expected Bearer-prefixed scheme to be accepted, got %+v err=%v", loc, err)
	}
}

func TestLocateTokenInvalidScheme(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Token abc")

	strict := newTestGate(t, New("S"))
	_, err := strict.locateToken(r)
	rej, ok := AsRejection(err)
	if !ok || rej.Class != Forbidden || !errors.Is(err, ErrInvalidScheme) {
		t.Fatalf("expected Forbidden ErrInvalidScheme, got %v", err)
	}

	optional := newTestGate(t, New("S").WithCredentialsRequired(false))
	loc, err := optional.locateToken(r)
	if err != nil || !loc.bypass {
		t.Fatalf("expected bypass, got %+v err=%v", loc, err)
	}
}

func TestLocateTokenMalformedIgnoresCredentialsRequired(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer")

	g := newTestGate(t, New("S").WithCredentialsRequired(false))
	_, err := g.locateToken(r)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestLocateTokenGetterTakesPrecedence(t *testing.T) {
	getter := TokenGetterFunc(func(r *http.Request) (string, error) {
		return r.URL.Query().Get("access_token"), nil
	})
	g := newTestGate(t, New("S").WithTokenGetter(getter))

	r := httptest.NewRequest(http.MethodGet, "/?access_token=q-tok", nil)
	r.Header.Set("Authorization", "Basic garbage with spaces")
	loc, err := g.locateToken(r)
	if err != nil || string(loc.token) != "q-tok" {
		t.Fatalf("expected getter token, got %+v err=%v", loc, err)
	}

	loc, err = g.locateToken(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil || loc.found {
		t.Fatalf("empty getter result must mean no token, got %+v err=%v", loc, err)
	}
}

func TestLocateTokenGetterError(t *testing.T) {
	boom := errors.New("boom")
	g := newTestGate(t, New("S").WithTokenGetter(TokenGetterFunc(func(*http.Request) (string, error) {
		return "", boom
	})))

	_, err := g.locateToken(httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, ErrTokenGetter) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped getter error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.locateToken(httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
