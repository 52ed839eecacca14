package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func newTestCmd(in string) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetContext(context.Background())
	return cmd, &out
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "revoke", "decode"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Fatalf("expected %s subcommand, got %v err=%v", name, c, err)
		}
	}
	if root.PersistentFlags().Lookup("log-level") == nil {
		t.Fatal("expected --log-level flag")
	}
}

func TestServeFlagDefaults(t *testing.T) {
	cmd := newServeCmd()
	if f := cmd.Flags().Lookup("listen"); f == nil || f.DefValue != ":8080" {
		t.Fatalf("unexpected listen flag %v", f)
	}
	if cmd.Flags().Lookup("upstream") == nil {
		t.Fatal("expected --upstream flag")
	}
}

func TestDecodePrintsClaims(t *testing.T) {
	cfg := config{Secret: "S", RequireExpiration: true}
	token := signToken(t, gjwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})

	cmd, out := newTestCmd("")
	if err := runDecode(cmd, cfg, []string{token}); err != nil {
		t.Fatalf("runDecode: %v", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(out.Bytes(), &claims); err != nil {
		t.Fatalf("unmarshal output: %v\n%s", err, out.String())
	}
	if claims["sub"] != "u1" {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestDecodeReadsStdin(t *testing.T) {
	cfg := config{Secret: "S"}
	token := signToken(t, gjwt.MapClaims{"sub": "u2"})

	cmd, out := newTestCmd("Bearer " + token + "\n")
	if err := runDecode(cmd, cfg, []string{"-"}); err != nil {
		t.Fatalf("runDecode: %v", err)
	}
	if !strings.Contains(out.String(), `"sub": "u2"`) {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestDecodeRejectsBadToken(t *testing.T) {
	cmd, _ := newTestCmd("")
	if err := runDecode(cmd, config{Secret: "other"}, []string{signToken(t, gjwt.MapClaims{"sub": "u1"})}); err == nil {
		t.Fatal("expected verification error")
	}
	if err := runDecode(cmd, config{}, []string{"x"}); err != errNoKey {
		t.Fatalf("expected errNoKey, got %v", err)
	}
}

func TestRevokeWritesRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	cfg := config{RedisAddr: mr.Addr(), RevocationPrefix: "jwtgate:revoked"}
	now := time.Unix(1_700_000_000, 0)

	cmd, out := newTestCmd("")
	if err := runRevoke(cmd, cfg, revokeFlags{jti: "t-1", ttl: time.Hour}, now); err != nil {
		t.Fatalf("revoke jti: %v", err)
	}
	if !mr.Exists("jwtgate:revoked:jti:t-1") {
		t.Fatalf("expected jti key, have %v", mr.Keys())
	}
	if ttl := mr.TTL("jwtgate:revoked:jti:t-1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	if err := runRevoke(cmd, cfg, revokeFlags{subject: "u1", ttl: time.Hour}, now); err != nil {
		t.Fatalf("revoke subject: %v", err)
	}
	if v, err := mr.Get("jwtgate:revoked:sub:u1"); err != nil || v != "1700000000" {
		t.Fatalf("expected cut-off stored, got %q err=%v", v, err)
	}

	if err := runRevoke(cmd, cfg, revokeFlags{jti: "t-1", undo: true}, now); err != nil {
		t.Fatalf("unrevoke: %v", err)
	}
	if mr.Exists("jwtgate:revoked:jti:t-1") {
		t.Fatal("expected jti key removed")
	}
	if !strings.Contains(out.String(), "unrevoked jti t-1") {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestRevokeValidatesInput(t *testing.T) {
	cmd, _ := newTestCmd("")
	if err := runRevoke(cmd, config{}, revokeFlags{jti: "t-1", ttl: time.Hour}, time.Now()); err != errNoRedis {
		t.Fatalf("expected errNoRedis, got %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	cfg := config{RedisAddr: mr.Addr()}
	if err := runRevoke(cmd, cfg, revokeFlags{subject: "u1", ttl: time.Hour, before: "yesterday"}, time.Now()); err == nil {
		t.Fatal("expected invalid --before error")
	}
}

func TestRevokedTokenRejectedByProxy(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()

	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()
	cmd, _ := newTestCmd("")
	if err := runRevoke(cmd, cfg, revokeFlags{jti: "bad", ttl: time.Hour}, time.Now()); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	h, _ := newTestProxy(t, cfg)
	token := signToken(t, gjwt.MapClaims{"sub": "u1", "jti": "bad", "exp": time.Now().Add(time.Hour).Unix()})
	rec := serveAuthorized(h, token)
	if rec.Code != 403 {
		t.Fatalf("expected 403 for revoked token, got %d", rec.Code)
	}
}
