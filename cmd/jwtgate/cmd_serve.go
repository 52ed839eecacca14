package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/jwtgate"
	"github.com/MrEthical07/jwtgate/jwt"
)

type serveFlags struct {
	listen   string
	upstream string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admission proxy",
		Long: `Run a reverse proxy that admits requests with a valid bearer token and
forwards them upstream with their claims in a header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = flags.listen
			}
			if cmd.Flags().Changed("upstream") {
				cfg.Upstream = flags.upstream
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, zap.L())
		},
	}

	cmd.Flags().StringVar(&flags.listen, "listen", ":8080", "Address to listen on (JWTGATE_LISTEN)")
	cmd.Flags().StringVar(&flags.upstream, "upstream", "", "Upstream base URL (JWTGATE_UPSTREAM)")
	return cmd
}

// buildGate assembles the gate from cfg. The returned cleanup closes the
// gate and any Redis client it opened.
func buildGate(ctx context.Context, cfg config, logger *zap.Logger) (*jwtgate.Gate, func(), error) {
	if err := cfg.validateKey(); err != nil {
		return nil, nil, err
	}

	decoder := cfg.newDecoder(ctx)
	if jwks, ok := decoder.(*jwt.JWKSDecoder); ok {
		if err := jwks.Preload(cfg.key()); err != nil {
			return nil, nil, fmt.Errorf("load jwks: %w", err)
		}
	}

	b := jwtgate.New(cfg.key()).
		WithDecoder(decoder).
		WithCredentialsRequired(!cfg.CredentialsOptional).
		WithWhitelist(cfg.Whitelist...).
		WithAlgorithms(cfg.Algorithms...).
		WithLatencyHistograms(true).
		WithLogger(logger)

	closers := []func(){}
	if cfg.RedisAddr != "" {
		client, err := cfg.newRedis()
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		b.WithRevocationChecker(cfg.newRevocationList(client))
		closers = append(closers, func() { _ = client.Close() })
	}
	if cfg.AuditLog {
		b.WithAuditSink(zapAuditSink{logger: logger.Named("audit")})
	}

	gate, err := b.Build()
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, nil, err
	}

	cleanup := func() {
		gate.Close()
		for _, c := range closers {
			c()
		}
	}
	return gate, cleanup, nil
}

func runServe(ctx context.Context, cfg config, logger *zap.Logger) error {
	if cfg.Upstream == "" {
		return errNoUpstream
	}
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return fmt.Errorf("invalid upstream %q", cfg.Upstream)
	}

	gate, cleanup, err := buildGate(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, w := range gate.SecurityReport().Warnings {
		logger.Warn("insecure configuration", zap.String("warning", w))
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           newRouter(gate, newProxy(upstream, gate, cfg.ClaimsHeader, logger), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("jwtgate started",
			zap.String("listen", cfg.Listen),
			zap.String("upstream", upstream.Redacted()),
			zap.Bool("revocation", cfg.RedisAddr != ""),
			zap.Bool("jwks", cfg.JWKSURL != ""),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
