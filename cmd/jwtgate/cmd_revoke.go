package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type revokeFlags struct {
	jti       string
	subject   string
	ttl       time.Duration
	before    string
	undo      bool
	redisAddr string
}

func newRevokeCmd() *cobra.Command {
	var flags revokeFlags

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a token or every token of a subject",
		Example: `  jwtgate revoke --jti 5f1c... --ttl 1h
  jwtgate revoke --subject user-42
  jwtgate revoke --jti 5f1c... --undo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("redis-addr") {
				cfg.RedisAddr = flags.redisAddr
			}
			return runRevoke(cmd, cfg, flags, time.Now())
		},
	}

	cmd.Flags().StringVar(&flags.jti, "jti", "", "Token ID (jti claim) to revoke")
	cmd.Flags().StringVar(&flags.subject, "subject", "", "Subject (sub claim) whose tokens to revoke")
	cmd.Flags().DurationVar(&flags.ttl, "ttl", 24*time.Hour, "How long the entry is kept; use the maximum token lifetime")
	cmd.Flags().StringVar(&flags.before, "before", "", "RFC 3339 cut-off for --subject (default now)")
	cmd.Flags().BoolVar(&flags.undo, "undo", false, "Remove the entry instead of adding it")
	cmd.Flags().StringVar(&flags.redisAddr, "redis-addr", "", "Redis address (JWTGATE_REDIS_ADDR)")
	cmd.MarkFlagsMutuallyExclusive("jti", "subject")
	cmd.MarkFlagsOneRequired("jti", "subject")
	return cmd
}

func runRevoke(cmd *cobra.Command, cfg config, flags revokeFlags, now time.Time) error {
	client, err := cfg.newRedis()
	if err != nil {
		return err
	}
	defer client.Close()

	list := cfg.newRevocationList(client)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case flags.jti != "" && flags.undo:
		if err := list.Unrevoke(ctx, flags.jti); err != nil {
			return err
		}
		fmt.Fprintf(out, "unrevoked jti %s\n", flags.jti)
	case flags.jti != "":
		if err := list.Revoke(ctx, flags.jti, flags.ttl); err != nil {
			return err
		}
		fmt.Fprintf(out, "revoked jti %s for %s\n", flags.jti, flags.ttl)
	case flags.subject != "" && flags.undo:
		if err := list.UnrevokeSubject(ctx, flags.subject); err != nil {
			return err
		}
		fmt.Fprintf(out, "unrevoked subject %s\n", flags.subject)
	case flags.subject != "":
		before := now
		if flags.before != "" {
			before, err = time.Parse(time.RFC3339, flags.before)
			if err != nil {
				return fmt.Errorf("invalid --before: %w", err)
			}
		}
		if err := list.RevokeSubject(ctx, flags.subject, before, flags.ttl); err != nil {
			return err
		}
		fmt.Fprintf(out, "revoked tokens of subject %s issued before %s\n", flags.subject, before.UTC().Format(time.RFC3339))
	default:
		return errors.New("one of --jti or --subject is required")
	}
	return nil
}
