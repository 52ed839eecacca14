package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [token]",
		Short: "Verify a token and print its claims",
		Long: `Verify a token with the configured key and algorithms and print its
claims as JSON. The token is read from stdin when omitted or "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			return runDecode(cmd, cfg, args)
		},
	}
}

func runDecode(cmd *cobra.Command, cfg config, args []string) error {
	if err := cfg.validateKey(); err != nil {
		return err
	}

	var token string
	if len(args) == 1 && args[0] != "-" {
		token = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token: %w", err)
		}
		token = line
	}
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")

	decoder := cfg.newDecoder(cmd.Context())
	claims, err := decoder.Decode(cmd.Context(), []byte(token), cfg.key(), cfg.Algorithms)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(claims)
}
