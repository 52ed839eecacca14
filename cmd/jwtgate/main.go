// Command jwtgate runs a JWT admission proxy in front of an HTTP upstream
// and manages its revocation list.
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "jwtgate",
		Short: "JWT bearer token admission proxy",
		Long: `jwtgate verifies JWT bearer tokens in front of an HTTP upstream and
forwards admitted requests with their claims attached.

Configuration is read from JWTGATE_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			initLogger(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set the log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(),
		newRevokeCmd(),
		newDecodeCmd(),
	)
	return cmd
}

func initLogger(level string) {
	if strings.ToLower(level) == "debug" {
		zap.ReplaceGlobals(zap.Must(zap.NewDevelopment()))
		return
	}

	config := zap.NewProductionConfig()
	// remove the "caller" key from the log output
	config.EncoderConfig.CallerKey = zapcore.OmitKey
	if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	zap.ReplaceGlobals(zap.Must(config.Build()))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
