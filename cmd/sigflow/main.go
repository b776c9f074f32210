package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/glinharesb/sigflow/internal/audit"
	"github.com/glinharesb/sigflow/internal/config"
	"github.com/glinharesb/sigflow/internal/workflow"
)

func main() {
	// Cobra prints the error; only the exit status is left to set.
	if newRootCmd().Execute() != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:          "sigflow",
		Short:        "Sign files and verify signatures with asymmetric keys.",
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr(), cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.KeyAlgorithm, "key-algorithm", cfg.KeyAlgorithm, "key pair algorithm (RSA, EC, Ed25519)")
	flags.IntVar(&cfg.KeyLength, "key-length", cfg.KeyLength, "key length in bits")
	flags.StringVar(&cfg.SignatureAlgorithm, "signature-algorithm", cfg.SignatureAlgorithm, "signature algorithm, e.g. SHA256withRSA")
	flags.StringVar(&cfg.Provider, "provider", cfg.Provider, "provider for the signature algorithm (default provider when empty)")
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory relative file paths are resolved against")
	flags.StringVar(&cfg.MessageFile, "message", cfg.MessageFile, "message file")
	flags.StringVar(&cfg.SignatureFile, "signature", cfg.SignatureFile, "signature file")
	flags.StringVar(&cfg.PublicKeyFile, "public-key", cfg.PublicKeyFile, "public key file")
	flags.StringVar(&cfg.PrivateKeyFile, "private-key", cfg.PrivateKeyFile, "private key file")
	flags.StringVar(&cfg.OnReadError, "on-read-error", cfg.OnReadError, "message read failure policy (degrade, propagate)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(&cfg),
		newVerifyCmd(&cfg),
		newServeCmd(&cfg),
		newAlgorithmsCmd(),
	)
	return root
}

func setupLogging(w io.Writer, cfg config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func workflowOptions(cfg config.Config, logger *audit.Logger) []workflow.Option {
	opts := []workflow.Option{workflow.WithAudit(logger)}
	if cfg.KeyPassphrase != "" {
		opts = append(opts, workflow.WithPassphrase([]byte(cfg.KeyPassphrase)))
	}
	return opts
}
