package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glinharesb/sigflow/internal/audit"
	"github.com/glinharesb/sigflow/internal/config"
	"github.com/glinharesb/sigflow/internal/crypto"
	"github.com/glinharesb/sigflow/internal/storage"
	"github.com/glinharesb/sigflow/internal/workflow"
)

func newRunCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate keys, sign the message file, save the keys and verify the result.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(cmd.OutOrStdout(), *cfg)
			return err
		},
	}
}

// run performs the full lifecycle against the configured files and reports
// each step on out. A failed verification is reported, not returned.
func run(out io.Writer, cfg config.Config) (bool, error) {
	policy, err := cfg.ReadPolicy()
	if err != nil {
		return false, err
	}
	files := cfg.Files()

	logger := audit.NewLogger(cfg.AuditBuffer, nil)
	defer logger.Close()

	wf, err := workflow.New(cfg.Params(), workflowOptions(cfg, logger)...)
	if err != nil {
		return false, err
	}

	if _, err := wf.SignFile(files, policy); err != nil {
		return false, err
	}
	msg, err := storage.ReadAll(files.Message, policy)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(out, "message:\n%v\n", msg)

	if err := wf.SaveKeys(files); err != nil {
		return false, err
	}
	fmt.Fprintf(out, "private key saved to %s\n", files.PrivateKey)
	fmt.Fprintf(out, "public key saved to %s\n", files.PublicKey)

	pub, err := wf.LoadPublicKey(files.PublicKey)
	if err != nil {
		return false, err
	}
	fp, err := crypto.Fingerprint(pub)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(out, "public key:\n%s %s\n", wf.KeyPair().Algorithm(), fp)
	fmt.Fprintf(out, "signature:\n%v\n\n", wf.Signature())

	wf.SetPublicKey(pub)
	ok, err := wf.VerifyFiles(files, policy)
	if err != nil {
		return false, err
	}
	if ok {
		fmt.Fprintln(out, "signature verified")
	} else {
		fmt.Fprintln(out, "signature verification failed")
	}
	return ok, nil
}
