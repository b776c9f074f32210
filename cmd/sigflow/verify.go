package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glinharesb/sigflow/internal/config"
	"github.com/glinharesb/sigflow/internal/workflow"
)

var errSignatureMismatch = errors.New("signature does not match")

func newVerifyCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature file against the message file with a stored public key.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := verify(*cfg)
			if err != nil {
				return err
			}
			if !ok {
				return errSignatureMismatch
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signature verified")
			return nil
		},
	}
}

// verify checks the configured files with the stored public key only. The
// workflow's own generated keys are discarded.
func verify(cfg config.Config) (bool, error) {
	policy, err := cfg.ReadPolicy()
	if err != nil {
		return false, err
	}
	files := cfg.Files()

	wf, err := workflow.New(cfg.Params(), workflowOptions(cfg, nil)...)
	if err != nil {
		return false, err
	}
	pub, err := wf.LoadPublicKey(files.PublicKey)
	if err != nil {
		return false, err
	}
	wf.SetPrivateKey(nil)
	wf.SetPublicKey(pub)

	return wf.VerifyFiles(files, policy)
}
