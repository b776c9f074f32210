package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glinharesb/sigflow/internal/provider"
)

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the signature algorithms of the software provider.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range provider.SignatureAlgorithms() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
