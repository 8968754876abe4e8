package main

import (
	"github.com/spf13/cobra"

	"github.com/aristath/roundtable/internal/validate"
)

// validateCmd is the child-process entry of the safety validator.
var validateCmd = &cobra.Command{
	Use:    "validate",
	Short:  "Run the safety gates on a proposal read from standard input",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validate.Serve(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}
