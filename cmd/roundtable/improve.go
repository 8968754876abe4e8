package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/roundtable/internal/config"
	"github.com/aristath/roundtable/internal/console"
)

var improveDir string

var improveCmd = &cobra.Command{
	Use:   "improve",
	Short: "Run one self-improvement cycle over the output directory",
	Long: `Audit every generated file in the output directory and rewrite the ones
scoring below the threshold. A rewrite is applied only after it passes the
safety gates in a separate validator process; the previous version is kept as
<file>.bak.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDefault()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if improveDir != "" {
			cfg.OutputDir = improveDir
		}

		a, err := newApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		printer := console.NewPrinter(a.bus, cmd.OutOrStdout())
		defer printer.Stop()

		report, err := a.improver.RunCycle(cmd.Context())
		if err != nil {
			return err
		}
		printer.Stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Cycle %s: %d scanned, %d improved, %d skipped, %d failed in %v\n",
			report.SessionID, report.FilesScanned, report.Improved, report.Skipped, report.Failed, report.Duration)
		for _, r := range report.Results {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-8s %s: %s\n", r.Outcome, r.Filename, r.Reason)
		}
		return nil
	},
}

func init() {
	improveCmd.Flags().StringVar(&improveDir, "dir", "", "Directory to improve (defaults to the configured output directory)")
}
