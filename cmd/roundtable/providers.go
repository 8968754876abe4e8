package main

import (
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aristath/roundtable/internal/config"
	"github.com/aristath/roundtable/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and whether they are reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDefault()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		registry := provider.NewRegistry(cfg)
		configured := registry.ListConfigured()
		healthy := registry.ListHealthy(cmd.Context())

		out := cmd.OutOrStdout()
		if len(configured) == 0 {
			fmt.Fprintln(out, "No providers configured. Set an API key such as MISTRAL_API_KEY or run Ollama locally.")
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		for _, name := range configured {
			status := red("unreachable")
			if slices.Contains(healthy, name) {
				status = green("healthy")
			}
			fmt.Fprintf(out, "%-10s %-10s %s\n", name, cfg.Providers[name].Kind, status)
		}
		fmt.Fprintf(out, "\n%d of %d configured provider(s) available.\n", len(healthy), len(configured))
		return nil
	},
}
