package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roundtable",
	Short: "Multi-provider LLM round table and swarm",
	Long: `Roundtable seats three LLM providers at a debate (visionary, critic,
tactician) that turns an objective into a plan of independent tasks. Once the
plan is approved, a swarm runs every task in parallel: code tasks go through a
plan, code and review pipeline routed by complexity; command tasks launch in
detached tmux sessions. Generated files are then audited and improved behind
safety gates.

Configuration is read from ~/.roundtable/config.json and
.roundtable/config.json, the latter taking precedence.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(debateCmd)
	rootCmd.AddCommand(improveCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(validateCmd)
}
