// Package cli implements the dispatchd command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/orgraph/dispatch/internal/cli.version=1.2.3"
	version = "0.3.0"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dispatchd",
	Short: "dispatchd - organization-graph delta dispatcher",
	Long: "dispatchd consumes CDC changesets of RDF facts, resolves which\n" +
		"organization graph each changed fact belongs to, and migrates it there.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json (default ~/.dispatchd/config.json)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(doctorCmd)
}
