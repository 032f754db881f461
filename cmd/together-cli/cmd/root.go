package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "together-cli",
		Short: "Together CLI tool",
		Long: `Together CLI is a command-line companion for the watch-together server.

Available commands:
  topics     Inspect and validate the topic families clients may use
  token      Issue access tokens for local testing
  version    Print the CLI version

Use "together-cli [command] --help" for more information about a specific command.`,
		SilenceUsage: true,
	}

	root.AddCommand(newTopicsCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute executes the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
