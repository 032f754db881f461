package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/together/cmd/together-cli/internal/display"
)

func newTopicsValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate <key>",
		Short: "Check that a concrete topic key is accepted",
		Long: `Check a concrete key such as chat/42 against the registered families
and print the family it belongs to. Exits non-zero when no family accepts it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := catalog()
			if err != nil {
				return err
			}

			t, err := m.Match(args[0])
			if err != nil {
				return err
			}

			if format != "json" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid key\n\n", args[0])
			}
			return display.TopicDetails(cmd.OutOrStdout(), t, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}
