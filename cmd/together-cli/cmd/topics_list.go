package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nfrund/together/cmd/together-cli/internal/display"
	"github.com/nfrund/together/internal/topicmgr"
)

func newTopicsListCmd() *cobra.Command {
	var (
		format  string
		scope   string
		tracked bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered topic families",
		Long: `List every topic family the server registers at startup.

Examples:
  together-cli topics list                   # Table format
  together-cli topics list --format json     # JSON format
  together-cli topics list --scope public    # Client-facing families only
  together-cli topics list --tracked         # Families with counted membership`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format %q, valid formats: table, json", format)
			}

			m, err := catalog()
			if err != nil {
				return err
			}

			topics := m.List()
			if scope != "" {
				s, err := parseScope(scope)
				if err != nil {
					return err
				}
				topics = lo.Filter(topics, func(t topicmgr.Topic, _ int) bool { return t.Scope() == s })
			}
			if tracked {
				topics = lo.Filter(topics, func(t topicmgr.Topic, _ int) bool { return t.Tracked() })
			}

			if format == "json" {
				return display.TopicsJSON(cmd.OutOrStdout(), topics)
			}
			return display.TopicsTable(cmd.OutOrStdout(), topics)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().StringVarP(&scope, "scope", "s", "", "Filter by scope (public, internal)")
	cmd.Flags().BoolVar(&tracked, "tracked", false, "Only families whose membership is counted")
	return cmd
}
