package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/together/internal/together"
	"github.com/nfrund/together/internal/topicmgr"
)

func newTopicsCmd() *cobra.Command {
	topicsCmd := &cobra.Command{
		Use:   "topics",
		Short: "Inspect topic families",
		Long: `Inspect the topic families the server accepts.

A family describes a set of concrete keys, e.g. the chat family accepts
chat/42. Only public families may be named by websocket clients.`,
	}
	topicsCmd.AddCommand(newTopicsListCmd())
	topicsCmd.AddCommand(newTopicsValidateCmd())
	return topicsCmd
}

// catalog builds a fresh manager holding the server's families.
func catalog() (*topicmgr.Manager, error) {
	m := topicmgr.NewManager()
	if err := together.RegisterTopics(m); err != nil {
		return nil, fmt.Errorf("register topics: %w", err)
	}
	return m, nil
}

func parseScope(s string) (topicmgr.TopicScope, error) {
	switch topicmgr.TopicScope(s) {
	case topicmgr.ScopePublic, topicmgr.ScopeInternal:
		return topicmgr.TopicScope(s), nil
	default:
		return "", fmt.Errorf("invalid scope %q, valid scopes: public, internal", s)
	}
}
