package display

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samber/lo"

	"github.com/nfrund/together/internal/topicmgr"
)

// TopicDisplay represents a topic family for display purposes
type TopicDisplay struct {
	Name        string                 `json:"name"`
	Namespace   string                 `json:"namespace"`
	Scope       string                 `json:"scope"`
	Tracked     bool                   `json:"tracked"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func toDisplay(t topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        t.Name(),
		Namespace:   t.Namespace(),
		Scope:       string(t.Scope()),
		Tracked:     t.Tracked(),
		Description: t.Description(),
		Pattern:     t.Pattern(),
		Example:     t.Example(),
		Metadata:    t.Metadata(),
	}
}

// TopicsTable writes topics as an aligned table.
func TopicsTable(w io.Writer, topics []topicmgr.Topic) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tSCOPE\tTRACKED\tDESCRIPTION\tEXAMPLE")
	fmt.Fprintln(tw, "----\t-----\t-------\t-----------\t-------")

	if len(topics) == 0 {
		fmt.Fprintln(tw, "No topics found")
	}
	for _, t := range topics {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n",
			t.Name(),
			t.Scope(),
			t.Tracked(),
			truncate(t.Description(), 40),
			truncate(t.Example(), 30))
	}
	return tw.Flush()
}

// TopicsJSON writes topics with a count as indented JSON.
func TopicsJSON(w io.Writer, topics []topicmgr.Topic) error {
	output := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{
		Topics: lo.Map(topics, func(t topicmgr.Topic, _ int) TopicDisplay { return toDisplay(t) }),
		Count:  len(topics),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// TopicDetails writes one family, either as JSON or as labelled lines.
func TopicDetails(w io.Writer, t topicmgr.Topic, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(toDisplay(t))
	}

	fmt.Fprintf(w, "Name:        %s\n", t.Name())
	fmt.Fprintf(w, "Namespace:   %s\n", t.Namespace())
	fmt.Fprintf(w, "Scope:       %s\n", t.Scope())
	fmt.Fprintf(w, "Tracked:     %t\n", t.Tracked())
	fmt.Fprintf(w, "Description: %s\n", t.Description())
	fmt.Fprintf(w, "Pattern:     %s\n", t.Pattern())
	fmt.Fprintf(w, "Example:     %s\n", t.Example())
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
