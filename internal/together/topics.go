package together

import (
	"github.com/nfrund/together/internal/topicmgr"
)

var (
	// ChatFamily covers chat/<id> keys. Membership is tracked.
	ChatFamily = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "together.chat",
		Namespace:   string(NamespaceChat),
		Description: "Chat, join, kick and departure events of one watch-together session",
		Pattern:     "chat/{sessionId}",
		Example:     "chat/42",
		Tracked:     true,
		Metadata: map[string]interface{}{
			"events": []string{string(KindMessage), string(KindJoin), string(KindKick), string(KindDeparture)},
		},
	})

	// ControlFamily covers control/<id> keys used by the presenter.
	ControlFamily = topicmgr.Define(topicmgr.TopicConfig{
		Name:        "together.control",
		Namespace:   string(NamespaceControl),
		Description: "Presenter video control of one watch-together session",
		Pattern:     "control/{sessionId}",
		Example:     "control/42",
		Metadata: map[string]interface{}{
			"events": []string{string(KindMove)},
		},
	})
)

// RegisterTopics adds the together families to m.
func RegisterTopics(m *topicmgr.Manager) error {
	for _, t := range []topicmgr.Topic{ChatFamily, ControlFamily} {
		if _, exists := m.Get(t.Name()); exists {
			continue
		}
		if err := m.Register(t); err != nil {
			return err
		}
	}
	return nil
}
