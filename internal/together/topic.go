package together

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nfrund/together/internal/domain"
)

// Namespace is the first segment of a topic key.
type Namespace string

const (
	// NamespaceChat carries chat traffic and is the only namespace whose
	// membership the registry tracks.
	NamespaceChat Namespace = "chat"
	// NamespaceControl carries presenter control events such as "move video".
	NamespaceControl Namespace = "control"
)

// Topic is a key of the form <namespace>/<togetherSessionId>.
type Topic string

// ChatTopic returns the chat topic of a together session.
func ChatTopic(sessionID int64) Topic {
	return Topic(fmt.Sprintf("%s/%d", NamespaceChat, sessionID))
}

// ControlTopic returns the presenter control topic of a together session.
func ControlTopic(sessionID int64) Topic {
	return Topic(fmt.Sprintf("%s/%d", NamespaceControl, sessionID))
}

// ParseTopic validates a raw topic key.
func ParseTopic(raw string) (Topic, error) {
	ns, id, ok := strings.Cut(raw, "/")
	if !ok {
		return "", fmt.Errorf("%w: %q has no namespace separator", domain.ErrInvalidTopic, raw)
	}
	switch Namespace(ns) {
	case NamespaceChat, NamespaceControl:
	default:
		return "", fmt.Errorf("%w: unknown namespace %q", domain.ErrInvalidTopic, ns)
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 || strconv.FormatInt(n, 10) != id {
		return "", fmt.Errorf("%w: session id %q must be a positive integer", domain.ErrInvalidTopic, id)
	}
	return Topic(raw), nil
}

// Namespace returns the namespace segment.
func (t Topic) Namespace() Namespace {
	ns, _, _ := strings.Cut(string(t), "/")
	return Namespace(ns)
}

// SessionID returns the together session id, or 0 if the key is malformed.
func (t Topic) SessionID() int64 {
	_, id, _ := strings.Cut(string(t), "/")
	n, _ := strconv.ParseInt(id, 10, 64)
	return n
}

// Tracked reports whether the registry keeps membership for this topic.
func (t Topic) Tracked() bool {
	return t.Namespace() == NamespaceChat
}

func (t Topic) String() string { return string(t) }
