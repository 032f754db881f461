package together

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nfrund/together/internal/domain"
)

// EventKind discriminates the events broadcast to a topic.
type EventKind string

const (
	KindMessage   EventKind = "message"
	KindJoin      EventKind = "join"
	KindDeparture EventKind = "departure"
	KindKick      EventKind = "kick"
	KindMove      EventKind = "move"
)

// TimeLayout is the wall-clock format carried in the "now" field, e.g.
// "21시 04분 05초".
const TimeLayout = "15시 04분 05초"

// Event is a single broadcast. Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind
	Topic   Topic
	Name    string
	Message string
	Count   int
	Member  domain.MemberID
	At      time.Time
	Payload json.RawMessage
}

// wireEvent is the JSON shape clients receive for chat events.
type wireEvent struct {
	Kind    EventKind       `json:"kind"`
	Name    string          `json:"name,omitempty"`
	Message string          `json:"message,omitempty"`
	IsJoin  bool            `json:"isJoin"`
	Kicked  bool            `json:"kicked"`
	Users   int             `json:"users"`
	Now     string          `json:"now,omitempty"`
	UserIdx domain.MemberID `json:"userIdx,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode renders the event payload. Departures have an empty payload; the
// kind travels in transport metadata instead.
func (e Event) Encode() ([]byte, error) {
	w := wireEvent{Kind: e.Kind}
	switch e.Kind {
	case KindDeparture:
		return []byte{}, nil
	case KindMessage:
		w.Name, w.Message, w.Users, w.UserIdx = e.Name, e.Message, e.Count, e.Member
	case KindJoin:
		w.Name, w.Users, w.IsJoin = e.Name, e.Count, true
	case KindKick:
		// The kicked member's id travels in transport metadata only.
		w.Name, w.Users, w.Kicked = e.Name, e.Count, true
	case KindMove:
		w.UserIdx, w.Payload = e.Member, e.Payload
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if !e.At.IsZero() {
		w.Now = e.At.Format(TimeLayout)
	}
	return json.Marshal(w)
}

// DecodedEvent is the client-side view of an encoded event.
type DecodedEvent struct {
	Kind    EventKind       `json:"kind"`
	Name    string          `json:"name"`
	Message string          `json:"message"`
	IsJoin  bool            `json:"isJoin"`
	Kicked  bool            `json:"kicked"`
	Users   int             `json:"users"`
	Now     string          `json:"now"`
	UserIdx domain.MemberID `json:"userIdx"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEvent parses an encoded chat event.
func DecodeEvent(data []byte) (DecodedEvent, error) {
	var d DecodedEvent
	if err := json.Unmarshal(data, &d); err != nil {
		return DecodedEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return d, nil
}
