package together

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/nfrund/together/internal/domain"
)

// State is the lifecycle position of a connection.
type State int

const (
	StateUnauthenticated State = iota
	StateConnected
	StateSubscribed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is the per-connection state machine:
//
//	unauthenticated -> connected -> subscribed(topics...) -> closed
//
// Every method is safe to call from the connection's read loop and its
// teardown path at the same time.
type Session struct {
	id  string
	hub *Hub

	mu     sync.Mutex
	state  State
	member domain.MemberID
	topics map[Topic]struct{}

	logger *slog.Logger
}

func newSession(h *Hub) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		hub:    h,
		topics: make(map[Topic]struct{}),
		logger: h.logger.With("session_id", id),
	}
}

// ID is a unique identifier for the connection.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Member returns the resolved identity, if the session has one.
func (s *Session) Member() (domain.MemberID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.member, s.state == StateConnected || s.state == StateSubscribed
}

// Topics returns the subscribed topics, sorted.
func (s *Session) Topics() []Topic {
	s.mu.Lock()
	topics := lo.Filter(lo.Keys(s.topics), func(t Topic, _ int) bool { return !s.stale(t) })
	s.mu.Unlock()
	slices.Sort(topics)
	return topics
}

// Subscribed reports whether the session currently holds topic.
func (s *Session) Subscribed(topic Topic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSubscribed {
		return false
	}
	_, ok := s.topics[topic]
	return ok && !s.stale(topic)
}

// Connect authenticates the session.
func (s *Session) Connect(ctx context.Context, credentials string) error {
	if err := s.expect("connect", StateUnauthenticated); err != nil {
		return err
	}

	member, err := s.hub.resolver.Resolve(ctx, credentials)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return fmt.Errorf("connect: %w", domain.ErrSessionClosed)
	case StateUnauthenticated:
	default:
		return fmt.Errorf("connect: %w", domain.ErrAlreadyConnected)
	}
	s.state = StateConnected
	s.member = member
	s.logger = s.logger.With("member_id", member)
	s.logger.DebugContext(ctx, "session connected")
	return nil
}

// Subscribe joins topic. For a chat topic the member is registered and a
// join is broadcast. A repeated subscribe to the same topic does nothing,
// unless the member has since left the registry (kicked, or another
// connection of the member disconnected), in which case it joins again.
//
// If the member's display name cannot be resolved the join is dropped and
// an ErrIdentityResolution error is returned; the subscription stands.
func (s *Session) Subscribe(ctx context.Context, topic Topic) error {
	s.mu.Lock()
	if err := s.checkActive("subscribe"); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.topics[topic]; ok && !s.stale(topic) {
		s.mu.Unlock()
		return nil
	}
	member := s.member
	s.topics[topic] = struct{}{}
	s.state = StateSubscribed
	if topic.Tracked() {
		s.hub.registry.Register(topic, member)
	}
	logger := s.logger
	s.mu.Unlock()

	logger.InfoContext(ctx, "subscribed", "topic", topic)
	if !topic.Tracked() {
		return nil
	}

	m, err := s.hub.lookup(ctx, member)
	if err != nil {
		logger.WarnContext(ctx, "join broadcast dropped", "topic", topic, "error", err)
		return err
	}
	return s.hub.broadcast(ctx, Event{
		Kind:   KindJoin,
		Topic:  topic,
		Name:   m.Name,
		Count:  s.hub.registry.Count(topic),
		Member: member,
		At:     s.hub.timestamp(),
	})
}

// Unsubscribe leaves one topic. Other members of a chat topic receive a
// departure if the member was still registered there.
func (s *Session) Unsubscribe(ctx context.Context, topic Topic) error {
	s.mu.Lock()
	if err := s.checkActive("unsubscribe"); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := s.topics[topic]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("unsubscribe %s: %w", topic, domain.ErrNotSubscribed)
	}
	s.forget(topic)
	removed := topic.Tracked() && s.hub.registry.Unregister(topic, s.member)
	s.mu.Unlock()

	if !removed {
		return nil
	}
	return s.hub.broadcast(ctx, Event{Kind: KindDeparture, Topic: topic})
}

// Send broadcasts a chat message to topic. The session must be subscribed
// to it.
func (s *Session) Send(ctx context.Context, topic Topic, text string) error {
	s.mu.Lock()
	err := s.checkSubscribed("send", topic)
	member := s.member
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if !topic.Tracked() {
		return fmt.Errorf("send to %s: %w", topic, domain.ErrInvalidTopic)
	}

	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return fmt.Errorf("send to %s: %w", topic, domain.ErrEmptyMessage)
	}

	m, err := s.hub.lookup(ctx, member)
	if err != nil {
		s.logger.WarnContext(ctx, "message dropped", "topic", topic, "error", err)
		return err
	}
	return s.hub.broadcast(ctx, Event{
		Kind:    KindMessage,
		Topic:   topic,
		Name:    m.Name,
		Message: text,
		Count:   s.hub.registry.Count(topic),
		Member:  member,
		At:      s.hub.timestamp(),
	})
}

// MoveVideo forwards a presenter control payload to the control topic. The
// session must be subscribed to that control topic.
func (s *Session) MoveVideo(ctx context.Context, topic Topic, payload json.RawMessage) error {
	if topic.Namespace() != NamespaceControl {
		return fmt.Errorf("move video on %s: %w", topic, domain.ErrInvalidTopic)
	}
	s.mu.Lock()
	err := s.checkSubscribed("move video", topic)
	member := s.member
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return s.hub.broadcast(ctx, Event{
		Kind:    KindMove,
		Topic:   topic,
		Member:  member,
		Payload: payload,
		At:      s.hub.timestamp(),
	})
}

// Disconnect closes the session. The member is removed from every chat
// topic and each affected topic receives one departure. A session that
// never authenticated closes without touching the registry. Calling
// Disconnect again is a no-op.
//
// Membership is per member, not per connection: other open sessions of the
// same member lose their chat topics too. Their Send returns
// ErrNotSubscribed until they subscribe again.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	prev := s.state
	if prev == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	if prev == StateUnauthenticated {
		s.mu.Unlock()
		return nil
	}
	removed := s.hub.registry.UnregisterEverywhere(s.member)
	clear(s.topics)
	logger := s.logger
	s.mu.Unlock()

	logger.InfoContext(ctx, "session closed", "departed_topics", len(removed))

	var errs []error
	for _, topic := range removed {
		if err := s.hub.broadcast(ctx, Event{Kind: KindDeparture, Topic: topic}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) expect(op string, want State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == want {
		return nil
	}
	if s.state == StateClosed {
		return fmt.Errorf("%s: %w", op, domain.ErrSessionClosed)
	}
	return fmt.Errorf("%s: %w", op, domain.ErrAlreadyConnected)
}

// checkActive must be called with mu held.
func (s *Session) checkActive(op string) error {
	switch s.state {
	case StateConnected, StateSubscribed:
		return nil
	case StateClosed:
		return fmt.Errorf("%s: %w", op, domain.ErrSessionClosed)
	default:
		return fmt.Errorf("%s: %w", op, domain.ErrNotConnected)
	}
}

// checkSubscribed must be called with mu held.
func (s *Session) checkSubscribed(op string, topic Topic) error {
	if err := s.checkActive(op); err != nil {
		return err
	}
	if _, ok := s.topics[topic]; !ok {
		return fmt.Errorf("%s to %s: %w", op, topic, domain.ErrNotSubscribed)
	}
	if s.stale(topic) {
		s.forget(topic)
		return fmt.Errorf("%s to %s: %w", op, topic, domain.ErrNotSubscribed)
	}
	return nil
}

// stale reports a chat topic the session still lists but whose registry
// entry for the member is gone. Must be called with mu held.
func (s *Session) stale(topic Topic) bool {
	return topic.Tracked() && !s.hub.registry.Contains(topic, s.member)
}

// forget drops topic from the session. Must be called with mu held.
func (s *Session) forget(topic Topic) {
	delete(s.topics, topic)
	if len(s.topics) == 0 && s.state == StateSubscribed {
		s.state = StateConnected
	}
}
