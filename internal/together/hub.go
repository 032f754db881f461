package together

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/nfrund/together/internal/domain"
)

// IdentityResolver turns connection credentials into a member identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, credentials string) (domain.MemberID, error)
}

// MemberLookup resolves a member id to its display information.
type MemberLookup interface {
	Lookup(ctx context.Context, id domain.MemberID) (domain.Member, error)
}

// Broadcaster delivers an event to every current subscriber of its topic.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Hub owns the session registry and the collaborators every connection
// needs. One Hub is created at startup and shared by all connections.
type Hub struct {
	registry    *Registry
	resolver    IdentityResolver
	members     MemberLookup
	broadcaster Broadcaster
	now         func() time.Time
	location    *time.Location
	logger      *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// WithLocation sets the time zone event timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(h *Hub) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithRegistry lets callers share a registry they already hold.
func WithRegistry(r *Registry) Option {
	return func(h *Hub) {
		if r != nil {
			h.registry = r
		}
	}
}

// WithLogger replaces the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub wires the session core.
func NewHub(resolver IdentityResolver, members MemberLookup, broadcaster Broadcaster, opts ...Option) *Hub {
	h := &Hub{
		registry:    NewRegistry(),
		resolver:    resolver,
		members:     members,
		broadcaster: broadcaster,
		now:         time.Now,
		location:    time.Local,
		logger:      slog.Default().With("service", "together"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry exposes the registry for read-only reporting.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// NewSession starts a connection in the unauthenticated state.
func (h *Hub) NewSession() *Session {
	return newSession(h)
}

// Participant is one entry of a topic's participant listing.
type Participant struct {
	ID              domain.MemberID `json:"id"`
	Name            string          `json:"name"`
	ProfileImageURL string          `json:"profileImageUrl,omitempty"`
}

// Participants lists who is on topic. Members whose lookup fails are still
// listed, without a name.
func (h *Hub) Participants(ctx context.Context, topic Topic) []Participant {
	return lo.Map(h.registry.Members(topic), func(id domain.MemberID, _ int) Participant {
		m, err := h.members.Lookup(ctx, id)
		if err != nil {
			h.logger.WarnContext(ctx, "participant lookup failed", "topic", topic, "member_id", id, "error", err)
			return Participant{ID: id}
		}
		return Participant{ID: id, Name: m.Name, ProfileImageURL: m.ProfileImageURL}
	})
}

// Kick removes member from a chat topic and tells the topic about it.
func (h *Hub) Kick(ctx context.Context, topic Topic, member domain.MemberID) error {
	if !topic.Tracked() {
		return fmt.Errorf("kick from %s: %w", topic, domain.ErrInvalidTopic)
	}
	m, err := h.members.Lookup(ctx, member)
	if err != nil {
		return fmt.Errorf("kick member %s: %w: %w", member, domain.ErrIdentityResolution, err)
	}
	if !h.registry.Unregister(topic, member) {
		return fmt.Errorf("kick member %s from %s: %w", member, topic, domain.ErrNotSubscribed)
	}

	event := Event{
		Kind:   KindKick,
		Topic:  topic,
		Name:   m.Name,
		Count:  h.registry.Count(topic),
		Member: member,
		At:     h.timestamp(),
	}
	h.logger.InfoContext(ctx, "member kicked", "topic", topic, "member_id", member)
	return h.broadcast(ctx, event)
}

func (h *Hub) lookup(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := h.members.Lookup(ctx, id)
	if err != nil {
		return domain.Member{}, fmt.Errorf("lookup member %s: %w: %w", id, domain.ErrIdentityResolution, err)
	}
	return m, nil
}

func (h *Hub) broadcast(ctx context.Context, event Event) error {
	if err := h.broadcaster.Broadcast(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "broadcast failed", "topic", event.Topic, "event", event.Kind, "error", err)
		return fmt.Errorf("broadcast %s to %s: %w", event.Kind, event.Topic, err)
	}
	return nil
}

func (h *Hub) timestamp() time.Time {
	return h.now().In(h.location)
}
