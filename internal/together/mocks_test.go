package together

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nfrund/together/internal/domain"
)

// recordingBroadcaster captures every broadcast event.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBroadcaster) getEvents() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *recordingBroadcaster) byTopic(topic Topic) []Event {
	var out []Event
	for _, e := range b.getEvents() {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// tokenResolver maps a credential string straight to a member id.
type tokenResolver map[string]domain.MemberID

func (r tokenResolver) Resolve(_ context.Context, credentials string) (domain.MemberID, error) {
	id, ok := r[credentials]
	if !ok {
		return 0, fmt.Errorf("unknown token %q", credentials)
	}
	return id, nil
}

// staticLookup serves members from a map.
type staticLookup struct {
	mu      sync.Mutex
	members map[domain.MemberID]domain.Member
	fail    error
}

func newStaticLookup(members ...domain.Member) *staticLookup {
	l := &staticLookup{members: make(map[domain.MemberID]domain.Member)}
	for _, m := range members {
		l.members[m.ID] = m
	}
	return l
}

func (l *staticLookup) Lookup(_ context.Context, id domain.MemberID) (domain.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return domain.Member{}, l.fail
	}
	m, ok := l.members[id]
	if !ok {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	return m, nil
}

func (l *staticLookup) setFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = err
}

var errTransport = errors.New("transport down")
