package members

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/nfrund/together/internal/domain"
)

// Static is an in-memory directory.
type Static struct {
	mu      sync.RWMutex
	members map[domain.MemberID]domain.Member
}

// NewStatic returns a directory holding members.
func NewStatic(members ...domain.Member) *Static {
	return &Static{
		members: lo.KeyBy(members, func(m domain.Member) domain.MemberID { return m.ID }),
	}
}

// Put adds or replaces a member.
func (s *Static) Put(m domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
}

// Lookup implements together.MemberLookup.
func (s *Static) Lookup(_ context.Context, id domain.MemberID) (domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return domain.Member{}, fmt.Errorf("member %s: %w", id, domain.ErrMemberNotFound)
	}
	return m, nil
}
