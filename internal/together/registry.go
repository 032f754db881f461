package together

import (
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/nfrund/together/internal/domain"
)

// memberSet is the membership of one topic. A set that has been emptied by
// an unregister is marked dead and must not be written to again; it is
// replaced in the registry map instead.
type memberSet struct {
	mu      sync.Mutex
	members map[domain.MemberID]struct{}
	dead    bool
}

func newMemberSet() *memberSet {
	return &memberSet{members: make(map[domain.MemberID]struct{})}
}

// Registry tracks which members are subscribed to which chat topic.
//
// Each topic's set has its own lock, so mutations on different topics never
// contend with each other. The outer lock only guards the topic map itself
// and is never held while a set lock is being waited on.
type Registry struct {
	mu     sync.RWMutex
	topics map[Topic]*memberSet
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{topics: make(map[Topic]*memberSet)}
}

// Register adds member to topic, creating the topic if needed.
// Registering an existing member is a no-op.
func (r *Registry) Register(topic Topic, member domain.MemberID) {
	set := r.lookup(topic)
	for {
		if set == nil {
			set = r.install(topic, nil)
		}
		set.mu.Lock()
		if !set.dead {
			set.members[member] = struct{}{}
			set.mu.Unlock()
			return
		}
		set.mu.Unlock()
		set = r.install(topic, set)
	}
}

// UnregisterEverywhere removes member from every topic and returns the
// topics it was actually removed from, sorted. Topics left empty are evicted.
func (r *Registry) UnregisterEverywhere(member domain.MemberID) []Topic {
	r.mu.RLock()
	snapshot := make(map[Topic]*memberSet, len(r.topics))
	for topic, set := range r.topics {
		snapshot[topic] = set
	}
	r.mu.RUnlock()

	var removed []Topic
	emptied := make(map[Topic]*memberSet)
	for topic, set := range snapshot {
		set.mu.Lock()
		if _, ok := set.members[member]; ok && !set.dead {
			delete(set.members, member)
			removed = append(removed, topic)
			if len(set.members) == 0 {
				set.dead = true
				emptied[topic] = set
			}
		}
		set.mu.Unlock()
	}

	if len(emptied) > 0 {
		r.mu.Lock()
		for topic, set := range emptied {
			if r.topics[topic] == set {
				delete(r.topics, topic)
			}
		}
		r.mu.Unlock()
	}

	slices.Sort(removed)
	return removed
}

// Unregister removes member from a single topic. It reports whether the
// member was present.
func (r *Registry) Unregister(topic Topic, member domain.MemberID) bool {
	set := r.lookup(topic)
	if set == nil {
		return false
	}

	set.mu.Lock()
	_, ok := set.members[member]
	if ok && !set.dead {
		delete(set.members, member)
	}
	evict := ok && !set.dead && len(set.members) == 0
	if evict {
		set.dead = true
	}
	set.mu.Unlock()

	if evict {
		r.mu.Lock()
		if r.topics[topic] == set {
			delete(r.topics, topic)
		}
		r.mu.Unlock()
	}
	return ok
}

// Count returns the number of members on topic, zero if it is not tracked.
func (r *Registry) Count(topic Topic) int {
	set := r.lookup(topic)
	if set == nil {
		return 0
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	if set.dead {
		return 0
	}
	return len(set.members)
}

// Contains reports whether member is currently registered on topic.
func (r *Registry) Contains(topic Topic, member domain.MemberID) bool {
	set := r.lookup(topic)
	if set == nil {
		return false
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	if set.dead {
		return false
	}
	_, ok := set.members[member]
	return ok
}

// Members returns a sorted snapshot of the members on topic.
func (r *Registry) Members(topic Topic) []domain.MemberID {
	set := r.lookup(topic)
	if set == nil {
		return nil
	}
	set.mu.Lock()
	if set.dead {
		set.mu.Unlock()
		return nil
	}
	ids := lo.Keys(set.members)
	set.mu.Unlock()

	slices.Sort(ids)
	return ids
}

// TopicCount pairs a topic with its member count.
type TopicCount struct {
	Topic   Topic `json:"topic"`
	Members int   `json:"members"`
}

// RegistryStats is a point-in-time summary of the registry.
type RegistryStats struct {
	Topics      int          `json:"topics"`
	Memberships int          `json:"memberships"`
	PerTopic    []TopicCount `json:"per_topic,omitempty"`
}

// Stats summarizes the registry. Per-topic counts are sorted by topic.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	topics := lo.Keys(r.topics)
	r.mu.RUnlock()
	slices.Sort(topics)

	var stats RegistryStats
	for _, topic := range topics {
		n := r.Count(topic)
		if n == 0 {
			continue
		}
		stats.Topics++
		stats.Memberships += n
		stats.PerTopic = append(stats.PerTopic, TopicCount{Topic: topic, Members: n})
	}
	return stats
}

func (r *Registry) lookup(topic Topic) *memberSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topics[topic]
}

// install returns the live set for topic. If the map still holds stale (or
// nothing, when stale is nil) it is replaced by a fresh set.
func (r *Registry) install(topic Topic, stale *memberSet) *memberSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.topics[topic]; ok && current != stale {
		return current
	}
	set := newMemberSet()
	r.topics[topic] = set
	return set
}
