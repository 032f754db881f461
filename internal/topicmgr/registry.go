package topicmgr

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry stores registered families by name.
type Registry struct {
	entries map[string]*RegistryEntry
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a family. Names and namespaces must both be unique.
func (r *Registry) Register(topic Topic) error {
	if topic == nil {
		return &TopicError{Type: ErrorValidationFailed, Message: "cannot register nil topic"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := topic.Name()
	if _, exists := r.entries[name]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   name,
			Message: fmt.Sprintf("topic already registered: %s", name),
		}
	}
	for _, entry := range r.entries {
		if entry.Topic.Namespace() == topic.Namespace() {
			return &TopicError{
				Type:    ErrorDuplicateRegistration,
				Topic:   name,
				Message: fmt.Sprintf("namespace %q already owned by %s", topic.Namespace(), entry.Topic.Name()),
			}
		}
	}

	r.entries[name] = &RegistryEntry{Topic: topic, RegisteredAt: time.Now()}
	return nil
}

// Get retrieves a family by name.
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return entry.Topic, true
}

// List returns all families sorted by name.
func (r *Registry) List() []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.entries))
	for _, entry := range r.entries {
		topics = append(topics, entry.Topic)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name() < topics[j].Name() })
	return topics
}

// Count returns the number of registered families.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset removes everything (tests only).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*RegistryEntry)
}
