package topicmgr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Manager is the API over the catalog: registration with validation,
// discovery, and matching of concrete keys to families.
type Manager struct {
	registry  *Registry
	validator *Validator
	mu        sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// Register validates and adds a family.
func (m *Manager) Register(topic Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validator.ValidateDefinition(topic); err != nil {
		name := ""
		if topic != nil {
			name = topic.Name()
		}
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Message: "topic validation failed",
			Cause:   err,
		}
	}
	return m.registry.Register(topic)
}

// MustRegister registers topic and panics on failure. Meant for startup.
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a family by name.
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.Get(name)
}

// List returns every family sorted by name.
func (m *Manager) List() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry.List()
}

// ListByScope returns the families of one scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return lo.Filter(m.List(), func(t Topic, _ int) bool { return t.Scope() == scope })
}

// ListTracked returns the families whose membership is counted.
func (m *Manager) ListTracked() []Topic {
	return lo.Filter(m.List(), func(t Topic, _ int) bool { return t.Tracked() })
}

// FindTopics returns families whose name matches pattern. A trailing "*"
// matches any suffix.
func (m *Manager) FindTopics(pattern string) []Topic {
	return lo.Filter(m.List(), func(t Topic, _ int) bool { return matchesPattern(t.Name(), pattern) })
}

// Match returns the family a concrete key belongs to.
func (m *Manager) Match(key string) (Topic, error) {
	for _, t := range m.List() {
		if t.Matches(key) {
			return t, nil
		}
	}
	return nil, &TopicError{
		Type:    ErrorNoMatch,
		Topic:   key,
		Message: fmt.Sprintf("no topic family accepts %q", key),
	}
}

// ValidateKey checks that key belongs to a family of the given scope.
func (m *Manager) ValidateKey(key string, scope TopicScope) error {
	t, err := m.Match(key)
	if err != nil {
		return err
	}
	if t.Scope() != scope {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   key,
			Message: fmt.Sprintf("topic family %s is %s, not %s", t.Name(), t.Scope(), scope),
		}
	}
	return nil
}

// ValidateTopicName checks a family name without registering anything.
func (m *Manager) ValidateTopicName(name string) error {
	return m.validator.ValidateName(name)
}

// ValidateDefinition checks a family without registering it.
func (m *Manager) ValidateDefinition(topic Topic) error {
	return m.validator.ValidateDefinition(topic)
}

// Count returns the number of registered families.
func (m *Manager) Count() int {
	return m.registry.Count()
}

// Reset clears the catalog (tests only).
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry.Reset()
}

func matchesPattern(name, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
