package topicmgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatFamily() Topic {
	return Define(TopicConfig{
		Name:        "together.chat",
		Namespace:   "chat",
		Description: "chat traffic",
		Pattern:     "chat/{sessionId}",
		Example:     "chat/42",
		Tracked:     true,
	})
}

func TestManager_RegisterAndMatch(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(chatFamily()))
	require.NoError(t, m.Register(Define(TopicConfig{
		Name:        "together.control",
		Namespace:   "control",
		Description: "presenter control",
		Pattern:     "control/{sessionId}",
		Example:     "control/42",
	})))

	got, err := m.Match("chat/7")
	require.NoError(t, err)
	assert.Equal(t, "together.chat", got.Name())

	got, err = m.Match("control/7")
	require.NoError(t, err)
	assert.False(t, got.Tracked())

	for _, key := range []string{"chat/0", "chat/x", "chat/1/2", "video/1", "chat"} {
		_, err := m.Match(key)
		var topicErr *TopicError
		require.True(t, errors.As(err, &topicErr), "key %q", key)
		assert.Equal(t, ErrorNoMatch, topicErr.Type)
	}

	assert.Len(t, m.ListTracked(), 1)
	assert.Len(t, m.FindTopics("together.*"), 2)
	assert.Equal(t, []string{"together.chat", "together.control"}, []string{m.List()[0].Name(), m.List()[1].Name()})
}

func TestManager_RejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		config TopicConfig
	}{
		{"bad name", TopicConfig{Name: "Together.Chat", Namespace: "chat", Description: "d", Pattern: "chat/{id}"}},
		{"reserved prefix", TopicConfig{Name: "system.chat", Namespace: "chat", Description: "d", Pattern: "chat/{id}"}},
		{"empty description", TopicConfig{Name: "together.chat", Namespace: "chat", Pattern: "chat/{id}"}},
		{"pattern outside namespace", TopicConfig{Name: "together.chat", Namespace: "chat", Description: "d", Pattern: "room/{id}"}},
		{"example does not match", TopicConfig{Name: "together.chat", Namespace: "chat", Description: "d", Pattern: "chat/{id}", Example: "chat/abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewManager().Register(Define(tt.config))
			var topicErr *TopicError
			require.True(t, errors.As(err, &topicErr))
			assert.Equal(t, ErrorValidationFailed, topicErr.Type)
			assert.NotNil(t, errors.Unwrap(err))
		})
	}
}

func TestManager_DuplicateRegistration(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(chatFamily()))

	err := m.Register(chatFamily())
	var topicErr *TopicError
	require.True(t, errors.As(err, &topicErr))
	assert.Equal(t, ErrorDuplicateRegistration, topicErr.Type)

	assert.Panics(t, func() { m.MustRegister(chatFamily()) })
}

func TestManager_ValidateKeyScope(t *testing.T) {
	m := NewManager()
	m.MustRegister(chatFamily())
	m.MustRegister(Define(TopicConfig{
		Name:        "together.audit",
		Namespace:   "audit",
		Scope:       ScopeInternal,
		Description: "server-side audit stream",
		Pattern:     "audit/{sessionId}",
	}))

	assert.NoError(t, m.ValidateKey("chat/1", ScopePublic))
	assert.Error(t, m.ValidateKey("audit/1", ScopePublic))
	assert.Error(t, m.ValidateKey("nope/1", ScopePublic))
}
