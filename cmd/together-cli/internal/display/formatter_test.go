package display

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/together/internal/topicmgr"
)

var sample = topicmgr.Define(topicmgr.TopicConfig{
	Name:        "sample.chat",
	Namespace:   "chat",
	Description: "A sample family used to check formatting of long descriptions",
	Pattern:     "chat/{id}",
	Example:     "chat/1",
	Tracked:     true,
})

func TestTopicsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TopicsTable(&buf, []topicmgr.Topic{sample}))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "sample.chat")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "...")
}

func TestTopicsTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TopicsTable(&buf, nil))
	assert.Contains(t, buf.String(), "No topics found")
}

func TestTopicsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TopicsJSON(&buf, []topicmgr.Topic{sample}))

	var out struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "sample.chat", out.Topics[0].Name)
	assert.Equal(t, "public", out.Topics[0].Scope)
	assert.True(t, out.Topics[0].Tracked)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
