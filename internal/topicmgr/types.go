package topicmgr

import (
	"regexp"
	"strings"
	"time"
)

// Topic describes a family of concrete topic keys.
type Topic interface {
	// Name is the unique dotted identifier of the family.
	Name() string
	// Namespace is the first key segment shared by every key in the family.
	Namespace() string
	Description() string
	// Pattern is the key shape, e.g. "chat/{sessionId}".
	Pattern() string
	Example() string
	// Tracked reports whether membership of keys in this family is counted.
	Tracked() bool
	Metadata() map[string]interface{}
	Scope() TopicScope
	// Matches reports whether key belongs to the family.
	Matches(key string) bool
}

// TypedTopic is the standard Topic implementation.
type TypedTopic struct {
	name        string
	namespace   string
	description string
	pattern     string
	example     string
	tracked     bool
	metadata    map[string]interface{}
	scope       TopicScope
	matcher     *regexp.Regexp
}

var _ Topic = (*TypedTopic)(nil)

// TopicConfig holds the definition of a topic family.
type TopicConfig struct {
	Name        string                 `json:"name"`
	Namespace   string                 `json:"namespace"`
	Scope       TopicScope             `json:"scope"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Example     string                 `json:"example"`
	Tracked     bool                   `json:"tracked"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// TopicScope separates client-facing families from internal ones.
type TopicScope string

const (
	ScopePublic   TopicScope = "public"   // Clients may subscribe
	ScopeInternal TopicScope = "internal" // Server-side only
)

// RegistryEntry is a registered family with bookkeeping.
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
}

// TopicError is a structured catalog error.
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType classifies a TopicError.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorInvalidPattern        ErrorType = "invalid_pattern"
	ErrorValidationFailed      ErrorType = "validation_failed"
	ErrorNoMatch               ErrorType = "no_match"
)

func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TopicError) Unwrap() error {
	return e.Cause
}

// Define builds a family from its config. Scope defaults to public.
func Define(config TopicConfig) Topic {
	if config.Scope == "" {
		config.Scope = ScopePublic
	}
	return &TypedTopic{
		name:        config.Name,
		namespace:   config.Namespace,
		description: config.Description,
		pattern:     config.Pattern,
		example:     config.Example,
		tracked:     config.Tracked,
		metadata:    config.Metadata,
		scope:       config.Scope,
		matcher:     compilePattern(config.Pattern),
	}
}

// compilePattern turns "chat/{sessionId}" into ^chat/[1-9][0-9]*$. Every
// placeholder stands for a positive decimal id. A malformed pattern yields
// nil, which the validator reports.
func compilePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	var b strings.Builder
	b.WriteString("^")
	for i, seg := range strings.Split(pattern, "/") {
		if i > 0 {
			b.WriteString("/")
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") && len(seg) > 2 {
			b.WriteString("[1-9][0-9]*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(seg))
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil
	}
	return re
}

func (t *TypedTopic) Name() string        { return t.name }
func (t *TypedTopic) Namespace() string   { return t.namespace }
func (t *TypedTopic) Description() string { return t.description }
func (t *TypedTopic) Pattern() string     { return t.pattern }
func (t *TypedTopic) Example() string     { return t.example }
func (t *TypedTopic) Tracked() bool       { return t.tracked }
func (t *TypedTopic) Scope() TopicScope   { return t.scope }
func (t *TypedTopic) String() string      { return t.name }

// Metadata returns a copy of the family metadata.
func (t *TypedTopic) Metadata() map[string]interface{} {
	result := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		result[k] = v
	}
	return result
}

func (t *TypedTopic) Matches(key string) bool {
	return t.matcher != nil && t.matcher.MatchString(key)
}
