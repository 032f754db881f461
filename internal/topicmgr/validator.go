package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator checks family definitions.
type Validator struct {
	namePattern      *regexp.Regexp
	namespacePattern *regexp.Regexp
}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{
		// Dotted lowercase identifiers: together.chat, together.control
		namePattern:      regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`),
		namespacePattern: regexp.MustCompile(`^[a-z][a-z0-9_]*$`),
	}
}

// ValidateDefinition validates a family definition.
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if !v.namespacePattern.MatchString(topic.Namespace()) {
		return fmt.Errorf("invalid namespace %q: must be lowercase alphanumeric with underscores", topic.Namespace())
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}
	if err := v.validatePattern(topic); err != nil {
		return err
	}
	switch topic.Scope() {
	case ScopePublic, ScopeInternal:
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}
	return nil
}

// ValidateName checks a family name against the naming convention.
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}
	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase dotted segments, e.g. together.chat")
	}
	for _, prefix := range []string{"system.", "internal.", "debug."} {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("name cannot start with reserved prefix: %s", prefix)
		}
	}
	return nil
}

func (v *Validator) validatePattern(topic Topic) error {
	pattern := topic.Pattern()
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("topic pattern cannot be empty")
	}
	if !strings.HasPrefix(pattern, topic.Namespace()+"/") {
		return fmt.Errorf("pattern %q must start with namespace %q", pattern, topic.Namespace()+"/")
	}
	if topic.Example() != "" && !topic.Matches(topic.Example()) {
		return fmt.Errorf("example %q does not match pattern %q", topic.Example(), pattern)
	}
	return nil
}
