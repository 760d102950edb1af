// Package validate checks chat message content before it reaches the
// lead pipeline or the language model.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLength is the maximum message length in runes.
const DefaultMaxLength = 2000

// Reason identifies why a message was rejected.
type Reason string

const (
	ReasonEmpty      Reason = "empty"
	ReasonTooLong    Reason = "too_long"
	ReasonDisallowed Reason = "disallowed"
)

// ValidationError reports an invalid message. Message is safe to show to
// the end user.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message (%s): %s", e.Reason, e.Message)
}

// defaultDenyPatterns catch markup injection and the common prompt
// injection openers.
var defaultDenyPatterns = []string{
	`(?i)<\s*script\b`,
	`(?i)<\s*iframe\b`,
	`(?i)javascript\s*:`,
	`(?i)\bon(?:error|load|click|mouseover)\s*=`,
	`(?i)ignore\s+(?:all\s+)?(?:previous|prior|above)\s+instructions`,
	`(?i)disregard\s+(?:all\s+)?(?:previous|prior|your)\s+instructions`,
	`(?i)reveal\s+(?:your|the)\s+system\s+prompt`,
}

// Validator holds the active policy.
type Validator struct {
	maxLength int
	deny      []*regexp.Regexp
}

// New creates a validator. A maxLength of zero or less uses
// DefaultMaxLength. extraPatterns are appended to the built-in deny-list.
func New(maxLength int, extraPatterns ...string) (*Validator, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	v := &Validator{maxLength: maxLength}
	for _, p := range append(append([]string{}, defaultDenyPatterns...), extraPatterns...) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern %q: %w", p, err)
		}
		v.deny = append(v.deny, re)
	}
	return v, nil
}

// MaxLength returns the configured maximum length in runes.
func (v *Validator) MaxLength() int {
	return v.maxLength
}

// Validate returns nil for acceptable messages and a *ValidationError
// otherwise.
func (v *Validator) Validate(message string) error {
	if strings.TrimSpace(message) == "" {
		return &ValidationError{Reason: ReasonEmpty, Message: "Message cannot be empty."}
	}

	if !utf8.ValidString(message) {
		return &ValidationError{Reason: ReasonDisallowed, Message: "Message contains invalid characters."}
	}

	if utf8.RuneCountInString(message) > v.maxLength {
		return &ValidationError{
			Reason:  ReasonTooLong,
			Message: fmt.Sprintf("Message is too long (maximum %d characters).", v.maxLength),
		}
	}

	if hasControlChars(message) {
		return &ValidationError{Reason: ReasonDisallowed, Message: "Message contains invalid characters."}
	}

	for _, re := range v.deny {
		if re.MatchString(message) {
			return &ValidationError{Reason: ReasonDisallowed, Message: "Message contains content that is not allowed."}
		}
	}

	return nil
}

// hasControlChars reports control characters other than ordinary
// whitespace.
func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return true
		}
	}
	return false
}
