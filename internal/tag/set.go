// Package tag maintains the bounded, validated tag collection attached
// to a task entry, plus the suggestion pipeline that feeds it.
package tag

import (
	"errors"
	"slices"
	"strings"
)

var (
	ErrInvalidFormat = errors.New("tag must be 1-20 characters of a-z, 0-9 or '-'")
	ErrDuplicate     = errors.New("tag already added")
	ErrQuotaExceeded = errors.New("tag limit reached (max 10)")
)

const (
	MaxTags        = 10
	MaxTagLen      = 20
	MaxSuggestions = 5
)

// Normalize lowercases and trims a raw label. It does not validate.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// ValidFormat reports whether a normalized label satisfies the
// charset/length rule.
func ValidFormat(label string) bool {
	if len(label) < 1 || len(label) > MaxTagLen {
		return false
	}
	for _, ch := range label {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= '0' && ch <= '9':
		case ch == '-':
		default:
			return false
		}
	}
	return true
}

// Set is an insertion-ordered, deduplicated tag collection. The
// accepted tags and the pending suggestion list are always disjoint.
// Set is not safe for concurrent use.
type Set struct {
	accepted    []string
	suggestions []string
}

func NewSet() *Set {
	return &Set{}
}

// NewSetFrom seeds a set from already-persisted tags. Entries are
// normalized; invalid or duplicate entries are skipped rather than
// rejected, existing records never fail to load.
func NewSetFrom(tags []string) *Set {
	s := NewSet()
	for _, raw := range tags {
		_ = s.Add(raw)
	}
	return s
}

// Add normalizes and appends a label.
func (s *Set) Add(label string) error {
	norm := Normalize(label)
	if !ValidFormat(norm) {
		return ErrInvalidFormat
	}
	if slices.Contains(s.accepted, norm) {
		return ErrDuplicate
	}
	if len(s.accepted) >= MaxTags {
		return ErrQuotaExceeded
	}
	s.accepted = append(s.accepted, norm)
	s.suggestions = slices.DeleteFunc(s.suggestions, func(v string) bool {
		return v == norm
	})
	return nil
}

// Remove drops a label if present, no-op otherwise.
func (s *Set) Remove(label string) {
	norm := Normalize(label)
	s.accepted = slices.DeleteFunc(s.accepted, func(v string) bool {
		return v == norm
	})
}

// AddSuggestions replaces the pending suggestion list with the valid,
// novel entries of candidates, keeping at most MaxSuggestions.
func (s *Set) AddSuggestions(candidates []string) {
	next := make([]string, 0, MaxSuggestions)
	for _, raw := range candidates {
		norm := Normalize(raw)
		if !ValidFormat(norm) {
			continue
		}
		if slices.Contains(s.accepted, norm) || slices.Contains(next, norm) {
			continue
		}
		next = append(next, norm)
		if len(next) == MaxSuggestions {
			break
		}
	}
	s.suggestions = next
}

// ClearSuggestions drops any pending suggestions.
func (s *Set) ClearSuggestions() {
	s.suggestions = nil
}

// Tags returns a copy of the accepted tags in insertion order.
func (s *Set) Tags() []string {
	return slices.Clone(s.accepted)
}

// Suggestions returns a copy of the pending suggestion list.
func (s *Set) Suggestions() []string {
	return slices.Clone(s.suggestions)
}

func (s *Set) Len() int { return len(s.accepted) }
