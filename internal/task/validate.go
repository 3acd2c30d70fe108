package task

import (
	"fmt"
	"strings"

	"github.com/Pamod0/task-track/internal/period"
	"github.com/Pamod0/task-track/internal/tag"
)

const (
	MinDescriptionLen = 10
	MaxDescriptionLen = 500
	MaxLongTextLen    = 1000
	MaxTimeSpentHours = 24
	MinSelfRating     = 1
	MaxSelfRating     = 5
)

// FieldError names one violated field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every violated field of a form
// submission, so a caller can surface all of them at once.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// validate checks form input against the record invariants for the
// given variant and convention. It collects every violation before
// reporting.
func validate(in FormInput, variant Variant, conv period.Convention) error {
	verr := &ValidationError{}

	desc := strings.TrimSpace(in.Description)
	if len(desc) < MinDescriptionLen {
		verr.add("description", fmt.Sprintf("must be at least %d characters", MinDescriptionLen))
	} else if len(desc) > MaxDescriptionLen {
		verr.add("description", fmt.Sprintf("can be at most %d characters", MaxDescriptionLen))
	}

	if _, err := period.ParseDate(in.Date); err != nil {
		verr.add("date", "must be a valid YYYY-MM-DD date")
	}

	switch variant {
	case VariantTags:
		validateTags(in.Tags, verr)
	case VariantMetrics:
		validateMetrics(in, conv, verr)
	}

	return verr.orNil()
}

func validateTags(tags []string, verr *ValidationError) {
	if len(tags) == 0 {
		verr.add("tags", "at least one tag is required")
		return
	}
	if len(tags) > tag.MaxTags {
		verr.add("tags", fmt.Sprintf("at most %d tags allowed", tag.MaxTags))
	}
	seen := map[string]bool{}
	for _, raw := range tags {
		norm := tag.Normalize(raw)
		if !tag.ValidFormat(norm) {
			verr.add("tags", fmt.Sprintf("invalid tag %q", raw))
			continue
		}
		if seen[norm] {
			verr.add("tags", fmt.Sprintf("duplicate tag %q", norm))
		}
		seen[norm] = true
	}
}

func validateMetrics(in FormInput, conv period.Convention, verr *ValidationError) {
	if in.Progress < 0 || in.Progress > 100 {
		verr.add("progress", "must be between 0 and 100")
	}
	if in.TimeSpent <= 0 || in.TimeSpent > MaxTimeSpentHours {
		verr.add("timeSpent", fmt.Sprintf("must be positive and at most %d hours", MaxTimeSpentHours))
	}
	if len(in.ChallengesFaced) > MaxLongTextLen {
		verr.add("challengesFaced", fmt.Sprintf("can be at most %d characters", MaxLongTextLen))
	}
	if len(in.SupportNeeded) > MaxLongTextLen {
		verr.add("supportNeeded", fmt.Sprintf("can be at most %d characters", MaxLongTextLen))
	}
	if in.SelfRating < MinSelfRating || in.SelfRating > MaxSelfRating {
		verr.add("selfRating", fmt.Sprintf("must be between %d and %d", MinSelfRating, MaxSelfRating))
	}
	if in.Period != "" && !period.ValidLabel(in.Period, conv) {
		verr.add("period", "not a valid week label")
	}
}

// normalizedTags lowercases/dedupes a validated tag list, preserving
// insertion order.
func normalizedTags(tags []string) []string {
	s := tag.NewSetFrom(tags)
	return s.Tags()
}
