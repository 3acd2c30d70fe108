// Package task implements the task-entry workflow: the persisted
// record shape, form validation, and the reconciler that turns form
// input plus session identity into create/update store operations.
package task

import "time"

// Variant selects the record shape for a deployment. It is fixed at
// configuration time; records carry it as a discriminator so stores
// never have to guess.
type Variant string

const (
	// VariantTags: description + date + tag set, period purely derived.
	VariantTags Variant = "tags"
	// VariantMetrics: description + date + progress metrics, period
	// user-selectable with a computed default.
	VariantMetrics Variant = "metrics"
)

func (v Variant) Valid() bool {
	return v == VariantTags || v == VariantMetrics
}

// Timestamp is a server-assigned timestamp. A record built by the
// reconciler carries pending timestamps; the store replaces them with
// concrete values when it acknowledges the write.
type Timestamp struct {
	Pending bool      `json:"pending,omitempty"`
	Value   time.Time `json:"value,omitzero"`
}

// ServerAssigned is the placeholder for a timestamp the store has not
// assigned yet.
func ServerAssigned() Timestamp {
	return Timestamp{Pending: true}
}

// At wraps a concrete store-assigned time.
func At(t time.Time) Timestamp {
	return Timestamp{Value: t}
}

func (ts Timestamp) IsZero() bool {
	return !ts.Pending && ts.Value.IsZero()
}

// Record is the persisted unit of TaskTrak.
type Record struct {
	ID               string  `json:"id,omitempty"`
	OwnerID          string  `json:"ownerId"`
	OwnerDisplayName string  `json:"ownerDisplayName,omitempty"`
	Variant          Variant `json:"variant"`
	Description      string  `json:"description"`
	Date             string  `json:"date"`   // YYYY-MM-DD
	Period           string  `json:"period"` // "Week NN"

	// tags variant
	Tags []string `json:"tags,omitempty"`

	// metrics variant
	Progress        int     `json:"progress,omitempty"`
	TimeSpent       float64 `json:"timeSpent,omitempty"`
	ChallengesFaced string  `json:"challengesFaced,omitempty"`
	SupportNeeded   string  `json:"supportNeeded,omitempty"`
	SelfRating      int     `json:"selfRating,omitempty"`

	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// FormInput is what a submitted task form carries. Fields outside the
// configured variant are ignored.
type FormInput struct {
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Period      string   `json:"period,omitempty"` // explicit selection, metrics variant only
	Tags        []string `json:"tags,omitempty"`

	Progress        int     `json:"progress"`
	TimeSpent       float64 `json:"timeSpent"`
	ChallengesFaced string  `json:"challengesFaced,omitempty"`
	SupportNeeded   string  `json:"supportNeeded,omitempty"`
	SelfRating      int     `json:"selfRating"`
}
