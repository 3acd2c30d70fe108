package task

import (
	"errors"
	"strings"

	"github.com/Pamod0/task-track/internal/identity"
	"github.com/Pamod0/task-track/internal/period"
)

var ErrPermissionDenied = errors.New("not the record owner")

type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
)

// Operation describes a persistence write the caller should execute.
// The reconciler itself performs no I/O.
type Operation struct {
	Kind   OpKind
	Record Record

	// ResetForm signals that, after the store acknowledges a create,
	// local form state should reset to defaults. The reconciler only
	// signals this; the caller acts on it.
	ResetForm bool
}

// Reconciler assembles persistable task records from form input and
// session identity under a fixed variant/convention configuration.
type Reconciler struct {
	variant    Variant
	convention period.Convention
}

func NewReconciler(variant Variant, conv period.Convention) (*Reconciler, error) {
	if !variant.Valid() {
		return nil, errors.New("unknown record variant")
	}
	if conv != period.ISOWeek && conv != period.WeekOfMonth {
		return nil, errors.New("unknown period convention")
	}
	return &Reconciler{variant: variant, convention: conv}, nil
}

func (rc *Reconciler) Variant() Variant              { return rc.variant }
func (rc *Reconciler) Convention() period.Convention { return rc.convention }

// Reconcile validates in and produces the operation to run against
// the store. With existing == nil it is a create; otherwise an update
// that replaces every mutable field while preserving id/owner/createdAt.
func (rc *Reconciler) Reconcile(in FormInput, session identity.Profile, existing *Record) (Operation, error) {
	if err := validate(in, rc.variant, rc.convention); err != nil {
		return Operation{}, err
	}

	if existing != nil && session.ID != existing.OwnerID {
		return Operation{}, ErrPermissionDenied
	}

	periodLabel, err := rc.periodFor(in)
	if err != nil {
		return Operation{}, err
	}

	rec := Record{
		OwnerID:          session.ID,
		OwnerDisplayName: session.Label(),
		Variant:          rc.variant,
		Description:      strings.TrimSpace(in.Description),
		Date:             in.Date,
		Period:           periodLabel,
		UpdatedAt:        ServerAssigned(),
	}

	switch rc.variant {
	case VariantTags:
		rec.Tags = normalizedTags(in.Tags)
	case VariantMetrics:
		rec.Progress = in.Progress
		rec.TimeSpent = in.TimeSpent
		rec.ChallengesFaced = in.ChallengesFaced
		rec.SupportNeeded = in.SupportNeeded
		rec.SelfRating = in.SelfRating
	}

	if existing == nil {
		rec.CreatedAt = ServerAssigned()
		return Operation{Kind: OpCreate, Record: rec, ResetForm: true}, nil
	}

	rec.ID = existing.ID
	rec.OwnerID = existing.OwnerID
	rec.CreatedAt = existing.CreatedAt
	return Operation{Kind: OpUpdate, Record: rec}, nil
}

// periodFor derives the week label. Under the tags variant the label
// is always derived from the date; under the metrics variant an
// explicit (already validated) selection wins over the computed
// default.
func (rc *Reconciler) periodFor(in FormInput) (string, error) {
	if rc.variant == VariantMetrics && in.Period != "" {
		return in.Period, nil
	}
	return period.ResolveString(in.Date, rc.convention)
}
