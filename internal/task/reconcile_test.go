package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pamod0/task-track/internal/identity"
	"github.com/Pamod0/task-track/internal/period"
)

var testSession = identity.Profile{
	ID:          "u1",
	Email:       "dana@example.com",
	DisplayName: "Dana",
	Role:        identity.RoleUser,
}

func metricsInput() FormInput {
	return FormInput{
		Description: "Implemented the login page with validation",
		Date:        "2024-03-15",
		Progress:    60,
		TimeSpent:   3.5,
		SelfRating:  4,
	}
}

func tagsInput() FormInput {
	return FormInput{
		Description: "Implemented the login page with validation",
		Date:        "2024-03-15",
		Tags:        []string{"Backend", "auth"},
	}
}

func newMetricsReconciler(t *testing.T) *Reconciler {
	t.Helper()
	rc, err := NewReconciler(VariantMetrics, period.WeekOfMonth)
	require.NoError(t, err)
	return rc
}

func newTagsReconciler(t *testing.T) *Reconciler {
	t.Helper()
	rc, err := NewReconciler(VariantTags, period.WeekOfMonth)
	require.NoError(t, err)
	return rc
}

func TestReconcile_CreateDerivesPeriod(t *testing.T) {
	rc := newMetricsReconciler(t)

	op, err := rc.Reconcile(metricsInput(), testSession, nil)
	require.NoError(t, err)

	assert.Equal(t, OpCreate, op.Kind)
	assert.True(t, op.ResetForm)
	assert.Equal(t, "Week 03", op.Record.Period) // day 15 -> ceil(15/7) = 3
	assert.Equal(t, "u1", op.Record.OwnerID)
	assert.Equal(t, "Dana", op.Record.OwnerDisplayName)
	assert.True(t, op.Record.CreatedAt.Pending)
	assert.True(t, op.Record.UpdatedAt.Pending)
	assert.Empty(t, op.Record.ID, "id is store-assigned")
}

func TestReconcile_MetricsExplicitPeriodWins(t *testing.T) {
	rc := newMetricsReconciler(t)

	in := metricsInput()
	in.Period = "Week 05"
	op, err := rc.Reconcile(in, testSession, nil)
	require.NoError(t, err)
	assert.Equal(t, "Week 05", op.Record.Period)
}

func TestReconcile_TagsVariantIgnoresExplicitPeriod(t *testing.T) {
	rc := newTagsReconciler(t)

	in := tagsInput()
	in.Period = "Week 05"
	op, err := rc.Reconcile(in, testSession, nil)
	require.NoError(t, err)
	assert.Equal(t, "Week 03", op.Record.Period, "tags variant derives period from date")
}

func TestReconcile_TagsNormalized(t *testing.T) {
	rc := newTagsReconciler(t)

	op, err := rc.Reconcile(tagsInput(), testSession, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"backend", "auth"}, op.Record.Tags)
}

func TestReconcile_ValidationAggregatesAllFields(t *testing.T) {
	rc := newMetricsReconciler(t)

	in := FormInput{
		Description: "too short",
		Date:        "15/03/2024",
		Progress:    120,
		TimeSpent:   0,
		SelfRating:  9,
	}
	_, err := rc.Reconcile(in, testSession, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"description", "date", "progress", "timeSpent", "selfRating"} {
		assert.True(t, fields[want], "expected a violation for %s", want)
	}
}

func TestReconcile_TagsVariantRequiresTags(t *testing.T) {
	rc := newTagsReconciler(t)

	in := tagsInput()
	in.Tags = nil
	_, err := rc.Reconcile(in, testSession, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "tags", verr.Fields[0].Field)
}

func TestReconcile_UpdatePreservesIdentityFields(t *testing.T) {
	rc := newMetricsReconciler(t)
	store := NewMemoryStore()
	fixed := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })

	op, err := rc.Reconcile(metricsInput(), testSession, nil)
	require.NoError(t, err)
	created, err := Apply(context.Background(), store, op)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.Pending)

	later := fixed.Add(time.Hour)
	store.SetClock(func() time.Time { return later })

	renamed := testSession
	renamed.DisplayName = "Dana R."
	in := metricsInput()
	in.Progress = 80

	op2, err := rc.Reconcile(in, renamed, &created)
	require.NoError(t, err)
	assert.Equal(t, OpUpdate, op2.Kind)
	assert.False(t, op2.ResetForm)
	assert.Equal(t, created.ID, op2.Record.ID)
	assert.Equal(t, created.CreatedAt, op2.Record.CreatedAt)
	assert.Equal(t, "Dana R.", op2.Record.OwnerDisplayName)
	assert.True(t, op2.Record.UpdatedAt.Pending)

	updated, err := Apply(context.Background(), store, op2)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt.Value)
	assert.Equal(t, 80, updated.Progress)
}

func TestReconcile_CreateThenUnchangedUpdateDiffersOnlyInUpdatedAt(t *testing.T) {
	rc := newMetricsReconciler(t)
	store := NewMemoryStore()
	fixed := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })

	op, err := rc.Reconcile(metricsInput(), testSession, nil)
	require.NoError(t, err)
	created, err := Apply(context.Background(), store, op)
	require.NoError(t, err)

	later := fixed.Add(time.Minute)
	store.SetClock(func() time.Time { return later })

	op2, err := rc.Reconcile(metricsInput(), testSession, &created)
	require.NoError(t, err)
	updated, err := Apply(context.Background(), store, op2)
	require.NoError(t, err)

	expect := created
	expect.UpdatedAt = At(later)
	assert.Equal(t, expect, updated)
}

func TestReconcile_PermissionDenied(t *testing.T) {
	rc := newMetricsReconciler(t)

	existing := Record{ID: "t1", OwnerID: "u2", Variant: VariantMetrics}
	_, err := rc.Reconcile(metricsInput(), testSession, &existing)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestApply_SurfacesStoreError(t *testing.T) {
	store := NewMemoryStore()
	_, err := Apply(context.Background(), store, Operation{
		Kind:   OpUpdate,
		Record: Record{ID: "missing"},
	})

	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewReconciler_RejectsUnknownConfig(t *testing.T) {
	_, err := NewReconciler("weird", period.ISOWeek)
	assert.Error(t, err)

	_, err = NewReconciler(VariantTags, period.Convention("lunar"))
	assert.Error(t, err)
}

func TestValidationError_MessageListsEveryField(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "description", Reason: "too short"},
		{Field: "date", Reason: "invalid"},
	}}
	msg := err.Error()
	assert.Contains(t, msg, "description")
	assert.Contains(t, msg, "date")
	assert.False(t, errors.Is(err, ErrPermissionDenied))
}
