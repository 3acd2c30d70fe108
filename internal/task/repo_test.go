package task

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(owner string) Record {
	return Record{
		OwnerID:          owner,
		OwnerDisplayName: "Sam",
		Variant:          VariantMetrics,
		Description:      "Wrote the weekly progress summary",
		Date:             "2024-03-15",
		Period:           "Week 03",
		Progress:         40,
		TimeSpent:        2,
		SelfRating:       3,
		CreatedAt:        ServerAssigned(),
		UpdatedAt:        ServerAssigned(),
	}
}

// storeUnderTest runs the same contract checks against every backend.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStore_CreateAssignsIDAndTimestamps(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			res, err := store.Create(context.Background(), sampleRecord("u1"))
			require.NoError(t, err)

			assert.NotEmpty(t, res.ID)
			assert.False(t, res.CreatedAt.IsZero())
			assert.Equal(t, res.CreatedAt, res.UpdatedAt)

			got, err := store.Get(context.Background(), res.ID)
			require.NoError(t, err)
			assert.Equal(t, "u1", got.OwnerID)
			assert.False(t, got.CreatedAt.Pending, "stored timestamps are concrete")
			assert.False(t, got.UpdatedAt.Pending)
		})
	}
}

func TestStore_UpdatePreservesImmutableFields(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			res, err := store.Create(context.Background(), sampleRecord("u1"))
			require.NoError(t, err)

			patch := sampleRecord("u1")
			patch.ID = res.ID
			patch.OwnerID = "someone-else" // must be ignored by the store
			patch.Progress = 90
			patch.OwnerDisplayName = "Sam R."

			upd, err := store.Update(context.Background(), res.ID, patch)
			require.NoError(t, err)
			assert.False(t, upd.UpdatedAt.Before(res.UpdatedAt))

			got, err := store.Get(context.Background(), res.ID)
			require.NoError(t, err)
			assert.Equal(t, "u1", got.OwnerID, "ownerId never changes after create")
			assert.WithinDuration(t, res.CreatedAt, got.CreatedAt.Value, time.Second, "createdAt immutable")
			assert.Equal(t, 90, got.Progress)
			assert.Equal(t, "Sam R.", got.OwnerDisplayName)
		})
	}
}

func TestStore_UpdateMissingRecord(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Update(context.Background(), "nope", sampleRecord("u1"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ListScoping(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Create(ctx, sampleRecord("u1"))
			require.NoError(t, err)
			_, err = store.Create(ctx, sampleRecord("u1"))
			require.NoError(t, err)
			_, err = store.Create(ctx, sampleRecord("u2"))
			require.NoError(t, err)

			mine, err := store.ListByOwner(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, mine, 2)
			for _, rec := range mine {
				assert.Equal(t, "u1", rec.OwnerID)
			}

			all, err := store.ListAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestFileStore_SurvivesReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	rec := sampleRecord("u1")
	rec.Tags = nil
	res, err := store.Create(context.Background(), rec)
	require.NoError(t, err)

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wrote the weekly progress summary", got.Description)
	assert.Equal(t, "Week 03", got.Period)
}

func TestSQLiteStore_TagsRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer store.Close()

	rec := sampleRecord("u1")
	rec.Variant = VariantTags
	rec.Tags = []string{"backend", "auth"}

	res, err := store.Create(context.Background(), rec)
	require.NoError(t, err)

	got, err := store.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, VariantTags, got.Variant)
	assert.Equal(t, []string{"backend", "auth"}, got.Tags)
}
