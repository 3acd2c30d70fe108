package task

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("task not found")

// StoreError wraps a persistence-layer failure. It is surfaced to the
// caller verbatim; no retry happens below this boundary.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// CreateResult carries the server-assigned fields of a create.
type CreateResult struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateResult carries the server-assigned fields of an update.
type UpdateResult struct {
	UpdatedAt time.Time
}

// Store is the persistence collaborator. Create assigns id and both
// timestamps; Update replaces mutable fields and refreshes updatedAt.
type Store interface {
	Create(ctx context.Context, rec Record) (CreateResult, error)
	Update(ctx context.Context, id string, rec Record) (UpdateResult, error)
	Get(ctx context.Context, id string) (Record, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Record, error)
	ListAll(ctx context.Context) ([]Record, error)
}

// Apply executes an operation against the store and folds the
// assigned id/timestamps back into the record.
func Apply(ctx context.Context, store Store, op Operation) (Record, error) {
	rec := op.Record
	switch op.Kind {
	case OpCreate:
		res, err := store.Create(ctx, rec)
		if err != nil {
			return Record{}, err
		}
		rec.ID = res.ID
		rec.CreatedAt = At(res.CreatedAt)
		rec.UpdatedAt = At(res.UpdatedAt)
		return rec, nil
	case OpUpdate:
		res, err := store.Update(ctx, rec.ID, rec)
		if err != nil {
			return Record{}, err
		}
		rec.UpdatedAt = At(res.UpdatedAt)
		return rec, nil
	default:
		return Record{}, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
