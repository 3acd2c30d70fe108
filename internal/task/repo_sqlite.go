package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id                 TEXT PRIMARY KEY,
	owner_id           TEXT NOT NULL,
	owner_display_name TEXT NOT NULL DEFAULT '',
	variant            TEXT NOT NULL,
	description        TEXT NOT NULL,
	date               TEXT NOT NULL,
	period             TEXT NOT NULL,
	tags               TEXT NOT NULL DEFAULT '[]',
	progress           INTEGER NOT NULL DEFAULT 0,
	time_spent         REAL NOT NULL DEFAULT 0,
	challenges_faced   TEXT NOT NULL DEFAULT '',
	support_needed     TEXT NOT NULL DEFAULT '',
	self_rating        INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);
`

// SQLiteStore persists records in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and
// ensures the tasks table exists. The caller owns Close.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storeErr("open", err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storeErr("schema", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Create(ctx context.Context, rec Record) (CreateResult, error) {
	now := s.now().UTC()
	id := newRecordID()
	tags, _ := json.Marshal(rec.Tags)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks
			(id, owner_id, owner_display_name, variant, description, date, period,
			 tags, progress, time_spent, challenges_faced, support_needed, self_rating,
			 created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, rec.OwnerID, rec.OwnerDisplayName, string(rec.Variant), rec.Description,
		rec.Date, rec.Period, string(tags), rec.Progress, rec.TimeSpent,
		rec.ChallengesFaced, rec.SupportNeeded, rec.SelfRating, now, now,
	)
	if err != nil {
		return CreateResult{}, storeErr("create", err)
	}
	return CreateResult{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, rec Record) (UpdateResult, error) {
	now := s.now().UTC()
	tags, _ := json.Marshal(rec.Tags)

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			owner_display_name = ?, description = ?, date = ?, period = ?,
			tags = ?, progress = ?, time_spent = ?, challenges_faced = ?,
			support_needed = ?, self_rating = ?, updated_at = ?
		WHERE id = ?`,
		rec.OwnerDisplayName, rec.Description, rec.Date, rec.Period,
		string(tags), rec.Progress, rec.TimeSpent, rec.ChallengesFaced,
		rec.SupportNeeded, rec.SelfRating, now, id,
	)
	if err != nil {
		return UpdateResult{}, storeErr("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return UpdateResult{}, storeErr("update", err)
	}
	if n == 0 {
		return UpdateResult{}, storeErr("update", ErrNotFound)
	}
	return UpdateResult{UpdatedAt: now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, storeErr("get", ErrNotFound)
	}
	if err != nil {
		return Record{}, storeErr("get", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE owner_id = ? ORDER BY date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

const selectColumns = `
	SELECT id, owner_id, owner_display_name, variant, description, date, period,
	       tags, progress, time_spent, challenges_faced, support_needed, self_rating,
	       created_at, updated_at
	FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var variant, tagsJSON string
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.OwnerDisplayName, &variant, &rec.Description,
		&rec.Date, &rec.Period, &tagsJSON, &rec.Progress, &rec.TimeSpent,
		&rec.ChallengesFaced, &rec.SupportNeeded, &rec.SelfRating,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Variant = Variant(variant)
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		rec.Tags = nil
	}
	rec.CreatedAt = At(createdAt)
	rec.UpdatedAt = At(updatedAt)
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr("scan", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", err)
	}
	return out, nil
}
