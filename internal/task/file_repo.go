package task

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileState struct {
	Records map[string]Record `json:"records"`
}

func newFileState() fileState {
	return fileState{Records: map[string]Record{}}
}

// FileStore persists records as a single JSON document under the data
// directory.
type FileStore struct {
	mu   sync.RWMutex
	path string
	s    fileState
	now  func() time.Time
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, storeErr("open", err)
	}
	st := &FileStore{
		path: filepath.Join(dataDir, "tasks.json"),
		s:    newFileState(),
		now:  time.Now,
	}
	if err := st.load(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.s = newFileState()
			return nil
		}
		return storeErr("load", err)
	}
	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return storeErr("load", err)
	}
	if loaded.Records == nil {
		loaded.Records = map[string]Record{}
	}
	s.s = loaded
	return nil
}

func (s *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(s.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

func newRecordID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return "task_" + hex.EncodeToString(b[:])
}

func (s *FileStore) Create(_ context.Context, rec Record) (CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec.ID = newRecordID()
	rec.CreatedAt = At(now)
	rec.UpdatedAt = At(now)
	s.s.Records[rec.ID] = rec

	if err := s.saveLocked(); err != nil {
		delete(s.s.Records, rec.ID)
		return CreateResult{}, storeErr("create", err)
	}
	return CreateResult{ID: rec.ID, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *FileStore) Update(_ context.Context, id string, rec Record) (UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.s.Records[id]
	if !ok {
		return UpdateResult{}, storeErr("update", ErrNotFound)
	}

	now := s.now().UTC()
	rec.ID = prev.ID
	rec.OwnerID = prev.OwnerID
	rec.CreatedAt = prev.CreatedAt
	rec.UpdatedAt = At(now)
	s.s.Records[id] = rec

	if err := s.saveLocked(); err != nil {
		s.s.Records[id] = prev
		return UpdateResult{}, storeErr("update", err)
	}
	return UpdateResult{UpdatedAt: now}, nil
}

func (s *FileStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.s.Records[id]
	if !ok {
		return Record{}, storeErr("get", ErrNotFound)
	}
	return rec, nil
}

func (s *FileStore) ListByOwner(_ context.Context, ownerID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range s.s.Records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *FileStore) ListAll(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.s.Records))
	for _, rec := range s.s.Records {
		out = append(out, rec)
	}
	sortByDateDesc(out)
	return out, nil
}
