package cost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// ---------------------------------------------------------------------------
// MemoryStore
// ---------------------------------------------------------------------------

// MemoryStore keeps summaries in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	days map[string]DaySummary
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{days: make(map[string]DaySummary)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, date string) (DaySummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.days[date]
	if !ok {
		return DaySummary{}, false, nil
	}
	d.Entries = slices.Clone(d.Entries)
	return d, true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, summary DaySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary.Entries = slices.Clone(summary.Entries)
	s.days[summary.Date] = summary
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.days, date)
	return nil
}

// ---------------------------------------------------------------------------
// FileStore
// ---------------------------------------------------------------------------

// FileStore keeps every day in one JSON document keyed by date.
// Writes go to a temporary file that is renamed over the original.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, date string) (DaySummary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.read()
	if err != nil {
		return DaySummary{}, false, err
	}
	d, ok := days[date]
	return d, ok, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, summary DaySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.read()
	if err != nil {
		return err
	}
	days[summary.Date] = summary
	return s.write(days)
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := days[date]; !ok {
		return nil
	}
	delete(days, date)
	return s.write(days)
}

func (s *FileStore) read() (map[string]DaySummary, error) {
	days := make(map[string]DaySummary)
	data, err := os.ReadFile(s.path) // #nosec G304 -- path comes from configuration
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return days, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return days, nil
	}
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return days, nil
}

func (s *FileStore) write(days map[string]DaySummary) error {
	data, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil { // #nosec G301 -- user data dir
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Compile-time interface compliance checks.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
)
