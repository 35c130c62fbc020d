package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/ports"
)

// FSFileName is the JSON document an FS store keeps its keys in.
const FSFileName = "progress.json"

// FS keeps the whole keyspace in one JSON object on disk. Every write
// rewrites the file through a temp file and rename, so readers never see a
// torn document.
type FS struct {
	dir string
	mu  sync.Mutex
	// saved is the document this store last wrote, or nil after a write
	// that did not complete.
	saved []byte
}

func NewFS(dir string) *FS { return &FS{dir: dir} }

// Path returns the file backing the store.
func (s *FS) Path() string { return filepath.Join(s.dir, FSFileName) }

// Dir returns the directory holding the store file.
func (s *FS) Dir() string { return s.dir }

func (s *FS) load() (map[string]string, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	out := map[string]string{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FS) save(m map[string]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	s.saved = nil
	f, err := os.CreateTemp(s.dir, FSFileName+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return err
	}
	s.saved = data
	return nil
}

// unchangedSinceSave reports whether the file on disk is exactly what this
// store last wrote.
func (s *FS) unchangedSinceSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return false
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return false
	}
	return bytes.Equal(data, s.saved)
}

func (s *FS) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return "", false, &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *FS) Set(ctx context.Context, key, value string) error {
	_, err := s.Update(ctx, key, func(string, bool) (string, error) { return value, nil })
	return err
}

func (s *FS) Update(ctx context.Context, key string, fn ports.UpdateFunc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return "", &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	old, found := m[key]
	next, err := fn(old, found)
	if err != nil {
		return "", err
	}
	m[key] = next
	if err := s.save(m); err != nil {
		return "", &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	return next, nil
}

func (s *FS) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return &domain.StorageError{Op: domain.OpRead, Err: err}
	}
	for _, k := range keys {
		delete(m, k)
	}
	if err := s.save(m); err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Err: err}
	}
	return nil
}

var (
	_ ports.Store   = (*FS)(nil)
	_ ports.Updater = (*FS)(nil)
	_ ports.Deleter = (*FS)(nil)
)
