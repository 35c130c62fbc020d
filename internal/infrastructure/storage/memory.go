package storage

import (
	"context"
	"sync"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/ports"
)

// Write records one successful Set on a Memory store.
type Write struct {
	Key   string
	Value string
}

// Memory is an in-process store. Reads and writes can be made to fail, and
// successful writes are recorded, which makes it the store of choice in tests.
type Memory struct {
	mu       sync.Mutex
	data     map[string]string
	readErr  error
	writeErr error
	writes   []Write
}

func NewMemory() *Memory { return &Memory{data: make(map[string]string)} }

// FailReads makes every subsequent Get return err; nil restores reads.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// FailWrites makes every subsequent Set, Update and Delete return err.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Writes returns a copy of the recorded writes, oldest first.
func (m *Memory) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

// Snapshot returns a copy of the stored data.
func (m *Memory) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", false, &domain.StorageError{Op: domain.OpRead, Key: key, Err: m.readErr}
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(key, value)
}

func (m *Memory) setLocked(key, value string) error {
	if m.writeErr != nil {
		return &domain.StorageError{Op: domain.OpWrite, Key: key, Err: m.writeErr}
	}
	m.data[key] = value
	m.writes = append(m.writes, Write{Key: key, Value: value})
	return nil
}

func (m *Memory) Update(ctx context.Context, key string, fn ports.UpdateFunc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", &domain.StorageError{Op: domain.OpRead, Key: key, Err: m.readErr}
	}
	old, found := m.data[key]
	next, err := fn(old, found)
	if err != nil {
		return "", err
	}
	if err := m.setLocked(key, next); err != nil {
		return "", err
	}
	return next, nil
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return &domain.StorageError{Op: domain.OpWrite, Err: m.writeErr}
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

var (
	_ ports.Store   = (*Memory)(nil)
	_ ports.Updater = (*Memory)(nil)
	_ ports.Deleter = (*Memory)(nil)
)
