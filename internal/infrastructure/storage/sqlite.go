package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/ports"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// SQLite stores keys in a single kv table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("open sqlite: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open sqlite: create db dir: %w", err)
	}

	dsn := "file:" + filepath.Clean(path) + "?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: sql open: %w", err)
	}
	// One connection keeps every read-modify-write strictly serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: ping: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Migrate applies each embedded migration at most once.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("migrate: create %s: %w", migrationTable, err)
	}

	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate: read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var applied int
		err := db.QueryRow(`SELECT COUNT(1) FROM `+migrationTable+` WHERE name = ?;`, name).Scan(&applied)
		if err != nil {
			return fmt.Errorf("migrate: check %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}
		content, err := fs.ReadFile(migrationFS, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate: begin %s: %w", name, err)
		}
		if _, err := tx.Exec(upSection(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate: exec %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?);`, name, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate: record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate: commit %s: %w", name, err)
		}
	}
	return nil
}

// upSection returns the SQL between the Up and Down markers.
func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	i := strings.Index(content, up)
	if i == -1 {
		return content
	}
	content = content[i+len(up):]
	if j := strings.Index(content, down); j != -1 {
		content = content[:j]
	}
	return content
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getKey(ctx context.Context, q queryer, key string) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?;`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func putKey(ctx context.Context, q queryer, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`,
		key, value, time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := getKey(ctx, s.db, key)
	if err != nil {
		return "", false, &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	return v, ok, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	if err := putKey(ctx, s.db, key, value); err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, key string, fn ports.UpdateFunc) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	old, found, err := getKey(ctx, tx, key)
	if err != nil {
		return "", &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	next, err := fn(old, found)
	if err != nil {
		return "", err
	}
	if err := putKey(ctx, tx, key, next); err != nil {
		return "", &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return "", &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	return next, nil
}

func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Err: err}
	}
	defer func() { _ = tx.Rollback() }()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?;`, k); err != nil {
			return &domain.StorageError{Op: domain.OpWrite, Key: k, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Err: err}
	}
	return nil
}

var (
	_ ports.Store   = (*SQLite)(nil)
	_ ports.Updater = (*SQLite)(nil)
	_ ports.Deleter = (*SQLite)(nil)
)
