package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/ports"
)

// BadgerConfig configures an embedded Badger store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in RAM; used by tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// GCInterval is how often value-log GC runs. Zero disables it.
	GCInterval time.Duration
	// GCDiscardRatio is the garbage ratio that triggers a rewrite.
	GCDiscardRatio float64
	Logger         *slog.Logger
}

// DefaultBadgerConfig is tuned for a single small keyspace on disk.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

type badgerLogger struct{ logger *slog.Logger }

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger stores keys in an embedded Badger database.
type Badger struct {
	db     *badger.DB
	log    *slog.Logger
	stopCh chan struct{}
	doneCh chan struct{}
}

// OpenBadger opens the database and starts value-log GC when configured.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("open badger: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("open badger: create dir %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	b := &Badger{db: db, log: cfg.Logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		b.stopCh = make(chan struct{})
		b.doneCh = make(chan struct{})
		go b.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return b, nil
}

func (b *Badger) runGC(interval time.Duration, ratio float64) {
	defer close(b.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			// ErrNoRewrite only means there was nothing to collect.
			if err := b.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) && b.log != nil {
				b.log.Warn("badger value log GC error", "err", err)
			}
		}
	}
}

// Close stops GC and closes the database.
func (b *Badger) Close() error {
	if b.stopCh != nil {
		close(b.stopCh)
		<-b.doneCh
		b.stopCh = nil
	}
	return b.db.Close()
}

func readTxn(txn *badger.Txn, key string) (string, bool, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", false, err
	}
	return string(val), true, nil
}

func (b *Badger) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	var (
		v     string
		found bool
	)
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		v, found, err = readTxn(txn, key)
		return err
	})
	if err != nil {
		return "", false, &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	return v, found, nil
}

func (b *Badger) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
	}
	return nil
}

// Update retries on transaction conflicts, so concurrent transactions on the
// same key within this process cannot make an increment disappear. Badger's
// directory lock keeps other processes out.
func (b *Badger) Update(ctx context.Context, key string, fn ports.UpdateFunc) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
		}
		var next string
		err := b.db.Update(func(txn *badger.Txn) error {
			old, found, err := readTxn(txn, key)
			if err != nil {
				return &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
			}
			next, err = fn(old, found)
			if err != nil {
				return err
			}
			return txn.Set([]byte(key), []byte(next))
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			var serr *domain.StorageError
			if errors.As(err, &serr) {
				return "", err
			}
			return "", &domain.StorageError{Op: domain.OpWrite, Key: key, Err: err}
		}
		return next, nil
	}
}

func (b *Badger) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Err: err}
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.StorageError{Op: domain.OpWrite, Err: err}
	}
	return nil
}

var (
	_ ports.Store   = (*Badger)(nil)
	_ ports.Updater = (*Badger)(nil)
	_ ports.Deleter = (*Badger)(nil)
)
