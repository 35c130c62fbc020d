// Package progress implements the puzzle unlock engine: date gates, the
// linear completion chain and the persisted guess counters.
//
// Every exported method is total. Storage failures are logged, counted and
// replaced by the "nothing saved yet" default so callers never see an error.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/metrics"
	"svw.info/advent/internal/ports"
)

type Engine struct {
	store  ports.Store
	keys   domain.KeyTable
	cal    domain.Calendar
	now    ports.Clock
	log    *slog.Logger
	events *Broker

	// mu serializes counter read-modify-write so concurrent submits on one
	// engine never lose an increment.
	mu sync.Mutex
}

type Option func(*Engine)

func WithKeys(k domain.KeyTable) Option { return func(e *Engine) { e.keys = k } }
func WithCalendar(c domain.Calendar) Option { return func(e *Engine) { e.cal = c } }
func WithClock(c ports.Clock) Option { return func(e *Engine) { e.now = c } }
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }
func WithBroker(b *Broker) Option { return func(e *Engine) { e.events = b } }

func New(store ports.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		keys:   domain.DefaultKeys(),
		cal:    domain.DefaultCalendar(),
		now:    time.Now,
		log:    slog.Default(),
		events: NewBroker(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events exposes the broker that receives every write the engine makes.
func (e *Engine) Events() *Broker { return e.events }

// Calendar returns the unlock calendar the engine was built with.
func (e *Engine) Calendar() domain.Calendar { return e.cal }

// IsDateUnlocked compares today's local date with the puzzle's unlock day.
func (e *Engine) IsDateUnlocked(o domain.Ordinal) bool {
	if !o.Valid() {
		return false
	}
	today := e.cal.Day(e.now())
	return !today.Before(e.cal.UnlockDate(o))
}

// IsCompleted reports whether the completion sentinel is stored for o.
func (e *Engine) IsCompleted(ctx context.Context, o domain.Ordinal) bool {
	k, ok := e.keysFor(o)
	if !ok {
		return false
	}
	v, found := e.read(ctx, o, k.Completed)
	return found && v == domain.CompletedSentinel
}

// IsUnlocked requires both the date gate and, past the first puzzle, the
// completion of the immediate predecessor.
func (e *Engine) IsUnlocked(ctx context.Context, o domain.Ordinal) bool {
	return e.LockReason(ctx, o) == domain.LockNone
}

// LockReason evaluates the date gate before the predecessor gate, so a
// puzzle whose day has not come reports LockDateNotReached regardless of
// the chain.
func (e *Engine) LockReason(ctx context.Context, o domain.Ordinal) domain.LockReason {
	if !e.IsDateUnlocked(o) {
		return domain.LockDateNotReached
	}
	if o == 1 {
		return domain.LockNone
	}
	if !e.IsCompleted(ctx, o-1) {
		return domain.LockPreviousIncomplete
	}
	return domain.LockNone
}

// GuessCount returns the stored counter, or 0 when absent or malformed.
func (e *Engine) GuessCount(ctx context.Context, o domain.Ordinal) int {
	k, ok := e.keysFor(o)
	if !ok {
		return 0
	}
	v, found := e.read(ctx, o, k.Guesses)
	if !found {
		return 0
	}
	return e.parseCount(o, k.Guesses, v)
}

// IncrementGuessCount adds one to the counter and returns the stored value.
// It returns 0 and leaves the counter untouched when the current value
// cannot be read or the new one cannot be persisted.
func (e *Engine) IncrementGuessCount(ctx context.Context, o domain.Ordinal) int {
	k, ok := e.keysFor(o)
	if !ok {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var next int
	if u, ok := e.store.(ports.Updater); ok {
		v, err := u.Update(ctx, k.Guesses, func(old string, found bool) (string, error) {
			n := 0
			if found {
				n = e.parseCount(o, k.Guesses, old)
			}
			return strconv.Itoa(n + 1), nil
		})
		if err != nil {
			e.fail(domain.OpWrite, o, k.Guesses, err)
			return 0
		}
		next, _ = strconv.Atoi(v)
	} else {
		// Read directly: a failed read must abort, not restart the count at 1.
		v, found, err := e.store.Get(ctx, k.Guesses)
		if err != nil {
			e.fail(domain.OpRead, o, k.Guesses, err)
			return 0
		}
		if found {
			next = e.parseCount(o, k.Guesses, v)
		}
		next++
		if err := e.store.Set(ctx, k.Guesses, strconv.Itoa(next)); err != nil {
			e.fail(domain.OpWrite, o, k.Guesses, err)
			return 0
		}
	}

	metrics.GuessesTotal.WithLabelValues(metrics.Puzzle(int(o))).Inc()
	e.publish(EventGuess, o)
	return next
}

// MarkCompleted stores the completion sentinel. Callers verify the answer
// first; writing it again has no further effect.
func (e *Engine) MarkCompleted(ctx context.Context, o domain.Ordinal) {
	k, ok := e.keysFor(o)
	if !ok {
		return
	}
	if err := e.store.Set(ctx, k.Completed, domain.CompletedSentinel); err != nil {
		e.fail(domain.OpWrite, o, k.Completed, err)
		return
	}
	metrics.CompletionsTotal.WithLabelValues(metrics.Puzzle(int(o))).Inc()
	e.log.Info("puzzle completed", "puzzle", int(o))
	e.publish(EventCompleted, o)
}

// SaveAnswers stores a pipe-joined snapshot of the accepted inputs. It is a
// separate write from the completion flag and the two can diverge on crash.
func (e *Engine) SaveAnswers(ctx context.Context, o domain.Ordinal, answers []string) {
	k, ok := e.keysFor(o)
	if !ok {
		return
	}
	if err := e.store.Set(ctx, k.Answers, strings.Join(answers, domain.AnswerSeparator)); err != nil {
		e.fail(domain.OpWrite, o, k.Answers, err)
		return
	}
	e.publish(EventAnswers, o)
}

// Answers returns the stored snapshot split on the separator, or nil.
func (e *Engine) Answers(ctx context.Context, o domain.Ordinal) []string {
	k, ok := e.keysFor(o)
	if !ok {
		return nil
	}
	v, found := e.read(ctx, o, k.Answers)
	if !found || v == "" {
		return nil
	}
	return strings.Split(v, domain.AnswerSeparator)
}

// Status gathers every derived attribute of a puzzle in one pass.
func (e *Engine) Status(ctx context.Context, o domain.Ordinal) domain.PuzzleStatus {
	completed := e.IsCompleted(ctx, o)
	reason := e.LockReason(ctx, o)
	st := domain.PuzzleStatus{
		Ordinal:    o,
		Unlocked:   reason == domain.LockNone,
		Completed:  completed,
		Guesses:    e.GuessCount(ctx, o),
		LockReason: reason,
		State:      domain.DeriveState(completed, reason),
	}
	if o.Valid() {
		st.UnlockDate = e.cal.UnlockDate(o)
	}
	return st
}

// Statuses returns the status of every puzzle in ordinal order.
func (e *Engine) Statuses(ctx context.Context) []domain.PuzzleStatus {
	out := make([]domain.PuzzleStatus, 0, domain.PuzzleCount)
	for _, o := range domain.Ordinals() {
		out = append(out, e.Status(ctx, o))
	}
	return out
}

// NotifyStoreChanged tells subscribers that the backing store was modified
// by something other than this engine.
func (e *Engine) NotifyStoreChanged() { e.publish(EventStoreChanged, 0) }

func (e *Engine) keysFor(o domain.Ordinal) (domain.PuzzleKeys, bool) {
	k, ok := e.keys[o]
	if !ok || !o.Valid() {
		e.log.Warn("unknown puzzle ordinal", "puzzle", int(o))
		return domain.PuzzleKeys{}, false
	}
	return k, true
}

func (e *Engine) read(ctx context.Context, o domain.Ordinal, key string) (string, bool) {
	v, found, err := e.store.Get(ctx, key)
	if err != nil {
		e.fail(domain.OpRead, o, key, err)
		return "", false
	}
	return v, found
}

func (e *Engine) parseCount(o domain.Ordinal, key, v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err == nil && n < 0 {
		err = errors.New("negative counter")
	}
	if err != nil {
		perr := &domain.ParseError{Key: key, Value: v, Err: err}
		e.log.Warn("malformed guess counter, using 0", "puzzle", int(o), "err", perr)
		return 0
	}
	return n
}

func (e *Engine) fail(op string, o domain.Ordinal, key string, err error) {
	var serr *domain.StorageError
	if !errors.As(err, &serr) {
		serr = &domain.StorageError{Op: op, Key: key, Err: err}
	}
	metrics.StorageErrorsTotal.WithLabelValues(serr.Op).Inc()
	e.log.Error("storage failure, using default", "puzzle", int(o), "key", key, "err", serr)
}

func (e *Engine) publish(kind EventKind, o domain.Ordinal) {
	if e.events == nil {
		return
	}
	e.events.Publish(Event{Kind: kind, Ordinal: o, At: e.now()})
}

var _ ports.Progression = (*Engine)(nil)
