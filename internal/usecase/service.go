package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/metrics"
	"svw.info/advent/internal/ports"
	"svw.info/advent/internal/progress"
)

// EventSource hands out progression event subscriptions.
type EventSource interface {
	Subscribe(buffer int) (<-chan progress.Event, func())
}

type Service struct {
	Progress ports.Progression
	Catalog  ports.Catalog
	Matcher  ports.Matcher
	Events   EventSource
	Store    ports.Store
	Keys     domain.KeyTable
	Log      *slog.Logger
}

func NewService(p ports.Progression, c ports.Catalog, m ports.Matcher, ev EventSource, st ports.Store, keys domain.KeyTable, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{Progress: p, Catalog: c, Matcher: m, Events: ev, Store: st, Keys: keys, Log: log}
}

var errNotConfigured = errors.New("usecase dependency not configured")

// Statuses is the home-screen view of all five puzzles.
func (u *Service) Statuses(ctx context.Context) ([]domain.PuzzleStatus, error) {
	if u.Progress == nil {
		return nil, errNotConfigured
	}
	return u.Progress.Statuses(ctx), nil
}

func (u *Service) Status(ctx context.Context, o domain.Ordinal) (domain.PuzzleStatus, error) {
	if u.Progress == nil {
		return domain.PuzzleStatus{}, errNotConfigured
	}
	if !o.Valid() {
		return domain.PuzzleStatus{}, domain.ErrUnknownPuzzle
	}
	return u.Progress.Status(ctx, o), nil
}

// Puzzle returns the catalog entry for o. Accepted answers are not part of
// its JSON form.
func (u *Service) Puzzle(o domain.Ordinal) (domain.Puzzle, error) {
	if u.Catalog == nil {
		return domain.Puzzle{}, errNotConfigured
	}
	p, ok := u.Catalog.Puzzle(o)
	if !ok {
		return domain.Puzzle{}, domain.ErrUnknownPuzzle
	}
	return p, nil
}

// Submit runs one answer attempt. A locked puzzle or a submission with an
// empty blank is refused without counting a guess; anything else counts,
// including attempts on an already completed puzzle.
func (u *Service) Submit(ctx context.Context, o domain.Ordinal, inputs []string) (domain.SubmitResult, error) {
	if u.Progress == nil || u.Matcher == nil {
		return domain.SubmitResult{}, errNotConfigured
	}
	p, err := u.Puzzle(o)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if reason := u.Progress.LockReason(ctx, o); reason != domain.LockNone {
		metrics.SubmissionsTotal.WithLabelValues(metrics.Puzzle(int(o)), "locked").Inc()
		return domain.SubmitResult{}, &domain.LockedError{Ordinal: o, Reason: reason}
	}

	trimmed := make([]string, len(inputs))
	for i, in := range inputs {
		trimmed[i] = strings.TrimSpace(in)
	}
	if len(trimmed) != len(p.Blanks) {
		return domain.SubmitResult{}, fmt.Errorf("%w: want %d answers, got %d", domain.ErrIncompleteSubmission, len(p.Blanks), len(trimmed))
	}
	for i, in := range trimmed {
		if in == "" {
			return domain.SubmitResult{}, fmt.Errorf("%w: answer %d is empty", domain.ErrIncompleteSubmission, i+1)
		}
	}

	guesses := u.Progress.IncrementGuessCount(ctx, o)
	ok, blanks := u.Matcher.Match(p, trimmed)
	if ok {
		u.Progress.MarkCompleted(ctx, o)
		if p.KeepAnswers {
			u.Progress.SaveAnswers(ctx, o, trimmed)
		}
	}

	result := "wrong"
	if ok {
		result = "correct"
	}
	metrics.SubmissionsTotal.WithLabelValues(metrics.Puzzle(int(o)), result).Inc()
	u.Log.Info("submission", "puzzle", int(o), "result", result, "guesses", guesses)

	return domain.SubmitResult{
		Correct: ok,
		Blanks:  blanks,
		Guesses: guesses,
		Status:  u.Progress.Status(ctx, o),
	}, nil
}

// Answers returns the stored answer snapshot of a completed puzzle.
func (u *Service) Answers(ctx context.Context, o domain.Ordinal) ([]string, error) {
	if u.Progress == nil {
		return nil, errNotConfigured
	}
	if !o.Valid() {
		return nil, domain.ErrUnknownPuzzle
	}
	if !u.Progress.IsCompleted(ctx, o) {
		return nil, domain.ErrNotCompleted
	}
	return u.Progress.Answers(ctx, o), nil
}

// Subscribe forwards to the event source.
func (u *Service) Subscribe(buffer int) (<-chan progress.Event, func(), error) {
	if u.Events == nil {
		return nil, nil, errNotConfigured
	}
	ch, cancel := u.Events.Subscribe(buffer)
	return ch, cancel, nil
}

// Reset wipes every progression key from the store. This is the storage
// reset the engine itself never performs.
func (u *Service) Reset(ctx context.Context) error {
	d, ok := u.Store.(ports.Deleter)
	if !ok || u.Keys == nil {
		return errNotConfigured
	}
	if err := d.Delete(ctx, u.Keys.All()...); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	u.Log.Warn("progress reset")
	if u.Progress != nil {
		u.Progress.NotifyStoreChanged()
	}
	return nil
}
