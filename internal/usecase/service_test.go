package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svw.info/advent/internal/catalog"
	"svw.info/advent/internal/domain"
	"svw.info/advent/internal/infrastructure/storage"
	"svw.info/advent/internal/progress"
	"svw.info/advent/internal/validator"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]domain.Puzzle{
		{Ordinal: 1, Title: "one", Blanks: []domain.Blank{{Accept: []string{"31114341111311"}}}},
		{Ordinal: 2, Title: "two", Blanks: []domain.Blank{{Accept: []string{"Goat"}}}},
		{Ordinal: 3, Title: "three", KeepAnswers: true, Blanks: []domain.Blank{
			{Label: "4", Accept: []string{"Islamabad"}},
			{Label: "7", Accept: []string{"Madrid", "Mexico City"}},
		}},
		{Ordinal: 4, Title: "four", Blanks: []domain.Blank{{Accept: []string{"Mistletoe"}}}},
		{Ordinal: 5, Title: "five", Blanks: []domain.Blank{{Accept: []string{"SANTA"}}, {Accept: []string{"AWAIT"}}}},
	})
	require.NoError(t, err)
	return c
}

type fixture struct {
	uc     *Service
	store  *storage.Memory
	engine *progress.Engine
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := storage.NewMemory()
	keys := domain.DefaultKeys()
	e := progress.New(st,
		progress.WithKeys(keys),
		progress.WithCalendar(domain.Calendar{Year: 2025, Month: time.December, Location: time.UTC}),
		progress.WithClock(func() time.Time { return now }),
		progress.WithLogger(log),
	)
	uc := NewService(e, testCatalog(t), validator.New(), e.Events(), st, keys, log)
	return fixture{uc: uc, store: st, engine: e}
}

var dec25 = time.Date(2025, time.December, 25, 9, 0, 0, 0, time.UTC)

func TestSubmit_WrongAnswerCountsGuess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dec25)

	res, err := f.uc.Submit(ctx, 1, []string{"1234"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, []bool{false}, res.Blanks)
	assert.Equal(t, 1, res.Guesses)
	assert.Equal(t, domain.StateUnlocked, res.Status.State)
	assert.False(t, f.engine.IsUnlocked(ctx, 2))
}

func TestSubmit_CorrectAnswerUnlocksNext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dec25)

	_, err := f.uc.Submit(ctx, 1, []string{"0"})
	require.NoError(t, err)
	res, err := f.uc.Submit(ctx, 1, []string{" 31114341111311 "})
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 2, res.Guesses)
	assert.Equal(t, domain.StateCompleted, res.Status.State)

	assert.True(t, f.engine.IsUnlocked(ctx, 2))
	assert.Equal(t, "true", f.store.Snapshot()["puzzle1_completed"])
	// No snapshot for puzzles that do not keep answers.
	_, saved := f.store.Snapshot()["puzzle1_completed_answers"]
	assert.False(t, saved)
}

func TestSubmit_KeepAnswersSavesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dec25)
	for _, o := range []domain.Ordinal{1, 2} {
		f.engine.MarkCompleted(ctx, o)
	}

	res, err := f.uc.Submit(ctx, 3, []string{"islamabad", " Mexico City"})
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, "islamabad|Mexico City", f.store.Snapshot()["puzzle3_completed_answers"])

	as, err := f.uc.Answers(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"islamabad", "Mexico City"}, as)
}

func TestSubmit_PartialMatchIsWrong(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dec25)
	f.engine.MarkCompleted(ctx, 1)
	f.engine.MarkCompleted(ctx, 2)

	res, err := f.uc.Submit(ctx, 3, []string{"Islamabad", "Paris"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, []bool{true, false}, res.Blanks)
	assert.False(t, f.engine.IsCompleted(ctx, 3))
}

func TestSubmit_LockedDoesNotCount(t *testing.T) {
	ctx := context.Background()

	t.Run("previous incomplete", func(t *testing.T) {
		f := newFixture(t, dec25)
		_, err := f.uc.Submit(ctx, 2, []string{"Goat"})
		var locked *domain.LockedError
		require.ErrorAs(t, err, &locked)
		assert.Equal(t, domain.LockPreviousIncomplete, locked.Reason)
		assert.ErrorIs(t, err, domain.ErrLocked)
		assert.Equal(t, 0, f.engine.GuessCount(ctx, 2))
		assert.Empty(t, f.store.Writes())
	})

	t.Run("date not reached", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, time.December, 1, 10, 0, 0, 0, time.UTC))
		f.engine.MarkCompleted(ctx, 1)
		_, err := f.uc.Submit(ctx, 2, []string{"Goat"})
		var locked *domain.LockedError
		require.ErrorAs(t, err, &locked)
		assert.Equal(t, domain.LockDateNotReached, locked.Reason)
		assert.Equal(t, 0, f.engine.GuessCount(ctx, 2))
	})
}

func TestSubmit_IncompleteDoesNotCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dec25)
	f.engine.MarkCompleted(ctx, 1)
	f.engine.MarkCompleted(ctx, 2)

	for _, in := range [][]string{{"Islamabad"}, {"Islamabad", "  "}, nil} {
		_, err := f.uc.Submit(ctx, 3, in)
		require.ErrorIs(t, err, domain.ErrIncompleteSubmission)
	}
	assert.Equal(t, 0, f.engine.GuessCount(ctx, 3))
}

func TestSubmit_UnknownPuzzle(t *testing.T) {
	f := newFixture(t, dec25)
	_, err := f.uc.Submit(context.Background(), 6, []string{"x"})
	require.ErrorIs(t, err, domain.ErrUnknownPuzzle)
}

func TestSubmit_AfterCompletionStillCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dec25)
	f.engine.MarkCompleted(ctx, 1)

	res, err := f.uc.Submit(ctx, 1, []string{"nope"})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, 1, res.Guesses)
	assert.Equal(t, domain.StateCompleted, res.Status.State)
}

func TestAnswers_NotCompleted(t *testing.T) {
	f := newFixture(t, dec25)
	_, err := f.uc.Answers(context.Background(), 3)
	require.ErrorIs(t, err, domain.ErrNotCompleted)

	_, err = f.uc.Answers(context.Background(), 0)
	require.ErrorIs(t, err, domain.ErrUnknownPuzzle)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, dec25)
	st, err := f.uc.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnlocked, st.State)

	_, err = f.uc.Status(context.Background(), 9)
	require.ErrorIs(t, err, domain.ErrUnknownPuzzle)

	all, err := f.uc.Statuses(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, domain.PuzzleCount)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, dec25)
	events, cancel, err := f.uc.Subscribe(8)
	require.NoError(t, err)
	defer cancel()

	_, err = f.uc.Submit(ctx, 1, []string{"31114341111311"})
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, "unrelated", "keep"))

	require.NoError(t, f.uc.Reset(ctx))
	assert.Equal(t, map[string]string{"unrelated": "keep"}, f.store.Snapshot())
	assert.False(t, f.engine.IsCompleted(ctx, 1))
	assert.False(t, f.engine.IsUnlocked(ctx, 2))

	var kinds []progress.EventKind
	for len(events) > 0 {
		kinds = append(kinds, (<-events).Kind)
	}
	assert.Contains(t, kinds, progress.EventStoreChanged)
}

func TestReset_StoreFailure(t *testing.T) {
	f := newFixture(t, dec25)
	f.store.FailWrites(errors.New("disk full"))
	err := f.uc.Reset(context.Background())
	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
}

func TestNotConfigured(t *testing.T) {
	uc := NewService(nil, nil, nil, nil, nil, nil, nil)
	_, err := uc.Statuses(context.Background())
	assert.Error(t, err)
	_, err = uc.Submit(context.Background(), 1, []string{"x"})
	assert.Error(t, err)
	_, _, err = uc.Subscribe(1)
	assert.Error(t, err)
	assert.Error(t, uc.Reset(context.Background()))
}
