package ports

import (
	"context"
	"time"

	"svw.info/advent/internal/domain"
)

// Store is the flat key-value persistence the progression engine reads and
// writes. A missing key is reported with found=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// UpdateFunc computes the next value of a key from its current one.
type UpdateFunc func(old string, found bool) (string, error)

// Updater is implemented by stores that can run a read-modify-write on one
// key without interleaving other writers.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) (string, error)
}

// Deleter is implemented by stores that support a storage reset.
type Deleter interface {
	Delete(ctx context.Context, keys ...string) error
}

// Clock supplies wall-clock time.
type Clock func() time.Time

// Progression is the unlock engine as seen by use cases and adapters. Every
// method is total: failures are logged and collapse to safe defaults.
type Progression interface {
	IsDateUnlocked(o domain.Ordinal) bool
	IsCompleted(ctx context.Context, o domain.Ordinal) bool
	IsUnlocked(ctx context.Context, o domain.Ordinal) bool
	LockReason(ctx context.Context, o domain.Ordinal) domain.LockReason
	GuessCount(ctx context.Context, o domain.Ordinal) int
	IncrementGuessCount(ctx context.Context, o domain.Ordinal) int
	MarkCompleted(ctx context.Context, o domain.Ordinal)
	SaveAnswers(ctx context.Context, o domain.Ordinal, answers []string)
	Answers(ctx context.Context, o domain.Ordinal) []string
	Status(ctx context.Context, o domain.Ordinal) domain.PuzzleStatus
	Statuses(ctx context.Context) []domain.PuzzleStatus
	NotifyStoreChanged()
}

// Matcher checks submitted inputs against a puzzle's accepted literals.
type Matcher interface {
	Match(p domain.Puzzle, inputs []string) (ok bool, blanks []bool)
}

// Catalog resolves puzzle definitions by ordinal.
type Catalog interface {
	Puzzle(o domain.Ordinal) (domain.Puzzle, bool)
}
