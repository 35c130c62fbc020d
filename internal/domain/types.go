package domain

import (
	"fmt"
	"time"
)

// PuzzleCount is the fixed number of calendar slots.
const PuzzleCount = 5

// CompletedSentinel is the stored value that marks a puzzle as solved.
const CompletedSentinel = "true"

// AnswerSeparator joins multi-blank answer snapshots. Values are not escaped.
const AnswerSeparator = "|"

// Ordinal identifies a puzzle slot, 1..PuzzleCount.
type Ordinal int

// Valid reports whether o names one of the fixed puzzle slots.
func (o Ordinal) Valid() bool { return o >= 1 && o <= PuzzleCount }

// Ordinals lists every puzzle slot in order.
func Ordinals() []Ordinal {
	out := make([]Ordinal, 0, PuzzleCount)
	for i := 1; i <= PuzzleCount; i++ {
		out = append(out, Ordinal(i))
	}
	return out
}

// PuzzleKeys names the storage keys used for one puzzle.
type PuzzleKeys struct {
	Completed string
	Guesses   string
	Answers   string
}

// KeyTable maps each ordinal to its storage keys.
type KeyTable map[Ordinal]PuzzleKeys

// DefaultKeys returns the flat key layout used by the mobile app:
// puzzle{n}_completed, puzzle{n}_guesses and puzzle{n}_completed_answers.
func DefaultKeys() KeyTable {
	t := make(KeyTable, PuzzleCount)
	for _, o := range Ordinals() {
		completed := fmt.Sprintf("puzzle%d_completed", o)
		t[o] = PuzzleKeys{
			Completed: completed,
			Guesses:   fmt.Sprintf("puzzle%d_guesses", o),
			Answers:   completed + "_answers",
		}
	}
	return t
}

// All returns every key in the table, in ordinal order.
func (t KeyTable) All() []string {
	out := make([]string, 0, len(t)*3)
	for _, o := range Ordinals() {
		k, ok := t[o]
		if !ok {
			continue
		}
		out = append(out, k.Completed, k.Guesses, k.Answers)
	}
	return out
}

// Calendar fixes the unlock day of every puzzle: ordinal n unlocks on day n
// of Month in Year, in Location.
type Calendar struct {
	Year     int
	Month    time.Month
	Location *time.Location
}

// DefaultCalendar is the build-time unlock calendar.
func DefaultCalendar() Calendar {
	return Calendar{Year: 2025, Month: time.December, Location: time.Local}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// UnlockDate returns local midnight of the puzzle's unlock day.
func (c Calendar) UnlockDate(o Ordinal) time.Time {
	return time.Date(c.Year, c.Month, int(o), 0, 0, 0, 0, c.loc())
}

// Day strips the time of day from t in the calendar's location.
func (c Calendar) Day(t time.Time) time.Time {
	t = t.In(c.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc())
}

// PuzzleStatus is a point-in-time view of one puzzle.
type PuzzleStatus struct {
	Ordinal    Ordinal    `json:"ordinal"`
	UnlockDate time.Time  `json:"unlockDate"`
	Unlocked   bool       `json:"unlocked"`
	Completed  bool       `json:"completed"`
	Guesses    int        `json:"guesses"`
	LockReason LockReason `json:"lockReason"`
	State      State      `json:"state"`
}

// DeriveState folds the gate results into a state machine position.
// A completed puzzle stays completed whatever the gates say now.
func DeriveState(completed bool, reason LockReason) State {
	switch {
	case completed:
		return StateCompleted
	case reason == LockDateNotReached:
		return StateLockedDate
	case reason == LockPreviousIncomplete:
		return StateLockedPrevious
	default:
		return StateUnlocked
	}
}

// Puzzle is one catalog entry: what the player must enter to solve a slot.
type Puzzle struct {
	Ordinal     Ordinal `yaml:"ordinal" json:"ordinal"`
	Title       string  `yaml:"title" json:"title"`
	Prompt      string  `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Blanks      []Blank `yaml:"blanks" json:"blanks"`
	KeepAnswers bool    `yaml:"keep_answers,omitempty" json:"keepAnswers,omitempty"`
}

// Blank is a single input of a puzzle and its accepted literals.
type Blank struct {
	Label  string   `yaml:"label,omitempty" json:"label,omitempty"`
	Accept []string `yaml:"accept" json:"-"`
}

// SubmitResult reports the outcome of one submission attempt.
type SubmitResult struct {
	Correct bool         `json:"correct"`
	Blanks  []bool       `json:"blanks"`
	Guesses int          `json:"guesses"`
	Status  PuzzleStatus `json:"status"`
}
