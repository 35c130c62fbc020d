package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeys(t *testing.T) {
	k := DefaultKeys()
	require.Len(t, k, PuzzleCount)
	assert.Equal(t, PuzzleKeys{
		Completed: "puzzle3_completed",
		Guesses:   "puzzle3_guesses",
		Answers:   "puzzle3_completed_answers",
	}, k[3])

	all := k.All()
	assert.Len(t, all, 3*PuzzleCount)
	assert.Equal(t, "puzzle1_completed", all[0])
	assert.Equal(t, "puzzle5_completed_answers", all[len(all)-1])
}

func TestCalendar(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	c := Calendar{Year: 2025, Month: time.December, Location: loc}
	assert.Equal(t, time.Date(2025, time.December, 4, 0, 0, 0, 0, loc), c.UnlockDate(4))

	// 03:00 UTC on the 5th is still the 4th eight hours west.
	d := c.Day(time.Date(2025, time.December, 5, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, 4, d.Day())

	var zero Calendar
	zero.Year, zero.Month = 2025, time.December
	assert.Equal(t, time.Local, zero.UnlockDate(1).Location())
}

func TestDeriveState(t *testing.T) {
	assert.Equal(t, StateCompleted, DeriveState(true, LockDateNotReached))
	assert.Equal(t, StateLockedDate, DeriveState(false, LockDateNotReached))
	assert.Equal(t, StateLockedPrevious, DeriveState(false, LockPreviousIncomplete))
	assert.Equal(t, StateUnlocked, DeriveState(false, LockNone))
}

func TestEnumsMarshalAsText(t *testing.T) {
	b, err := json.Marshal(PuzzleStatus{Ordinal: 2, LockReason: LockPreviousIncomplete, State: StateLockedPrevious})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"lockReason":"previous_incomplete"`)
	assert.Contains(t, string(b), `"state":"locked_previous"`)
}

func TestBlankAcceptNotSerialized(t *testing.T) {
	b, err := json.Marshal(Blank{Label: "4", Accept: []string{"Islamabad"}})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "Islamabad")
}

func TestErrors(t *testing.T) {
	err := &LockedError{Ordinal: 2, Reason: LockDateNotReached}
	assert.ErrorIs(t, err, ErrLocked)

	inner := errors.New("io")
	serr := &StorageError{Op: OpWrite, Key: "puzzle1_guesses", Err: inner}
	assert.ErrorIs(t, serr, inner)
	assert.Contains(t, serr.Error(), "puzzle1_guesses")
}

func TestEnumsTextRoundTrip(t *testing.T) {
	for _, r := range []LockReason{LockNone, LockDateNotReached, LockPreviousIncomplete} {
		b, err := r.MarshalText()
		require.NoError(t, err)
		var got LockReason
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, r, got)
	}
	for _, s := range []State{StateLockedDate, StateLockedPrevious, StateUnlocked, StateCompleted} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got State
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}

	var r LockReason
	assert.Error(t, r.UnmarshalText([]byte("unknown")))
	var s State
	assert.Error(t, s.UnmarshalText([]byte("open")))
}
