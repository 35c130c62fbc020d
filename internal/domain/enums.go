package domain

import "fmt"

// LockReason explains why a puzzle cannot be played yet.
type LockReason int

const (
	LockNone               LockReason = iota
	LockDateNotReached                // unlock day has not arrived
	LockPreviousIncomplete            // predecessor not completed
)

func (r LockReason) String() string {
	switch r {
	case LockNone:
		return "none"
	case LockDateNotReached:
		return "date_not_reached"
	case LockPreviousIncomplete:
		return "previous_incomplete"
	default:
		return "unknown"
	}
}

// MarshalText renders the reason in its snake_case form for JSON.
func (r LockReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *LockReason) UnmarshalText(b []byte) error {
	for _, v := range []LockReason{LockNone, LockDateNotReached, LockPreviousIncomplete} {
		if v.String() == string(b) {
			*r = v
			return nil
		}
	}
	return fmt.Errorf("unknown lock reason %q", b)
}

// State is the per-puzzle position in the progression state machine.
type State int

const (
	StateLockedDate State = iota
	StateLockedPrevious
	StateUnlocked
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateLockedDate:
		return "locked_date"
	case StateLockedPrevious:
		return "locked_previous"
	case StateUnlocked:
		return "unlocked"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for _, v := range []State{StateLockedDate, StateLockedPrevious, StateUnlocked, StateCompleted} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}
