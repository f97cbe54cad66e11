// Package arrival derives the check-in state of an assigned task from its
// stored fields, the accepted offer's ETA and the current time.
package arrival

import (
	"time"

	"github.com/taskey/taskey-api/internal/models"
)

type State string

const (
	StateAwaitingETA           State = "AWAITING_ETA"
	StateWindowOpen            State = "WINDOW_OPEN"
	StateWindowExpired         State = "WINDOW_EXPIRED_NO_REQUEST"
	StateLateRequested         State = "LATE_REQUESTED"
	StateCheckedInAwaitConfirm State = "CHECKED_IN_AWAITING_CONFIRM"
	StateConfirmed             State = "CONFIRMED"
)

// Snapshot is the presentation view of the arrival handshake at one instant.
type Snapshot struct {
	State            State     `json:"state"`
	EtaAt            time.Time `json:"eta_at"`
	WindowEnd        time.Time `json:"check_in_window_end"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	LateSeconds      int64     `json:"late_seconds"`
	LateStartSeconds *int64    `json:"late_start_seconds,omitempty"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

// WindowEnd is the last instant at which a check-in is accepted.
func WindowEnd(etaAt time.Time, window time.Duration) time.Time {
	return etaAt.Add(window)
}

// Derive returns the arrival state. The window bounds are inclusive on both
// ends: a check-in exactly at etaAt+window is still inside.
func Derive(task *models.Task, etaAt, now time.Time, window time.Duration) State {
	switch {
	case task.CheckinConfirmedAt != nil:
		return StateConfirmed
	case task.HelperCheckInTime != nil:
		return StateCheckedInAwaitConfirm
	case task.LateStartStatus == models.LateStartRequested:
		return StateLateRequested
	case now.Before(etaAt):
		return StateAwaitingETA
	case !now.After(WindowEnd(etaAt, window)):
		return StateWindowOpen
	}
	return StateWindowExpired
}

// Remaining is the time left in the check-in window, never negative.
func Remaining(windowEnd, now time.Time) time.Duration {
	if d := windowEnd.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Lateness is how far past the window end now is, never negative.
func Lateness(windowEnd, now time.Time) time.Duration {
	if d := now.Sub(windowEnd); d > 0 {
		return d
	}
	return 0
}

// LateSeconds truncates a lateness to whole seconds for persistence.
func LateSeconds(windowEnd, now time.Time) int64 {
	return int64(Lateness(windowEnd, now) / time.Second)
}

// Evaluate builds the full snapshot for task at now.
func Evaluate(task *models.Task, etaAt, now time.Time, window time.Duration) Snapshot {
	end := WindowEnd(etaAt, window)
	return Snapshot{
		State:            Derive(task, etaAt, now, window),
		EtaAt:            etaAt,
		WindowEnd:        end,
		RemainingSeconds: int64(Remaining(end, now) / time.Second),
		LateSeconds:      LateSeconds(end, now),
		LateStartSeconds: task.LateStartSeconds,
		EvaluatedAt:      now,
	}
}
