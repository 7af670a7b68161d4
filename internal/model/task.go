package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrTimerInvariant  = errors.New("model: timer fields violate invariant")
)

const (
	MaxTasks           = 1000
	MaxTitleLength     = 500
	MaxDurationMinutes = 1440
	MaxTimeSeconds     = 86400
	MaxTags            = 20
	MaxTagLength       = 40

	SecondsPerMinute        = 60
	WarningThresholdSeconds = 300
)

// DurationPresets are the minute values offered by the quick-add picker.
var DurationPresets = []int{15, 25, 30, 45, 60, 90}

type Priority string

const (
	PriorityNone   Priority = ""
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNone, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank orders priorities for sorting; lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

type TimerState string

const (
	TimerNone      TimerState = "none"
	TimerIdle      TimerState = "idle"
	TimerRunning   TimerState = "running"
	TimerPaused    TimerState = "paused"
	TimerCompleted TimerState = "completed"
)

// Task is a single user-entered work item. Duration is in minutes and
// TimeRemaining in seconds; both are nil when no timer is attached.
type Task struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"createdAt"`
	Duration       *int      `json:"duration,omitempty"`
	TimeRemaining  *int      `json:"timeRemaining,omitempty"`
	IsTimerRunning bool      `json:"isTimerRunning,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	Pinned         bool      `json:"pinned,omitempty"`
	Priority       Priority  `json:"priority,omitempty"`
}

func (t Task) HasTimer() bool {
	return t.Duration != nil
}

// TotalSeconds is the full countdown length, or zero without a timer.
func (t Task) TotalSeconds() int {
	if t.Duration == nil {
		return 0
	}
	return *t.Duration * SecondsPerMinute
}

func (t Task) Remaining() int {
	if t.TimeRemaining == nil {
		return 0
	}
	return *t.TimeRemaining
}

func (t Task) TimerState() TimerState {
	switch {
	case t.Duration == nil:
		return TimerNone
	case t.IsTimerRunning:
		return TimerRunning
	case t.Remaining() == 0:
		return TimerCompleted
	case t.Remaining() == t.TotalSeconds():
		return TimerIdle
	default:
		return TimerPaused
	}
}

// InWarning reports whether a timer is in its final stretch.
func (t Task) InWarning(threshold int) bool {
	r := t.Remaining()
	return t.HasTimer() && r > 0 && r <= threshold
}

// Progress is the fraction of the countdown still remaining, in [0,1].
func (t Task) Progress() float64 {
	total := t.TotalSeconds()
	if total == 0 {
		return 0
	}
	return float64(t.Remaining()) / float64(total)
}

// Clone returns a deep copy so snapshots never alias live list storage.
func (t Task) Clone() Task {
	out := t
	if t.Duration != nil {
		d := *t.Duration
		out.Duration = &d
	}
	if t.TimeRemaining != nil {
		r := *t.TimeRemaining
		out.TimeRemaining = &r
	}
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	return out
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if (t.Duration == nil) != (t.TimeRemaining == nil) {
		return fmt.Errorf("%w: duration and time remaining must be set together", ErrTimerInvariant)
	}
	if t.Duration != nil {
		if *t.Duration <= 0 {
			return fmt.Errorf("%w: duration must be positive", ErrTimerInvariant)
		}
		if r := *t.TimeRemaining; r < 0 || r > t.TotalSeconds() {
			return fmt.Errorf("%w: time remaining %d outside [0,%d]", ErrTimerInvariant, r, t.TotalSeconds())
		}
	}
	if t.IsTimerRunning && t.Remaining() <= 0 {
		return fmt.Errorf("%w: running timer needs time remaining", ErrTimerInvariant)
	}
	return nil
}

func IntPtr(v int) *int {
	return &v
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/SecondsPerMinute, seconds%SecondsPerMinute)
}
