package engine

import (
	"time"

	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/validation"
)

// sanitize pushes a persisted or imported record through the validation
// gates and repairs timer fields that cannot coexist.
func sanitize(raw model.Task, now time.Time) (model.Task, error) {
	id, err := validation.ID(raw.ID)
	if err != nil {
		return model.Task{}, err
	}
	title, err := validation.Title(raw.Title)
	if err != nil {
		return model.Task{}, err
	}
	duration, err := validation.Duration(raw.Duration)
	if err != nil {
		return model.Task{}, err
	}
	remaining, err := validation.TimeRemaining(raw.TimeRemaining)
	if err != nil {
		return model.Task{}, err
	}
	priority, err := validation.Priority(string(raw.Priority))
	if err != nil {
		return model.Task{}, err
	}
	tags, err := validation.Tags(raw.Tags)
	if err != nil {
		return model.Task{}, err
	}
	if len(tags) == 0 {
		tags = nil
	}

	out := model.Task{
		ID:             id,
		Title:          title,
		Completed:      raw.Completed,
		CreatedAt:      raw.CreatedAt,
		Duration:       duration,
		IsTimerRunning: raw.IsTimerRunning,
		Tags:           tags,
		Pinned:         raw.Pinned,
		Priority:       priority,
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	if duration == nil {
		out.IsTimerRunning = false
		return out, nil
	}
	total := *duration * model.SecondsPerMinute
	if remaining == nil || *remaining > total {
		remaining = model.IntPtr(total)
	}
	out.TimeRemaining = remaining
	if *remaining == 0 || out.Completed {
		out.IsTimerRunning = false
	}
	return out, nil
}
