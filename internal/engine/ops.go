package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/tasks"
	"github.com/sandeepkv93/taskfloat/internal/validation"
)

type AddOption func(*model.Task) error

func WithPriority(raw string) AddOption {
	return func(t *model.Task) error {
		p, err := validation.Priority(raw)
		if err != nil {
			return err
		}
		t.Priority = p
		return nil
	}
}

func WithTags(raw any) AddOption {
	return func(t *model.Task) error {
		tags, err := validation.Tags(raw)
		if err != nil {
			return err
		}
		if len(tags) > 0 {
			t.Tags = tags
		}
		return nil
	}
}

func WithPinned(pinned bool) AddOption {
	return func(t *model.Task) error {
		t.Pinned = pinned
		return nil
	}
}

// Add appends a new task. A non-nil duration attaches a full, idle timer.
func (e *Engine) Add(title string, duration *int, opts ...AddOption) (model.Task, error) {
	cleanTitle, err := validation.Title(title)
	if err != nil {
		return model.Task{}, err
	}
	cleanDuration, err := validation.Duration(duration)
	if err != nil {
		return model.Task{}, err
	}
	task := model.Task{
		Title:     cleanTitle,
		CreatedAt: e.opts.Now(),
		Duration:  cleanDuration,
	}
	if cleanDuration != nil {
		task.TimeRemaining = model.IntPtr(*cleanDuration * model.SecondsPerMinute)
	}
	for _, opt := range opts {
		if err := opt(&task); err != nil {
			return model.Task{}, err
		}
	}

	if err := e.lockOpen(); err != nil {
		return model.Task{}, err
	}
	task.ID = e.opts.NewID()
	if err := e.list.Append(task); err != nil {
		e.mu.Unlock()
		return model.Task{}, err
	}
	e.persistLocked()
	e.mu.Unlock()

	e.changed()
	return task.Clone(), nil
}

// Toggle flips the completed flag. Completing a task stops its countdown.
func (e *Engine) Toggle(id string) (model.Task, error) {
	id, err := validation.ID(id)
	if err != nil {
		return model.Task{}, err
	}
	if err := e.lockOpen(); err != nil {
		return model.Task{}, err
	}
	task, ok := e.list.Get(id)
	if !ok {
		e.mu.Unlock()
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !task.Completed && e.timer != nil && e.timer.taskID == id {
		e.stopSessionLocked()
	}
	_ = e.list.Mutate(id, func(t *model.Task) {
		t.Completed = !t.Completed
		if t.Completed {
			t.IsTimerRunning = false
		}
	})
	e.persistLocked()
	task, _ = e.list.Get(id)
	stats := e.list.Stats()
	e.mu.Unlock()

	e.changed()
	if task.Completed && stats.Active == 0 {
		e.emit(Event{Kind: EventAllTasksDone})
	}
	return task, nil
}

// Delete removes the task, stopping its countdown, and offers it for undo.
func (e *Engine) Delete(id string) (model.Task, error) {
	id, err := validation.ID(id)
	if err != nil {
		return model.Task{}, err
	}
	if err := e.lockOpen(); err != nil {
		return model.Task{}, err
	}
	if e.timer != nil && e.timer.taskID == id {
		e.sched.Cancel(e.timer.eventID)
		e.timer = nil
	}
	removed, err := e.list.Remove(id)
	if err != nil {
		e.mu.Unlock()
		return model.Task{}, err
	}
	e.recordDeletionLocked(removed)
	e.persistLocked()
	e.mu.Unlock()

	e.changed()
	e.emit(Event{Kind: EventDeleted, TaskID: removed.ID, Title: removed.Title})
	return removed, nil
}

var updatable = map[string]bool{
	"title":     true,
	"duration":  true,
	"completed": true,
	"tags":      true,
	"pinned":    true,
}

// Update applies the allow-listed fields of patch. Every field is
// validated before anything changes. A duration of nil removes the timer;
// a changed duration refills it. Other keys are ignored.
func (e *Engine) Update(id string, patch map[string]any) (model.Task, error) {
	id, err := validation.ID(id)
	if err != nil {
		return model.Task{}, err
	}

	var (
		title                 string
		duration              *int
		tags                  []string
		completed, pinned     bool
		hasTitle, hasDuration bool
		hasTags, hasCompleted bool
		hasPinned             bool
		ignored               []string
	)
	for key, raw := range patch {
		if !updatable[key] {
			ignored = append(ignored, key)
			continue
		}
		switch key {
		case "title":
			title, err = validation.Title(raw)
			hasTitle = true
		case "duration":
			duration, err = validation.Duration(raw)
			hasDuration = true
		case "completed":
			completed, err = validation.Bool(key, raw)
			hasCompleted = true
		case "tags":
			tags, err = validation.Tags(raw)
			hasTags = true
		case "pinned":
			pinned, err = validation.Bool(key, raw)
			hasPinned = true
		}
		if err != nil {
			return model.Task{}, err
		}
	}
	if len(ignored) > 0 {
		sort.Strings(ignored)
		e.logger.Printf("engine: update %s ignoring fields %v", id, ignored)
	}

	if err := e.lockOpen(); err != nil {
		return model.Task{}, err
	}
	current, ok := e.list.Get(id)
	if !ok {
		e.mu.Unlock()
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	live := e.timer != nil && e.timer.taskID == id
	durationChanged := hasDuration && !sameDuration(current.Duration, duration)
	if live && (durationChanged || (hasCompleted && completed)) {
		e.stopSessionLocked()
	}
	_ = e.list.Mutate(id, func(t *model.Task) {
		if hasTitle {
			t.Title = title
		}
		if durationChanged {
			t.Duration = duration
			t.IsTimerRunning = false
			if duration == nil {
				t.TimeRemaining = nil
			} else {
				t.TimeRemaining = model.IntPtr(*duration * model.SecondsPerMinute)
			}
		}
		if hasCompleted {
			t.Completed = completed
			if completed {
				t.IsTimerRunning = false
			}
		}
		if hasTags {
			if len(tags) == 0 {
				tags = nil
			}
			t.Tags = tags
		}
		if hasPinned {
			t.Pinned = pinned
		}
	})
	e.persistLocked()
	updated, _ := e.list.Get(id)
	e.mu.Unlock()

	e.changed()
	return updated, nil
}

func sameDuration(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Reorder moves dragged to target's position. Unknown ids, or dragging a
// task onto itself, leave the order untouched.
func (e *Engine) Reorder(draggedID, targetID string) bool {
	if err := e.lockOpen(); err != nil {
		return false
	}
	moved := e.list.Move(draggedID, targetID)
	if moved {
		e.persistLocked()
	}
	e.mu.Unlock()

	if moved {
		e.changed()
	}
	return moved
}

func (e *Engine) TogglePin(id string) (model.Task, error) {
	return e.edit(id, func(t *model.Task) { t.Pinned = !t.Pinned })
}

func (e *Engine) SetPriority(id, raw string) (model.Task, error) {
	p, err := validation.Priority(raw)
	if err != nil {
		return model.Task{}, err
	}
	return e.edit(id, func(t *model.Task) { t.Priority = p })
}

func (e *Engine) edit(id string, fn func(*model.Task)) (model.Task, error) {
	id, err := validation.ID(id)
	if err != nil {
		return model.Task{}, err
	}
	if err := e.lockOpen(); err != nil {
		return model.Task{}, err
	}
	if err := e.list.Mutate(id, fn); err != nil {
		e.mu.Unlock()
		return model.Task{}, err
	}
	e.persistLocked()
	task, _ := e.list.Get(id)
	e.mu.Unlock()

	e.changed()
	return task, nil
}

// ClearCompleted removes every completed task and returns how many went.
func (e *Engine) ClearCompleted() int {
	if err := e.lockOpen(); err != nil {
		return 0
	}
	if e.timer != nil {
		if t, ok := e.list.Get(e.timer.taskID); ok && t.Completed {
			e.stopSessionLocked()
		}
	}
	removed := e.list.RemoveWhere(func(t model.Task) bool { return t.Completed })
	if len(removed) > 0 {
		e.persistLocked()
	}
	e.mu.Unlock()

	if len(removed) > 0 {
		e.changed()
	}
	return len(removed)
}

type ImportResult struct {
	Added   int
	Skipped int
}

// Import merges tasks into the list. Records that fail validation or whose
// id already exists are skipped; imported timers arrive paused. Reaching
// the task limit stops the import with ErrCapacity.
func (e *Engine) Import(items []model.Task) (ImportResult, error) {
	var res ImportResult
	if err := e.lockOpen(); err != nil {
		return res, err
	}
	now := e.opts.Now()
	var stopErr error
	for _, raw := range items {
		task, err := sanitize(raw, now)
		if err != nil {
			e.logger.Printf("engine: import skipping %q: %v", raw.ID, err)
			res.Skipped++
			continue
		}
		task.IsTimerRunning = false
		if err := e.list.Append(task); err != nil {
			if errors.Is(err, tasks.ErrCapacity) {
				stopErr = err
				break
			}
			res.Skipped++
			continue
		}
		res.Added++
	}
	if res.Added > 0 {
		e.persistLocked()
	}
	e.mu.Unlock()

	if res.Added > 0 {
		e.changed()
	}
	return res, stopErr
}
