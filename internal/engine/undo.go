package engine

import (
	"fmt"
	"time"

	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/scheduler"
)

// undoSlot holds the most recently deleted task. A new deletion replaces it.
type undoSlot struct {
	task     model.Task
	has      bool
	deadline time.Time
	eventID  string
}

func (e *Engine) recordDeletionLocked(task model.Task) {
	e.clearUndoLocked()
	e.gen++
	e.undo = undoSlot{
		task:     task.Clone(),
		has:      true,
		deadline: e.opts.Now().Add(e.opts.UndoWindow),
		eventID:  fmt.Sprintf("undo:%d", e.gen),
	}
	err := e.sched.Schedule(scheduler.Event{
		ID:        e.undo.eventID,
		Kind:      scheduler.KindUndoExpire,
		TaskID:    task.ID,
		TriggerAt: e.undo.deadline,
	})
	if err != nil {
		e.logger.Printf("engine: cannot schedule undo expiry: %v", err)
	}
}

func (e *Engine) clearUndoLocked() {
	if e.undo.eventID != "" {
		e.sched.Cancel(e.undo.eventID)
	}
	e.undo = undoSlot{}
}

// Undoable reports the task that Restore would bring back and how long
// the offer stays open.
func (e *Engine) Undoable() (model.Task, time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	left := e.undo.deadline.Sub(e.opts.Now())
	if !e.undo.has || left <= 0 {
		return model.Task{}, 0, false
	}
	return e.undo.task.Clone(), left, true
}

// Restore re-inserts the last deleted task at the end of the list if the
// undo window is still open. A task that was counting down when deleted
// resumes counting down.
func (e *Engine) Restore() (model.Task, bool, error) {
	if err := e.lockOpen(); err != nil {
		return model.Task{}, false, err
	}
	if !e.undo.has {
		e.mu.Unlock()
		return model.Task{}, false, nil
	}
	if !e.opts.Now().Before(e.undo.deadline) {
		e.clearUndoLocked()
		e.mu.Unlock()
		return model.Task{}, false, nil
	}

	task := e.undo.task.Clone()
	resume := task.IsTimerRunning && !task.Completed && task.Remaining() > 0
	task.IsTimerRunning = false
	if err := e.list.Append(task); err != nil {
		e.mu.Unlock()
		return model.Task{}, false, err
	}
	e.clearUndoLocked()

	if resume {
		e.stopSessionLocked()
		_ = e.list.Mutate(task.ID, func(t *model.Task) { t.IsTimerRunning = true })
		if err := e.armLocked(task.ID); err != nil {
			e.logger.Printf("engine: cannot resume restored %q: %v", task.ID, err)
			_ = e.list.Mutate(task.ID, func(t *model.Task) { t.IsTimerRunning = false })
		}
	}
	e.persistLocked()
	restored, _ := e.list.Get(task.ID)
	e.mu.Unlock()

	e.changed()
	e.emit(Event{Kind: EventRestored, TaskID: restored.ID, Title: restored.Title})
	return restored, true, nil
}

func (e *Engine) expireUndo(ev scheduler.Event) {
	e.mu.Lock()
	if !e.undo.has || e.undo.eventID != ev.ID {
		e.mu.Unlock()
		return
	}
	task := e.undo.task
	e.undo = undoSlot{}
	e.mu.Unlock()

	e.emit(Event{Kind: EventUndoExpired, TaskID: task.ID, Title: task.Title})
}
