package engine

import (
	"fmt"
	"time"

	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/notify"
	"github.com/sandeepkv93/taskfloat/internal/scheduler"
	"github.com/sandeepkv93/taskfloat/internal/validation"
)

// StartTimer begins or resumes the countdown for id. Any other running
// countdown is paused first. Starting the running task is a no-op.
func (e *Engine) StartTimer(id string) error {
	id, err := validation.ID(id)
	if err != nil {
		return err
	}
	if err := e.lockOpen(); err != nil {
		return err
	}
	task, ok := e.list.Get(id)
	switch {
	case !ok:
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	case !task.HasTimer():
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoTimer, id)
	case task.Remaining() <= 0:
		e.mu.Unlock()
		return fmt.Errorf("%w: %s has finished, reset it first", ErrInvalidTransition, id)
	case e.timer != nil && e.timer.taskID == id:
		e.mu.Unlock()
		return nil
	}

	e.stopSessionLocked()
	e.list.Each(func(t *model.Task) { t.IsTimerRunning = t.ID == id })
	if err := e.armLocked(id); err != nil {
		_ = e.list.Mutate(id, func(t *model.Task) { t.IsTimerRunning = false })
		e.mu.Unlock()
		return fmt.Errorf("engine: start %s: %w", id, err)
	}
	e.persistLocked()
	e.mu.Unlock()

	e.changed()
	return nil
}

// PauseTimer freezes the countdown for id. Pausing a task that is not
// running does nothing.
func (e *Engine) PauseTimer(id string) error {
	id, err := validation.ID(id)
	if err != nil {
		return err
	}
	if err := e.lockOpen(); err != nil {
		return err
	}
	task, ok := e.list.Get(id)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	live := e.timer != nil && e.timer.taskID == id
	if !live && !task.IsTimerRunning {
		e.mu.Unlock()
		return nil
	}
	if live {
		e.stopSessionLocked()
	} else {
		_ = e.list.Mutate(id, func(t *model.Task) { t.IsTimerRunning = false })
	}
	e.persistLocked()
	e.mu.Unlock()

	e.changed()
	return nil
}

// ResetTimer stops the countdown for id and refills it to the full duration.
func (e *Engine) ResetTimer(id string) error {
	id, err := validation.ID(id)
	if err != nil {
		return err
	}
	if err := e.lockOpen(); err != nil {
		return err
	}
	task, ok := e.list.Get(id)
	switch {
	case !ok:
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	case !task.HasTimer():
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoTimer, id)
	}
	if e.timer != nil && e.timer.taskID == id {
		e.stopSessionLocked()
	}
	_ = e.list.Mutate(id, func(t *model.Task) {
		t.TimeRemaining = model.IntPtr(t.TotalSeconds())
		t.IsTimerRunning = false
	})
	e.persistLocked()
	e.mu.Unlock()

	e.changed()
	return nil
}

func tickEventID(taskID string, gen uint64) string {
	return fmt.Sprintf("tick:%s:%d", taskID, gen)
}

// armLocked opens a new countdown session for id and schedules its first
// tick one second out. Ticks from earlier sessions no longer match.
func (e *Engine) armLocked(id string) error {
	e.gen++
	s := &session{
		taskID:  id,
		eventID: tickEventID(id, e.gen),
		next:    e.opts.Now().Add(time.Second),
	}
	if err := e.scheduleTick(s); err != nil {
		return err
	}
	e.timer = s
	return nil
}

func (e *Engine) scheduleTick(s *session) error {
	return e.sched.Schedule(scheduler.Event{
		ID:        s.eventID,
		Kind:      scheduler.KindTick,
		TaskID:    s.taskID,
		TriggerAt: s.next,
	})
}

// stopSessionLocked cancels the live countdown and clears its running flag.
func (e *Engine) stopSessionLocked() {
	if e.timer == nil {
		return
	}
	e.sched.Cancel(e.timer.eventID)
	_ = e.list.Mutate(e.timer.taskID, func(t *model.Task) { t.IsTimerRunning = false })
	e.timer = nil
}

func (e *Engine) tick(ev scheduler.Event) {
	e.mu.Lock()
	s := e.timer
	if e.closed || s == nil || s.eventID != ev.ID || s.taskID != ev.TaskID {
		e.mu.Unlock()
		return
	}
	pos := e.list.Index(s.taskID)
	if pos < 0 {
		e.timer = nil
		e.mu.Unlock()
		return
	}
	task := e.list.At(pos)
	if !task.HasTimer() || task.Remaining() <= 0 {
		e.stopSessionLocked()
		e.persistLocked()
		e.mu.Unlock()
		e.changed()
		return
	}

	remaining := task.Remaining() - 1
	_ = e.list.Mutate(s.taskID, func(t *model.Task) {
		t.TimeRemaining = model.IntPtr(remaining)
		if remaining == 0 {
			t.IsTimerRunning = false
			t.Completed = true
		}
	})

	if remaining == 0 {
		e.timer = nil
		done := e.completeLocked(task)
		e.mu.Unlock()
		e.onTick(task.ID, 0)
		e.announce(done)
		return
	}

	if remaining%e.opts.SaveEveryTicks == 0 {
		e.persistLocked()
	}
	s.next = s.next.Add(time.Second)
	if err := e.scheduleTick(s); err != nil {
		e.logger.Printf("engine: cannot schedule tick for %q, pausing: %v", s.taskID, err)
		e.stopSessionLocked()
		e.persistLocked()
	}
	e.mu.Unlock()

	e.onTick(task.ID, remaining)
}

// completion is what a countdown reaching zero leaves for the side
// effects that run after the lock is released.
type completion struct {
	task     model.Task
	next     model.Task
	found    bool
	offer    bool
	allTasks bool
}

// completeLocked finishes the zero tick inside the same turn: the task is
// already marked complete, so no other call can observe a finished timer
// on an active task.
func (e *Engine) completeLocked(task model.Task) completion {
	e.persistLocked()
	next, found := e.list.NextTimed(e.list.Index(task.ID))
	stats := e.list.Stats()
	c := completion{
		task:     task,
		next:     next,
		found:    found,
		offer:    found && !e.closed,
		allTasks: stats.Total > 0 && stats.Active == 0,
	}
	if c.offer {
		e.prompts.Add(1)
	}
	return c
}

// announce runs the completion side effects in order: sound, change and
// event hooks, notification, then the offer of the next timed task.
func (e *Engine) announce(c completion) {
	if err := e.opts.Sound.Play(); err != nil {
		e.logger.Printf("engine: completion sound: %v", err)
	}

	e.changed()
	e.emit(Event{Kind: EventTimerCompleted, TaskID: c.task.ID, Title: c.task.Title})
	if c.allTasks {
		e.emit(Event{Kind: EventAllTasksDone})
	}

	if err := e.opts.Notifier.Notify(notify.TimerCompleteTitle, notify.CompletedBody(c.task.Title)); err != nil {
		e.logger.Printf("engine: notify: %v", err)
	}

	if !c.found {
		if err := e.opts.Notifier.Notify(notify.AllDoneTitle, notify.AllDoneBody); err != nil {
			e.logger.Printf("engine: notify: %v", err)
		}
		e.emit(Event{Kind: EventAllTimersDone})
		return
	}
	if c.offer {
		go e.offerNext(c.next)
	}
}

// offerNext asks whether to continue with next and, on yes, schedules
// its start after the auto-advance delay.
func (e *Engine) offerNext(next model.Task) {
	defer e.prompts.Done()
	ok, err := e.opts.Confirmer.Confirm(e.ctx, notify.ContinueTitle, notify.ContinueBody(next.Title))
	if err != nil {
		e.logger.Printf("engine: continue prompt: %v", err)
		return
	}
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	err = e.sched.Schedule(scheduler.Event{
		ID:        "advance:" + next.ID,
		Kind:      scheduler.KindAutoAdvance,
		TaskID:    next.ID,
		TriggerAt: e.opts.Now().Add(e.opts.AutoAdvanceDelay),
	})
	if err != nil {
		e.logger.Printf("engine: cannot schedule auto-advance to %q: %v", next.ID, err)
	}
}

func (e *Engine) autoAdvance(ev scheduler.Event) {
	if id, busy := e.Running(); busy {
		e.logger.Printf("engine: skipping auto-advance to %q, %q is running", ev.TaskID, id)
		return
	}
	if err := e.StartTimer(ev.TaskID); err != nil {
		e.logger.Printf("engine: auto-advance to %q: %v", ev.TaskID, err)
		return
	}
	task, _ := e.Get(ev.TaskID)
	e.emit(Event{Kind: EventAutoAdvance, TaskID: task.ID, Title: task.Title})
}

func (e *Engine) onTick(id string, remaining int) {
	if e.opts.Hooks.OnTick != nil {
		e.opts.Hooks.OnTick(id, remaining)
	}
}

// lockOpen takes the lock, failing once the engine is closed.
func (e *Engine) lockOpen() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	return nil
}
