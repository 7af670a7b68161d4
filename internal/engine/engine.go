package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/notify"
	"github.com/sandeepkv93/taskfloat/internal/scheduler"
	"github.com/sandeepkv93/taskfloat/internal/storage"
	"github.com/sandeepkv93/taskfloat/internal/tasks"
)

var (
	ErrNotFound          = tasks.ErrNotFound
	ErrCapacity          = tasks.ErrCapacity
	ErrNoTimer           = errors.New("engine: task has no timer")
	ErrInvalidTransition = errors.New("engine: invalid timer transition")
	ErrClosed            = errors.New("engine: closed")
)

// Scheduler delivers one-shot deadlines back to Dispatch.
// *scheduler.Engine satisfies it.
type Scheduler interface {
	Schedule(ev scheduler.Event) error
	Cancel(id string) bool
}

type Notifier interface {
	Notify(title, body string) error
}

type Sound interface {
	Play() error
}

// Confirmer asks the user a yes/no question. It may block until answered.
type Confirmer interface {
	Confirm(ctx context.Context, title, body string) (bool, error)
}

type EventKind string

const (
	EventTimerCompleted EventKind = "timer_completed"
	EventAutoAdvance    EventKind = "auto_advance"
	EventAllTimersDone  EventKind = "all_timers_done"
	EventAllTasksDone   EventKind = "all_tasks_done"
	EventDeleted        EventKind = "deleted"
	EventRestored       EventKind = "restored"
	EventUndoExpired    EventKind = "undo_expired"
	EventPersistFailed  EventKind = "persist_failed"
)

type Event struct {
	Kind   EventKind
	TaskID string
	Title  string
	Err    error
}

// Hooks let a presentation layer observe the engine. They are called
// outside the engine lock, on the goroutine that caused the change.
type Hooks struct {
	OnChange func()
	OnTick   func(taskID string, remaining int)
	OnEvent  func(Event)
}

type Options struct {
	MaxTasks         int
	UndoWindow       time.Duration
	AutoAdvanceDelay time.Duration
	// SaveEveryTicks persists a running countdown whenever the remaining
	// seconds are a multiple of it.
	SaveEveryTicks int
	Logger         *log.Logger
	Notifier       Notifier
	Sound          Sound
	Confirmer      Confirmer
	Hooks          Hooks
	Now            func() time.Time
	NewID          func() string
}

func (o Options) withDefaults() Options {
	if o.MaxTasks <= 0 {
		o.MaxTasks = model.MaxTasks
	}
	if o.UndoWindow <= 0 {
		o.UndoWindow = 5 * time.Second
	}
	if o.AutoAdvanceDelay < 0 {
		o.AutoAdvanceDelay = 0
	}
	if o.SaveEveryTicks <= 0 {
		o.SaveEveryTicks = 10
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	if o.Notifier == nil {
		o.Notifier = notify.Noop{}
	}
	if o.Sound == nil {
		o.Sound = notify.Noop{}
	}
	if o.Confirmer == nil {
		o.Confirmer = notify.AutoConfirm(false)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// session is the single live countdown.
type session struct {
	taskID  string
	eventID string
	next    time.Time
}

// Engine owns the task list and is its only mutation point. Every public
// method is safe for concurrent use; mutations are serialized by mu.
type Engine struct {
	opts      Options
	logger    *log.Logger
	sched     Scheduler
	persister *Persister

	mu      sync.Mutex
	list    *tasks.List
	timer   *session
	gen     uint64
	undo    undoSlot
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	prompts sync.WaitGroup
}

func New(store storage.Store, sched Scheduler, opts Options) *Engine {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:   opts,
		logger: opts.Logger,
		sched:  sched,
		list:   tasks.NewList(nil, opts.MaxTasks),
		ctx:    ctx,
		cancel: cancel,
	}
	retry := time.Duration(opts.SaveEveryTicks) * time.Second
	e.persister = NewPersister(store, opts.Logger, retry, func(err error) {
		e.emit(Event{Kind: EventPersistFailed, Err: err})
	})
	return e
}

// Load replaces the in-memory list with the stored one. Unreadable data
// leaves an empty list; the error is logged and returned for display but
// the engine is usable either way. A running timer found in storage is
// resumed, and any extra running flags are cleared.
func (e *Engine) Load(ctx context.Context) error {
	raw, loadErr := e.persister.store.Load(ctx)
	if loadErr != nil {
		e.logger.Printf("engine: load failed, starting empty: %v", loadErr)
		raw = nil
	}

	now := e.opts.Now()
	clean := make([]model.Task, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		task, err := sanitize(item, now)
		if err != nil {
			e.logger.Printf("engine: dropping stored task %q: %v", item.ID, err)
			continue
		}
		if _, dup := seen[task.ID]; dup {
			e.logger.Printf("engine: dropping duplicate stored task %q", task.ID)
			continue
		}
		if len(clean) >= e.opts.MaxTasks {
			e.logger.Printf("engine: stored list exceeds %d tasks, truncating", e.opts.MaxTasks)
			break
		}
		seen[task.ID] = struct{}{}
		clean = append(clean, task)
	}

	e.mu.Lock()
	e.stopSessionLocked()
	e.list = tasks.NewList(clean, e.opts.MaxTasks)
	running := e.list.Running()
	repaired := false
	for i, id := range running {
		if i == 0 {
			continue
		}
		_ = e.list.Mutate(id, func(t *model.Task) { t.IsTimerRunning = false })
		e.logger.Printf("engine: paused %q, only one timer may run", id)
		repaired = true
	}
	if len(running) > 0 {
		if err := e.armLocked(running[0]); err != nil {
			e.logger.Printf("engine: cannot resume %q: %v", running[0], err)
			_ = e.list.Mutate(running[0], func(t *model.Task) { t.IsTimerRunning = false })
		}
		repaired = true
	}
	if repaired || len(clean) != len(raw) {
		e.persistLocked()
	}
	e.mu.Unlock()

	e.changed()
	if loadErr != nil {
		return fmt.Errorf("engine: load: %w", loadErr)
	}
	return nil
}

// Start launches the background writer. Without it, Flush must be called
// to reach the store.
func (e *Engine) Start(ctx context.Context) {
	e.persister.Start(ctx)
}

func (e *Engine) Flush(ctx context.Context) error {
	return e.persister.Flush(ctx)
}

// Run feeds scheduler deadlines into Dispatch until ctx ends or events closes.
func (e *Engine) Run(ctx context.Context, events <-chan scheduler.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.Dispatch(ev)
		}
	}
}

// Dispatch handles one delivered deadline. Stale deliveries are ignored.
func (e *Engine) Dispatch(ev scheduler.Event) {
	switch ev.Kind {
	case scheduler.KindTick:
		e.tick(ev)
	case scheduler.KindUndoExpire:
		e.expireUndo(ev)
	case scheduler.KindAutoAdvance:
		e.autoAdvance(ev)
	default:
		e.logger.Printf("engine: ignoring event %q of kind %q", ev.ID, ev.Kind)
	}
}

// Wait blocks until pending continue prompts have been answered.
func (e *Engine) Wait() {
	e.prompts.Wait()
}

// Close stops the countdown without clearing its running flag, so the
// next Load resumes it, then writes the latest state.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.timer != nil {
		e.sched.Cancel(e.timer.eventID)
		e.timer = nil
	}
	if e.undo.eventID != "" {
		e.sched.Cancel(e.undo.eventID)
	}
	e.mu.Unlock()

	e.cancel()
	e.prompts.Wait()
	return e.persister.Stop(ctx)
}

func (e *Engine) Snapshot() []model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.Snapshot()
}

func (e *Engine) Get(id string) (model.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.Get(id)
}

// View returns the display order: filtered by query, then sorted.
func (e *Engine) View(query string) []model.Task {
	return tasks.Sorted(tasks.Filter(e.Snapshot(), query))
}

func (e *Engine) Active() []model.Task {
	return tasks.Active(e.Snapshot())
}

func (e *Engine) Completed() []model.Task {
	return tasks.Completed(e.Snapshot())
}

func (e *Engine) Stats() tasks.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.Stats()
}

// Running returns the id of the task whose countdown is live.
func (e *Engine) Running() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer == nil {
		return "", false
	}
	return e.timer.taskID, true
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list.Len()
}

// persistLocked queues the current list for writing.
func (e *Engine) persistLocked() {
	e.persister.Request(e.list.Snapshot())
}

func (e *Engine) changed() {
	if e.opts.Hooks.OnChange != nil {
		e.opts.Hooks.OnChange()
	}
}

func (e *Engine) emit(ev Event) {
	if e.opts.Hooks.OnEvent != nil {
		e.opts.Hooks.OnEvent(ev)
	}
}
