package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/notify"
	"github.com/sandeepkv93/taskfloat/internal/scheduler"
)

type fakeScheduler struct {
	mu     sync.Mutex
	events map[string]scheduler.Event
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{events: make(map[string]scheduler.Event)}
}

func (f *fakeScheduler) Schedule(ev scheduler.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeScheduler) Cancel(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.events[id]
	delete(f.events, id)
	return ok
}

func (f *fakeScheduler) pending(kind scheduler.Kind) []scheduler.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scheduler.Event, 0)
	for _, ev := range f.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out
}

// take removes and returns the earliest pending event of kind.
func (f *fakeScheduler) take(kind scheduler.Kind) (scheduler.Event, bool) {
	events := f.pending(kind)
	if len(events) == 0 {
		return scheduler.Event{}, false
	}
	f.Cancel(events[0].ID)
	return events[0], true
}

type memStore struct {
	mu      sync.Mutex
	tasks   []model.Task
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load(context.Context) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return []model.Task{}, m.loadErr
	}
	return cloneAll(m.tasks), nil
}

func (m *memStore) Save(_ context.Context, list []model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.tasks = cloneAll(list)
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) snapshot() ([]model.Task, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.tasks), m.saves
}

func cloneAll(list []model.Task) []model.Task {
	out := make([]model.Task, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingSound struct {
	mu    sync.Mutex
	plays int
}

func (s *countingSound) Play() error {
	s.mu.Lock()
	s.plays++
	s.mu.Unlock()
	return nil
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (l *eventLog) has(kind EventKind) bool {
	for _, k := range l.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

type harness struct {
	engine   *Engine
	sched    *fakeScheduler
	store    *memStore
	clock    *manualClock
	notifier *notify.Recorder
	sound    *countingSound
	events   *eventLog
}

func newHarness(t *testing.T, seed []model.Task, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		sched:    newFakeScheduler(),
		store:    &memStore{tasks: cloneAll(seed)},
		clock:    &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		notifier: notify.NewRecorder(nil),
		sound:    &countingSound{},
		events:   &eventLog{},
	}
	next := 0
	opts := Options{
		UndoWindow:       5 * time.Second,
		AutoAdvanceDelay: 2 * time.Second,
		SaveEveryTicks:   10,
		Notifier:         h.notifier,
		Sound:            h.sound,
		Now:              h.clock.Now,
		NewID: func() string {
			next++
			return fmt.Sprintf("task-%d", next)
		},
		Hooks: Hooks{OnEvent: h.events.add},
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.engine = New(h.store, h.sched, opts)
	if err := h.engine.Load(t.Context()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return h
}

// tick delivers n pending tick events, advancing the clock one second each.
func (h *harness) tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ev, ok := h.sched.take(scheduler.KindTick)
		if !ok {
			t.Fatalf("no tick pending after %d of %d", i, n)
		}
		h.clock.Advance(time.Second)
		h.engine.Dispatch(ev)
	}
}

func (h *harness) mustAdd(t *testing.T, title string, minutes int) model.Task {
	t.Helper()
	var d *int
	if minutes > 0 {
		d = model.IntPtr(minutes)
	}
	task, err := h.engine.Add(title, d)
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return task
}

func (h *harness) mustGet(t *testing.T, id string) model.Task {
	t.Helper()
	task, ok := h.engine.Get(id)
	if !ok {
		t.Fatalf("task %s not found", id)
	}
	return task
}

func (h *harness) assertSingleRunner(t *testing.T) {
	t.Helper()
	running := 0
	for _, task := range h.engine.Snapshot() {
		if task.IsTimerRunning {
			running++
		}
		if err := task.Validate(); err != nil {
			t.Fatalf("task %s breaks invariants: %v", task.ID, err)
		}
	}
	if running > 1 {
		t.Fatalf("expected at most one running timer, got %d", running)
	}
	if got := len(h.sched.pending(scheduler.KindTick)); got > 1 {
		t.Fatalf("expected at most one armed tick, got %d", got)
	}
}
