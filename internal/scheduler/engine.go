// Package scheduler delivers one-shot deadlines (timer ticks, undo expiry,
// auto-advance) on a channel. Each deadline has an ID; scheduling an ID
// that is already queued moves it instead of adding a second entry.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrMissingID          = errors.New("scheduler: event id is required")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

type Kind string

const (
	KindTick        Kind = "tick"
	KindUndoExpire  Kind = "undo_expire"
	KindAutoAdvance Kind = "auto_advance"
)

type Event struct {
	ID        string
	Kind      Kind
	TaskID    string
	TriggerAt time.Time
}

type entry struct {
	ev    Event
	seq   uint64
	index int
}

// deadlines is a min-heap on TriggerAt; equal times fire in schedule order.
type deadlines []*entry

func (d deadlines) Len() int { return len(d) }

func (d deadlines) Less(i, j int) bool {
	a, b := d[i], d[j]
	if a.ev.TriggerAt.Equal(b.ev.TriggerAt) {
		return a.seq < b.seq
	}
	return a.ev.TriggerAt.Before(b.ev.TriggerAt)
}

func (d deadlines) Swap(i, j int) {
	d[i], d[j] = d[j], d[i]
	d[i].index = i
	d[j].index = j
}

func (d *deadlines) Push(x any) {
	it := x.(*entry)
	it.index = len(*d)
	*d = append(*d, it)
}

func (d *deadlines) Pop() any {
	old := *d
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*d = old[:n-1]
	return it
}

// Engine owns a goroutine that sleeps until the earliest deadline. Due
// events are sent on C() and the send blocks until the consumer takes
// them, so a slow consumer delays later deadlines but never loses one.
type Engine struct {
	mu      sync.Mutex
	queue   deadlines
	byID    map[string]*entry
	seq     uint64
	out     chan Event
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		byID:   make(map[string]*entry),
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Event {
	return e.out
}

// Start launches the delivery loop. Events scheduled earlier are kept.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	go e.loop()
}

// Stop ends delivery and closes C(). It is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	started := e.started
	close(e.stopCh)
	e.mu.Unlock()
	if started {
		<-e.doneCh
	}
}

func (e *Engine) Schedule(ev Event) error {
	if ev.ID == "" {
		return ErrMissingID
	}
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	e.seq++
	if it, ok := e.byID[ev.ID]; ok {
		it.ev = ev
		it.seq = e.seq
		heap.Fix(&e.queue, it.index)
	} else {
		it := &entry{ev: ev, seq: e.seq}
		heap.Push(&e.queue, it)
		e.byID[ev.ID] = it
	}
	e.signalWakeup()
	return nil
}

// Cancel removes a queued event and reports whether it was still pending.
// An event already handed to C() cannot be recalled; consumers must
// tolerate stale deliveries.
func (e *Engine) Cancel(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, ok := e.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, it.index)
	delete(e.byID, id)
	e.signalWakeup()
	return true
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		next, ok := e.peek()
		if !ok {
			timer.Stop()
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		timer.Reset(max(time.Until(next), 0))
		select {
		case <-timer.C:
			for _, ev := range e.popDue(time.Now()) {
				select {
				case e.out <- ev:
				case <-e.stopCh:
					return
				}
			}
		case <-e.wakeup:
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].ev.TriggerAt, true
}

func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []Event
	for len(e.queue) > 0 && !e.queue[0].ev.TriggerAt.After(now) {
		it := heap.Pop(&e.queue).(*entry)
		delete(e.byID, it.ev.ID)
		due = append(due, it.ev)
	}
	return due
}
