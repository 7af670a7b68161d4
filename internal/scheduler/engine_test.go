package scheduler

import (
	"fmt"
	"testing"
	"time"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(Event{ID: "later", Kind: KindTick, TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(Event{ID: "sooner", Kind: KindUndoExpire, TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitEvent(t, engine.C(), time.Second)
	second := waitEvent(t, engine.C(), time.Second)
	if first.ID != "sooner" || second.ID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ID, second.ID)
	}
}

func TestCancelPreventsDelivery(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(Event{ID: "tick:a", Kind: KindTick, TaskID: "a", TriggerAt: now.Add(30 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := engine.Schedule(Event{ID: "undo", Kind: KindUndoExpire, TriggerAt: now.Add(60 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !engine.Cancel("tick:a") {
		t.Fatal("expected pending event to be cancelled")
	}
	if engine.Cancel("tick:a") {
		t.Fatal("second cancel must report nothing pending")
	}

	got := waitEvent(t, engine.C(), time.Second)
	if got.ID != "undo" {
		t.Fatalf("expected only undo event, got %s", got.ID)
	}
}

func TestScheduleReplacesSameID(t *testing.T) {
	engine := NewEngine(8)
	now := time.Now()
	_ = engine.Schedule(Event{ID: "tick:a", TriggerAt: now.Add(time.Hour)})
	_ = engine.Schedule(Event{ID: "tick:a", TriggerAt: now.Add(2 * time.Hour)})
	if engine.Pending() != 1 {
		t.Fatalf("expected one pending event, got %d", engine.Pending())
	}
}

func TestRescheduleMovesDeadline(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	_ = engine.Schedule(Event{ID: "tick:a", Kind: KindTick, TriggerAt: now.Add(time.Hour)})
	_ = engine.Schedule(Event{ID: "undo", Kind: KindUndoExpire, TriggerAt: now.Add(60 * time.Millisecond)})
	_ = engine.Schedule(Event{ID: "tick:a", Kind: KindTick, TriggerAt: now.Add(10 * time.Millisecond)})

	first := waitEvent(t, engine.C(), time.Second)
	second := waitEvent(t, engine.C(), time.Second)
	if first.ID != "tick:a" || second.ID != "undo" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ID, second.ID)
	}
	if engine.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", engine.Pending())
	}
}

func TestSlowConsumerLosesNothing(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(10 * time.Millisecond)
	const n = 25
	for i := 0; i < n; i++ {
		if err := engine.Schedule(Event{ID: fmt.Sprintf("evt-%02d", i), Kind: KindTick, TriggerAt: at}); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < n; i++ {
		ev := waitEvent(t, engine.C(), time.Second)
		if want := fmt.Sprintf("evt-%02d", i); ev.ID != want {
			t.Fatalf("equal deadlines must keep schedule order: got %s want %s", ev.ID, want)
		}
	}
}

func TestStopReleasesBlockedDelivery(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	at := time.Now()
	_ = engine.Schedule(Event{ID: "a", TriggerAt: at})
	_ = engine.Schedule(Event{ID: "b", TriggerAt: at})
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		engine.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop hung on an unread event")
	}
	for range engine.C() {
	}
	engine.Stop()
}

func TestScheduleValidates(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(Event{ID: "bad"}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
	if err := engine.Schedule(Event{TriggerAt: time.Now()}); err != ErrMissingID {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	engine.Stop()
	if err := engine.Schedule(Event{ID: "late", TriggerAt: time.Now()}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func waitEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}
