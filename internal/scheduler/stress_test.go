package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestConcurrentScheduleCancelDeliversExactlyTheSurvivors(t *testing.T) {
	engine := NewEngine(16)
	engine.Start()
	defer engine.Stop()

	const workers = 8
	const perWorker = 200

	now := time.Now()
	var wg sync.WaitGroup
	var mu sync.Mutex
	cancelled := make(map[string]bool)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("tick:w%d:%d", w, i)
				ev := Event{
					ID:        id,
					Kind:      KindTick,
					TaskID:    fmt.Sprintf("w%d", w),
					TriggerAt: now.Add(time.Duration((w+i)%50+30) * time.Millisecond),
				}
				if err := engine.Schedule(ev); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
				if i%4 == 0 && engine.Cancel(id) {
					mu.Lock()
					cancelled[id] = true
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	want := workers*perWorker - len(cancelled)
	seen := make(map[string]bool, want)
	deadline := time.After(5 * time.Second)
	for len(seen) < want {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting events: received=%d want=%d", len(seen), want)
		case ev := <-engine.C():
			if cancelled[ev.ID] {
				t.Fatalf("cancelled event %s was delivered", ev.ID)
			}
			if seen[ev.ID] {
				t.Fatalf("event %s delivered twice", ev.ID)
			}
			seen[ev.ID] = true
		}
	}
	if engine.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", engine.Pending())
	}
}
