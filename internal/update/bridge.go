package update

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskfloat/internal/engine"
)

// Bridge connects engine callbacks to a running tea.Program. The engine is
// built before the program exists, so the program is attached afterwards.
// Messages are posted from a new goroutine because engine hooks may run
// inside Update, where a blocking Send would deadlock.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *Bridge) post(msg tea.Msg) bool {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send == nil {
		return false
	}
	go send(msg)
	return true
}

func (b *Bridge) Hooks() engine.Hooks {
	return engine.Hooks{
		OnChange: func() { b.post(EngineChangedMsg{}) },
		OnTick:   func(string, int) { b.post(EngineChangedMsg{}) },
		OnEvent:  func(ev engine.Event) { b.post(EngineEventMsg{Event: ev}) },
	}
}

// Report surfaces an error that happened outside the program, such as a
// failed load at startup.
func (b *Bridge) Report(err error) {
	if err != nil {
		b.post(AppErrorMsg{Err: err})
	}
}

// Confirm shows a yes/no prompt in the TUI and waits for the answer.
// Without an attached program the answer is no.
func (b *Bridge) Confirm(ctx context.Context, title, body string) (bool, error) {
	reply := make(chan bool, 1)
	if !b.post(ConfirmRequestMsg{Title: title, Body: body, Reply: reply}) {
		return false, nil
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
