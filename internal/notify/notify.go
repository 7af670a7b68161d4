// Package notify implements the notification side of the widget: desktop
// notifications, the audible completion cue and non-interactive confirmers.
package notify

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

const (
	TimerCompleteTitle = "Timer Complete"
	AllDoneTitle       = "All Done!"
	AllDoneBody        = "No more tasks with timers. Great work!"
	ContinueTitle      = "Continue to next task?"
)

func CompletedBody(title string) string {
	return fmt.Sprintf("Completed: %s", title)
}

func ContinueBody(title string) string {
	return fmt.Sprintf("Start timer for %q?", title)
}

type Noop struct{}

func (Noop) Notify(string, string) error { return nil }

func (Noop) Play() error { return nil }

// Desktop shells out to the platform notifier.
type Desktop struct {
	run func(name string, args ...string) error
}

func NewDesktop() *Desktop {
	return &Desktop{run: func(name string, args ...string) error {
		return exec.Command(name, args...).Run()
	}}
}

func (d *Desktop) Notify(title, body string) error {
	switch runtime.GOOS {
	case "linux":
		return d.run("notify-send", title, body)
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(body), escapeAppleScript(title))
		return d.run("osascript", "-e", script)
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Bell writes the terminal bell character as the completion cue.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

func (b *Bell) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.out, "\a")
	return err
}

// AutoConfirm answers every prompt with the same value. It backs
// non-interactive commands where nobody can answer.
type AutoConfirm bool

func (a AutoConfirm) Confirm(ctx context.Context, _, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(a), nil
}

// Recorder keeps every notification and forwards it to next. Tests use
// it to assert what the engine announced.
type Recorder struct {
	mu    sync.Mutex
	items []Message
	next  interface{ Notify(string, string) error }
}

type Message struct {
	Title string
	Body  string
}

// NewRecorder wraps next, which may be nil.
func NewRecorder(next interface{ Notify(string, string) error }) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Notify(title, body string) error {
	r.mu.Lock()
	r.items = append(r.items, Message{Title: title, Body: body})
	if len(r.items) > 20 {
		r.items = r.items[len(r.items)-20:]
	}
	next := r.next
	r.mu.Unlock()
	if next != nil {
		return next.Notify(title, body)
	}
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.items...)
}
