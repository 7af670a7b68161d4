package update

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskfloat/internal/config"
	"github.com/sandeepkv93/taskfloat/internal/engine"
	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/notify"
	"github.com/sandeepkv93/taskfloat/internal/scheduler"
	"github.com/sandeepkv93/taskfloat/internal/storage"
)

func newTestModel(t *testing.T) (Model, *engine.Engine) {
	t.Helper()
	store := storage.NewJSONFileStore(filepath.Join(t.TempDir(), "tasks.json"))
	eng := engine.New(store, scheduler.NewEngine(8), engine.Options{})
	if err := eng.Load(t.Context()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close(context.Background()) })
	return NewModel(eng, config.DefaultRuntimeConfig()), eng
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m
}

func send(m Model, msg tea.Msg) Model {
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestNewModelDefaults(t *testing.T) {
	m, _ := newTestModel(t)
	if m.Mode != ModeList {
		t.Fatalf("expected list mode, got %q", m.Mode)
	}
	if len(m.Rows) != 0 || m.SelectedID != "" {
		t.Fatalf("expected empty model, got %+v", m.Rows)
	}
	if !strings.Contains(m.View(), "no tasks yet") {
		t.Fatalf("expected empty hint in view:\n%s", m.View())
	}
}

func TestQuickAddWithKeyboard(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, "a", "Write report @25 !high #work", "enter")

	if m.Mode != ModeAdd {
		t.Fatalf("quick add must stay open, got %q", m.Mode)
	}
	if len(m.Rows) != 1 {
		t.Fatalf("expected one task, got %d", len(m.Rows))
	}
	task := m.Rows[0]
	if task.Title != "Write report" || task.Duration == nil || *task.Duration != 25 || task.Priority != model.PriorityHigh {
		t.Fatalf("unexpected task %+v", task)
	}
	if m.SelectedID != task.ID {
		t.Fatalf("new task should be selected")
	}
	if m.quickAddInput.Value() != "" {
		t.Fatalf("input must clear after add")
	}

	m = press(m, "esc")
	if m.Mode != ModeList {
		t.Fatalf("esc must leave quick add, got %q", m.Mode)
	}
}

func TestQuickAddTabCyclesDurationPresets(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, "a", "Stretch", "tab")
	if got := m.quickAddInput.Value(); got != "Stretch @15" {
		t.Fatalf("first tab should append the first preset, got %q", got)
	}
	m = press(m, "tab")
	if got := m.quickAddInput.Value(); got != "Stretch @25" {
		t.Fatalf("second tab should advance the preset, got %q", got)
	}
	m = press(m, "enter")
	if len(m.Rows) != 1 || m.Rows[0].Duration == nil || *m.Rows[0].Duration != 25 {
		t.Fatalf("expected a 25 minute task, got %+v", m.Rows)
	}
}

func TestCyclePreset(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "@15"},
		{"Read #books", "Read #books @15"},
		{"Read @20 !low", "Read @25 !low"},
		{"Read @90", "Read @15"},
		{"Read @200", "Read @15"},
	}
	for _, tc := range cases {
		if got := cyclePreset(tc.in); got != tc.want {
			t.Fatalf("cyclePreset(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuickAddRejectsBlankTitle(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, "a", "enter")
	if !m.Status.IsError || len(m.Rows) != 0 {
		t.Fatalf("expected error status and no task, got %+v", m.Status)
	}

	m = press(m, "<b></b>", "enter")
	if !m.Status.IsError || len(m.Rows) != 0 {
		t.Fatalf("markup-only title must be rejected, got %+v", m.Status)
	}
}

func TestTimerKeyStartsAndPauses(t *testing.T) {
	m, eng := newTestModel(t)
	task, err := eng.Add("Focus", model.IntPtr(25))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	m = send(m, EngineChangedMsg{})

	m = press(m, " ")
	if m.running != task.ID {
		t.Fatalf("expected %s running, got %q", task.ID, m.running)
	}
	if !strings.Contains(m.Status.Text, "started") {
		t.Fatalf("unexpected status %+v", m.Status)
	}
	m = press(m, " ")
	if m.running != "" {
		t.Fatalf("expected paused, still running %q", m.running)
	}
	got, _ := eng.Get(task.ID)
	if got.IsTimerRunning {
		t.Fatalf("engine must agree the timer is paused")
	}
}

func TestTimerKeyOnPlainTaskShowsError(t *testing.T) {
	m, eng := newTestModel(t)
	if _, err := eng.Add("Plain", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	m = send(m, EngineChangedMsg{})
	m = press(m, " ")
	if !m.Status.IsError || !errors.Is(m.LastError, engine.ErrNoTimer) {
		t.Fatalf("expected no-timer error, got %+v %v", m.Status, m.LastError)
	}
}

func TestDeleteAndUndo(t *testing.T) {
	m, eng := newTestModel(t)
	if _, err := eng.Add("Disposable", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	m = send(m, EngineChangedMsg{})

	m = press(m, "d")
	if len(m.Rows) != 0 {
		t.Fatalf("expected task deleted")
	}
	if !strings.Contains(m.Toast, "press u to undo (5s)") {
		t.Fatalf("expected undo toast with the time left, got %q", m.Toast)
	}
	m = press(m, "u")
	if len(m.Rows) != 1 || m.Toast != "" {
		t.Fatalf("expected task restored and toast cleared, rows=%d toast=%q", len(m.Rows), m.Toast)
	}
	m = press(m, "u")
	if m.Status.Text != "nothing to undo" {
		t.Fatalf("unexpected status %+v", m.Status)
	}
}

func TestFocusShowsOnlyRunningTask(t *testing.T) {
	m, eng := newTestModel(t)
	if _, err := eng.Add("alpha", model.IntPtr(10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	beta, err := eng.Add("beta", model.IntPtr(10))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := eng.StartTimer(beta.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	m = send(m, EngineChangedMsg{})

	m = press(m, "F")
	rows := m.visibleRows()
	if len(rows) != 1 || rows[0].ID != beta.ID || m.SelectedID != beta.ID {
		t.Fatalf("focus should keep only the running task, got %+v selected=%s", rows, m.SelectedID)
	}
	view := m.View()
	if strings.Contains(view, "alpha") || !strings.Contains(view, "focus: running task only") {
		t.Fatalf("unexpected focused view:\n%s", view)
	}

	m = press(m, " ")
	if len(m.visibleRows()) != 2 {
		t.Fatalf("focus shows every row once nothing runs, got %d", len(m.visibleRows()))
	}
	m = press(m, "F")
	if m.Focus || m.Status.Text != "focus off" {
		t.Fatalf("second F should leave focus, got focus=%v status=%+v", m.Focus, m.Status)
	}
}

func TestToggleAndHideCompleted(t *testing.T) {
	m, eng := newTestModel(t)
	if _, err := eng.Add("First", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := eng.Add("Second", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	m = send(m, EngineChangedMsg{})

	m = press(m, "x")
	if m.Stats.Completed != 1 {
		t.Fatalf("expected one completed, got %+v", m.Stats)
	}
	if m.Rows[len(m.Rows)-1].Title != "First" {
		t.Fatalf("completed task must sort last, got %+v", m.Rows)
	}
	m = press(m, "c")
	if strings.Contains(m.renderTaskList(), "First") {
		t.Fatalf("completed section should be hidden")
	}
	m = press(m, "C")
	if m.Stats.Total != 1 {
		t.Fatalf("expected completed tasks cleared, got %+v", m.Stats)
	}
}

func TestPinPriorityAndReorderKeys(t *testing.T) {
	m, eng := newTestModel(t)
	a, _ := eng.Add("A", nil)
	b, _ := eng.Add("B", nil)
	m = send(m, EngineChangedMsg{})

	m = press(m, "J")
	snapshot := eng.Snapshot()
	if snapshot[0].ID != b.ID || snapshot[1].ID != a.ID {
		t.Fatalf("expected A moved below B, got %+v", snapshot)
	}

	m = press(m, "P")
	got, _ := eng.Get(a.ID)
	if got.Priority != model.PriorityHigh {
		t.Fatalf("expected high priority, got %q", got.Priority)
	}
	m = press(m, "p")
	got, _ = eng.Get(a.ID)
	if !got.Pinned || m.Rows[0].ID != a.ID {
		t.Fatalf("pinned task must sort first, got %+v", m.Rows)
	}
}

func TestPaletteCommands(t *testing.T) {
	m, eng := newTestModel(t)
	m = press(m, "/", "add Tea 5m #home", "enter")
	if m.Mode != ModeList || len(m.Rows) != 1 {
		t.Fatalf("expected palette add, mode=%s rows=%d status=%+v", m.Mode, len(m.Rows), m.Status)
	}
	id := m.Rows[0].ID

	m = press(m, "/", "prio 1 low", "enter")
	m = press(m, "/", "rename 1 Green tea", "enter")
	m = press(m, "/", "time 1 none", "enter")
	got, _ := eng.Get(id)
	if got.Priority != model.PriorityLow || got.Title != "Green tea" || got.HasTimer() {
		t.Fatalf("unexpected task after edits: %+v", got)
	}

	m = press(m, "/", "time 1 1h", "enter")
	got, _ = eng.Get(id)
	if got.Duration == nil || *got.Duration != 60 {
		t.Fatalf("expected 60 minute timer, got %+v", got)
	}

	m = press(m, "/", "bogus", "enter")
	if !m.Status.IsError {
		t.Fatalf("expected error status for unknown command")
	}
	m = press(m, "/", "done 9", "enter")
	if !m.Status.IsError {
		t.Fatalf("expected error for missing row")
	}
}

func TestSearchFiltersRows(t *testing.T) {
	m, eng := newTestModel(t)
	_, _ = eng.Add("Write report", nil)
	_, _ = eng.Add("Email Bob", nil)
	m = send(m, EngineChangedMsg{})

	m = press(m, "f", "REP")
	if len(m.Rows) != 1 || m.Rows[0].Title != "Write report" {
		t.Fatalf("expected filtered rows, got %+v", m.Rows)
	}
	m = press(m, "enter")
	if m.Mode != ModeList || m.Query != "REP" {
		t.Fatalf("enter must keep the filter, mode=%s query=%q", m.Mode, m.Query)
	}
	m = press(m, "esc")
	if m.Query != "" || len(m.Rows) != 2 {
		t.Fatalf("esc must clear the filter, got %q rows=%d", m.Query, len(m.Rows))
	}
}

func TestConfirmPromptAnswers(t *testing.T) {
	m, _ := newTestModel(t)
	first := make(chan bool, 1)
	second := make(chan bool, 1)

	m = send(m, ConfirmRequestMsg{Title: notify.ContinueTitle, Body: "Start B?", Reply: first})
	m = send(m, ConfirmRequestMsg{Title: notify.ContinueTitle, Body: "Start C?", Reply: second})
	if m.Mode != ModeConfirm {
		t.Fatalf("expected confirm mode, got %s", m.Mode)
	}
	if !strings.Contains(m.View(), "Start B?") {
		t.Fatalf("expected prompt in view")
	}

	m = press(m, "y")
	if got := <-first; !got {
		t.Fatalf("expected yes")
	}
	if m.Mode != ModeConfirm || !strings.Contains(m.View(), "Start C?") {
		t.Fatalf("queued prompt should open next")
	}
	m = press(m, "n")
	if got := <-second; got {
		t.Fatalf("expected no")
	}
	if m.Mode != ModeList {
		t.Fatalf("expected list mode after last prompt, got %s", m.Mode)
	}
}

func TestQuitDeclinesOpenPrompt(t *testing.T) {
	m, _ := newTestModel(t)
	reply := make(chan bool, 1)
	m = send(m, ConfirmRequestMsg{Title: "Continue?", Reply: reply})

	updated, cmd := m.Update(keyMsg("ctrl+c"))
	next := updated.(Model)
	if !next.Quitting || cmd == nil {
		t.Fatalf("expected quit")
	}
	select {
	case got := <-reply:
		if got {
			t.Fatalf("quit must decline")
		}
	default:
		t.Fatalf("prompt left unanswered")
	}
}

func TestEngineEventsReachStatus(t *testing.T) {
	m, _ := newTestModel(t)
	m = send(m, EngineEventMsg{Event: engine.Event{Kind: engine.EventTimerCompleted, Title: "Tea"}})
	if !strings.Contains(m.Status.Text, "Completed: Tea") {
		t.Fatalf("unexpected status %+v", m.Status)
	}
	m = send(m, EngineEventMsg{Event: engine.Event{Kind: engine.EventPersistFailed, Err: errors.New("disk full")}})
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "disk full") {
		t.Fatalf("expected persist error status, got %+v", m.Status)
	}
	last := m.Notifications[len(m.Notifications)-1]
	if last.Level != "error" {
		t.Fatalf("expected error notification, got %+v", last)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m, _ := newTestModel(t)
	m = send(m, SetStatusMsg{Text: "ready"})
	if m.Status.Text != "ready" || m.Status.IsError {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	m = send(m, AppErrorMsg{Err: errors.New("boom")})
	if m.LastError == nil || !m.Status.IsError || m.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", m.Status)
	}
	m = send(m, ClearStatusMsg{})
	if m.Status.Text != "" {
		t.Fatalf("expected cleared status, got: %+v", m.Status)
	}
}

func TestViewShowsRunningTimerAndHelp(t *testing.T) {
	m, eng := newTestModel(t)
	task, _ := eng.Add("Deep work", model.IntPtr(30))
	if err := eng.StartTimer(task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	m = send(m, EngineChangedMsg{})
	view := m.View()
	for _, want := range []string{"Deep work", "30:00", "taskfloat"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
	m = press(m, "?")
	if !strings.Contains(m.View(), "help (list)") {
		t.Fatalf("expected help panel")
	}
}

func TestBridgeConfirm(t *testing.T) {
	b := NewBridge()
	ok, err := b.Confirm(t.Context(), "t", "b")
	if ok || err != nil {
		t.Fatalf("unattached bridge must answer no, got %v %v", ok, err)
	}

	b.Attach(func(msg tea.Msg) {
		if req, isReq := msg.(ConfirmRequestMsg); isReq {
			req.Reply <- true
		}
	})
	ok, err = b.Confirm(t.Context(), "t", "b")
	if !ok || err != nil {
		t.Fatalf("expected yes, got %v %v", ok, err)
	}

	b.Attach(func(tea.Msg) {})
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	if _, err := b.Confirm(ctx, "t", "b"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestBridgeReport(t *testing.T) {
	got := make(chan tea.Msg, 1)
	b := NewBridge()
	b.Report(errors.New("ignored before attach"))
	b.Attach(func(msg tea.Msg) { got <- msg })
	b.Report(nil)
	b.Report(errors.New("load failed"))
	select {
	case msg := <-got:
		appErr, ok := msg.(AppErrorMsg)
		if !ok || appErr.Err == nil || appErr.Err.Error() != "load failed" {
			t.Fatalf("unexpected message %#v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("report was not posted")
	}
}
