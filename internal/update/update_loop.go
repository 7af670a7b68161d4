package update

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskfloat/internal/commands"
	"github.com/sandeepkv93/taskfloat/internal/engine"
	"github.com/sandeepkv93/taskfloat/internal/notify"
	"github.com/sandeepkv93/taskfloat/internal/views"
)

type EngineChangedMsg struct{}

type EngineEventMsg struct {
	Event engine.Event
}

type ConfirmRequestMsg struct {
	Title string
	Body  string
	Reply chan<- bool
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return EngineChangedMsg{} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.timerProgress.Width = views.PaneWidth(typed.Width) - 4
		return m, nil
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.Mode {
		case ModeConfirm:
			return m.handleConfirmKey(typed)
		case ModeAdd:
			return m.handleAddKey(typed)
		case ModeSearch:
			return m.handleSearchKey(typed)
		case ModePalette:
			return m.handlePaletteKey(typed)
		}
		return m.handleListKey(typed)
	case spinner.TickMsg:
		if m.running == "" {
			m.spinnerActive = false
			return m, nil
		}
		var cmd tea.Cmd
		m.runSpinner, cmd = m.runSpinner.Update(typed)
		return m, cmd
	case EngineChangedMsg:
		m.refresh()
		return m, m.ensureSpinner()
	case EngineEventMsg:
		m.applyEvent(typed.Event)
		m.refresh()
		return m, m.ensureSpinner()
	case ConfirmRequestMsg:
		pc := pendingConfirm{Title: typed.Title, Body: typed.Body, Reply: typed.Reply}
		if m.confirm != nil {
			m.confirmQueue = append(m.confirmQueue, pc)
			return m, nil
		}
		m.openConfirm(pc)
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m.quit()
	case key.Matches(msg, k.Help):
		m.HelpVisible = !m.HelpVisible
	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
	case key.Matches(msg, k.MoveUp):
		m.reorderSelected(-1)
	case key.Matches(msg, k.MoveDown):
		m.reorderSelected(1)
	case key.Matches(msg, k.Add):
		m.Mode = ModeAdd
		m.quickAddInput.SetValue("")
		return m, m.quickAddInput.Focus()
	case key.Matches(msg, k.Search):
		m.Mode = ModeSearch
		m.searchInput.SetValue(m.Query)
		return m, m.searchInput.Focus()
	case key.Matches(msg, k.Palette):
		m.Mode = ModePalette
		m.commandInput.SetValue("")
		m.Status = StatusBar{Text: "command palette active"}
		return m, m.commandInput.Focus()
	case key.Matches(msg, k.Escape):
		if m.Query != "" {
			m.Query = ""
			m.Status = StatusBar{Text: "filter cleared"}
		}
	case key.Matches(msg, k.HideDone):
		m.HideCompleted = !m.HideCompleted
		if sel, ok := m.selected(); ok && sel.Completed && m.HideCompleted {
			m.SelectedID = ""
		}
	case key.Matches(msg, k.Focus):
		m.Focus = !m.Focus
		switch {
		case !m.Focus:
			m.setStatus("focus off", nil)
		case m.running == "":
			m.setStatus("focus on, waiting for a running timer", nil)
		default:
			m.setStatus("focus on", nil)
		}
	case key.Matches(msg, k.Undo):
		m.undo()
	case key.Matches(msg, k.ClearDone):
		n := m.engine.ClearCompleted()
		m.setStatus(fmt.Sprintf("cleared %d completed task(s)", n), nil)
	default:
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.actOnSelected(msg, task.ID)
	}
	m.refresh()
	return m, m.ensureSpinner()
}

func (m *Model) actOnSelected(msg tea.KeyMsg, id string) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Toggle):
		m.act(commands.TypeDone, id)
	case key.Matches(msg, k.Timer):
		if m.running == id {
			m.act(commands.TypePause, id)
		} else {
			m.act(commands.TypeStart, id)
		}
	case key.Matches(msg, k.Reset):
		m.act(commands.TypeReset, id)
	case key.Matches(msg, k.Delete):
		m.act(commands.TypeRemove, id)
	case key.Matches(msg, k.Pin):
		m.act(commands.TypePin, id)
	case key.Matches(msg, k.Priority):
		task, _ := m.selected()
		next := nextPriority(string(task.Priority))
		_, err := m.engine.SetPriority(id, next)
		if next == "" {
			next = "none"
		}
		m.setStatus("priority: "+next, err)
	}
}

func nextPriority(current string) string {
	switch current {
	case "":
		return "high"
	case "high":
		return "medium"
	case "medium":
		return "low"
	default:
		return ""
	}
}

func (m *Model) reorderSelected(delta int) {
	visible := m.visibleRows()
	for i, row := range visible {
		if row.ID != m.SelectedID {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(visible) {
			return
		}
		if m.engine.Reorder(row.ID, visible[j].ID) {
			m.setStatus("moved", nil)
		}
		return
	}
}

func (m *Model) undo() {
	task, ok, err := m.engine.Restore()
	switch {
	case err != nil:
		m.setStatus("", err)
	case !ok:
		m.setStatus("nothing to undo", nil)
	default:
		m.Toast = ""
		m.SelectedID = task.ID
		m.setStatus(fmt.Sprintf("restored: %s", task.Title), nil)
	}
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.answerConfirm(true)
	case "n", "N", "esc":
		m.answerConfirm(false)
	case "q":
		return m.quit()
	}
	return m, nil
}

func (m *Model) openConfirm(pc pendingConfirm) {
	m.confirm = &pc
	m.Mode = ModeConfirm
}

func (m *Model) answerConfirm(yes bool) {
	if m.confirm == nil {
		m.Mode = ModeList
		return
	}
	m.confirm.Reply <- yes
	m.confirm = nil
	if len(m.confirmQueue) > 0 {
		next := m.confirmQueue[0]
		m.confirmQueue = m.confirmQueue[1:]
		m.openConfirm(next)
		return
	}
	m.Mode = ModeList
}

// quit declines open prompts so the engine is not left waiting.
func (m Model) quit() (tea.Model, tea.Cmd) {
	for m.confirm != nil {
		m.answerConfirm(false)
	}
	m.Quitting = true
	return m, tea.Quit
}

func (m *Model) ensureSpinner() tea.Cmd {
	if m.running == "" || m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	return m.runSpinner.Tick
}

func (m *Model) applyEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventTimerCompleted:
		body := notify.CompletedBody(ev.Title)
		m.notify(notify.TimerCompleteTitle, body, "info")
		m.setStatus(body, nil)
	case engine.EventAllTimersDone:
		m.notify(notify.AllDoneTitle, notify.AllDoneBody, "info")
	case engine.EventAllTasksDone:
		m.setStatus("every task is complete", nil)
	case engine.EventAutoAdvance:
		m.setStatus(fmt.Sprintf("started next: %s", ev.Title), nil)
	case engine.EventDeleted:
		m.Toast = m.undoToast(ev.Title)
	case engine.EventRestored, engine.EventUndoExpired:
		m.Toast = ""
	case engine.EventPersistFailed:
		m.LastError = ev.Err
		m.Status = StatusBar{Text: fmt.Sprintf("save failed, will retry: %v", ev.Err), IsError: true}
		m.notify("Error", m.Status.Text, "error")
	}
}

// undoToast names the deleted task and how long u can still bring it back.
func (m Model) undoToast(title string) string {
	_, left, ok := m.engine.Undoable()
	if !ok {
		return fmt.Sprintf("deleted %q", title)
	}
	secs := int(math.Ceil(left.Seconds()))
	return fmt.Sprintf("deleted %q, press u to undo (%ds)", title, secs)
}
