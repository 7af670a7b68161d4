package update

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/taskfloat/internal/config"
	"github.com/sandeepkv93/taskfloat/internal/engine"
	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/tasks"
)

type Mode string

const (
	ModeList    Mode = "list"
	ModeAdd     Mode = "add"
	ModeSearch  Mode = "search"
	ModePalette Mode = "palette"
	ModeConfirm Mode = "confirm"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type pendingConfirm struct {
	Title string
	Body  string
	Reply chan<- bool
}

type Model struct {
	Mode          Mode
	Rows          []model.Task
	Stats         tasks.Stats
	SelectedID    string
	Query         string
	HideCompleted bool
	// Focus narrows the list to the running task while one runs.
	Focus         bool
	HelpVisible   bool
	Status        StatusBar
	Notifications []Notification
	Toast         string
	Quitting      bool
	LastError     error

	engine  *engine.Engine
	cfg     config.RuntimeConfig
	keys    keyMap
	confirm *pendingConfirm
	// Prompts that arrived while another was open.
	confirmQueue []pendingConfirm
	running      string
	width        int

	quickAddInput textinput.Model
	searchInput   textinput.Model
	commandInput  textinput.Model
	timerProgress progress.Model
	runSpinner    spinner.Model
	helpModel     help.Model
	spinnerActive bool
}

func NewModel(eng *engine.Engine, cfg config.RuntimeConfig) Model {
	m := Model{
		Mode:   ModeList,
		engine: eng,
		cfg:    cfg,
		keys:   defaultKeyMap(),
	}
	m.initBubbleComponents()
	m.refresh()
	return m
}

func (m *Model) initBubbleComponents() {
	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "add> "
	m.quickAddInput.Placeholder = "title @25 !high #tag (tab: duration)"
	m.quickAddInput.CharLimit = model.MaxTitleLength + 64
	m.quickAddInput.Width = 48

	m.searchInput = textinput.New()
	m.searchInput.Prompt = "find> "
	m.searchInput.CharLimit = 128
	m.searchInput.Width = 32

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.timerProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))

	m.runSpinner = spinner.New()
	m.runSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

// refresh re-reads the engine and keeps the selection on the same task
// when it is still visible.
func (m *Model) refresh() {
	if m.engine == nil {
		return
	}
	rows := m.engine.View(m.Query)
	m.Rows = rows
	m.Stats = m.engine.Stats()
	m.running, _ = m.engine.Running()

	if len(rows) == 0 {
		m.SelectedID = ""
		return
	}
	if m.focused() {
		m.SelectedID = m.running
		return
	}
	if m.indexOf(m.SelectedID) < 0 {
		m.SelectedID = rows[0].ID
	}
}

func (m Model) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, row := range m.Rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) selected() (model.Task, bool) {
	i := m.indexOf(m.SelectedID)
	if i < 0 {
		return model.Task{}, false
	}
	return m.Rows[i], true
}

func (m *Model) moveCursor(delta int) {
	visible := m.visibleRows()
	if len(visible) == 0 {
		return
	}
	pos := 0
	for i, row := range visible {
		if row.ID == m.SelectedID {
			pos = i
			break
		}
	}
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos >= len(visible) {
		pos = len(visible) - 1
	}
	m.SelectedID = visible[pos].ID
}

// visibleRows is Rows minus the completed section when it is collapsed,
// or only the running task in focus mode.
func (m Model) visibleRows() []model.Task {
	if m.focused() {
		for _, row := range m.Rows {
			if row.ID == m.running {
				return []model.Task{row}
			}
		}
	}
	if !m.HideCompleted {
		return m.Rows
	}
	return tasks.Active(m.Rows)
}

func (m Model) focused() bool {
	return m.Focus && m.running != ""
}

func (m *Model) notify(title, body, level string) {
	if body == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now(),
	})
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
}

func (m *Model) setStatus(text string, err error) {
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return
	}
	m.Status = StatusBar{Text: text}
}
