package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/taskfloat/internal/views"
)

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Add       key.Binding
	Search    key.Binding
	Palette   key.Binding
	Toggle    key.Binding
	Timer     key.Binding
	Reset     key.Binding
	Delete    key.Binding
	Undo      key.Binding
	Pin       key.Binding
	Priority  key.Binding
	ClearDone key.Binding
	HideDone  key.Binding
	Focus     key.Binding
	Escape    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "previous task")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "next task")),
		MoveUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move task up")),
		MoveDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move task down")),
		Add:       key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "quick add")),
		Search:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "find")),
		Palette:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command palette")),
		Toggle:    key.NewBinding(key.WithKeys("x", "enter"), key.WithHelp("x", "toggle done")),
		Timer:     key.NewBinding(key.WithKeys(" ", "s"), key.WithHelp("space", "start/pause timer")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset timer")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Undo:      key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo delete")),
		Pin:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
		Priority:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "cycle priority")),
		ClearDone: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear completed")),
		HideDone:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "show/hide completed")),
		Focus:     key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "focus running task")),
		Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Timer, k.Toggle, k.Delete, k.Undo, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown},
		{k.Add, k.Search, k.Palette, k.Escape},
		{k.Toggle, k.Timer, k.Reset, k.Delete, k.Undo},
		{k.Pin, k.Priority, k.ClearDone, k.HideDone, k.Focus, k.Help, k.Quit},
	}
}

type KeyBinding struct {
	Key    string
	Action string
}

// paletteBindings documents the command palette, which has no key bindings.
func paletteBindings() []KeyBinding {
	return []KeyBinding{
		{Key: "add <title> [@25|25m] [!prio] [#tag]", Action: "add a task"},
		{Key: "start|pause|reset|done|rm|pin <n>", Action: "act on row n or an id"},
		{Key: "prio <n> high|medium|low|none", Action: "set priority"},
		{Key: "tag <n> <tags>", Action: "replace tags"},
		{Key: "rename <n> <title>", Action: "change title"},
		{Key: "time <n> <minutes|none>", Action: "set or remove the timer"},
		{Key: "move <n> <m>", Action: "move row n to row m"},
		{Key: "find [query]", Action: "filter, empty clears"},
		{Key: "undo | clear", Action: "restore delete, drop completed"},
	}
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	var plain []string
	for _, kb := range paletteBindings() {
		plain = append(plain, fmt.Sprintf("- `%s`: %s", kb.Key, kb.Action))
	}
	h := m.helpModel
	h.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		Mode:     string(m.Mode),
		Bindings: []string{views.RenderMarkdown("**palette**\n\n" + joinLines(plain))},
		HelpView: h.View(m.keys),
	})
}
