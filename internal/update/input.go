package update

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskfloat/internal/commands"
	"github.com/sandeepkv93/taskfloat/internal/model"
)

// handleAddKey keeps the quick-add field open after each task so several
// can be entered in a row; esc leaves.
func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Mode = ModeList
		m.quickAddInput.SetValue("")
		m.quickAddInput.Blur()
		return m, nil
	case "tab":
		m.quickAddInput.SetValue(cyclePreset(m.quickAddInput.Value()))
		m.quickAddInput.CursorEnd()
		return m, nil
	case "enter":
		args, err := commands.ParseQuickAdd(m.quickAddInput.Value())
		if err != nil {
			m.setStatus("", err)
			return m, nil
		}
		res, err := m.addTask(args)
		if err != nil {
			m.setStatus("", err)
			return m, nil
		}
		m.setStatus(res.Message, nil)
		m.quickAddInput.SetValue("")
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.quickAddInput, cmd = m.quickAddInput.Update(msg)
	return m, cmd
}

// cyclePreset swaps the @N duration token in a quick-add line for the
// next preset, appending the first preset when the line has none.
func cyclePreset(line string) string {
	presets := model.DurationPresets
	fields := strings.Fields(line)
	for i := len(fields) - 1; i >= 0; i-- {
		raw, ok := strings.CutPrefix(fields[i], "@")
		if !ok {
			continue
		}
		current, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		next := presets[0]
		for _, p := range presets {
			if p > current {
				next = p
				break
			}
		}
		fields[i] = "@" + strconv.Itoa(next)
		return strings.Join(fields, " ")
	}
	return strings.TrimSpace(line + " @" + strconv.Itoa(presets[0]))
}

// handleSearchKey filters as the user types. Enter keeps the filter,
// esc drops it.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Mode = ModeList
		m.Query = ""
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.refresh()
		return m, nil
	case "enter":
		m.Mode = ModeList
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.Query = m.searchInput.Value()
	m.refresh()
	return m, cmd
}
