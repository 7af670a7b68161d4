package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskfloat/internal/commands"
	"github.com/sandeepkv93/taskfloat/internal/engine"
	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/tasks"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m = m.executePaletteCommand(m.commandInput.Value())
		return m, m.ensureSpinner()
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

func (m *Model) closePalette() {
	m.Mode = ModeList
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand(input string) Model {
	m.closePalette()
	cmd, err := commands.Parse(strings.TrimSpace(input))
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: m.addTask,
		Act: func(kind commands.Type, a commands.TargetArgs) (commands.Result, error) {
			task, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			return m.act(kind, task.ID)
		},
		Edit: m.edit,
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			from, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			to, err := m.resolveTarget(a.To)
			if err != nil {
				return commands.Result{}, err
			}
			if !m.engine.Reorder(from.ID, to.ID) {
				return commands.Result{Message: "order unchanged"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("moved: %s", from.Title)}, nil
		},
		Find: func(a commands.FindArgs) (commands.Result, error) {
			m.Query = strings.TrimSpace(a.Query)
			if m.Query == "" {
				return commands.Result{Message: "filter cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("filter: %s", m.Query)}, nil
		},
		Undo: func() (commands.Result, error) {
			m.undo()
			return commands.Result{Message: m.Status.Text}, m.errorFromStatus()
		},
		Clear: func() (commands.Result, error) {
			n := m.engine.ClearCompleted()
			return commands.Result{Message: fmt.Sprintf("cleared %d completed task(s)", n)}, nil
		},
	})
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
	} else {
		m.Status = StatusBar{Text: res.Message}
		m.notify("Command", res.Message, "info")
	}
	m.refresh()
	return m
}

func (m *Model) errorFromStatus() error {
	if m.Status.IsError {
		return m.LastError
	}
	return nil
}

func (m *Model) addTask(a commands.AddArgs) (commands.Result, error) {
	var opts []engine.AddOption
	if a.Priority != "" {
		opts = append(opts, engine.WithPriority(a.Priority))
	}
	if len(a.Tags) > 0 {
		opts = append(opts, engine.WithTags(a.Tags))
	}
	task, err := m.engine.Add(a.Title, a.Duration, opts...)
	if err != nil {
		return commands.Result{}, err
	}
	m.SelectedID = task.ID
	if task.HasTimer() {
		return commands.Result{Message: fmt.Sprintf("added: %s (%dm)", task.Title, *task.Duration)}, nil
	}
	return commands.Result{Message: fmt.Sprintf("added: %s", task.Title)}, nil
}

// act runs a single-task command and reports it on the status bar.
func (m *Model) act(kind commands.Type, id string) (commands.Result, error) {
	var (
		res commands.Result
		err error
	)
	title := id
	if task, ok := m.engine.Get(id); ok {
		title = task.Title
	}
	switch kind {
	case commands.TypeStart:
		err = m.engine.StartTimer(id)
		res.Message = "started: " + title
	case commands.TypePause:
		err = m.engine.PauseTimer(id)
		res.Message = "paused: " + title
	case commands.TypeReset:
		err = m.engine.ResetTimer(id)
		res.Message = "reset: " + title
	case commands.TypeDone:
		var task model.Task
		task, err = m.engine.Toggle(id)
		if task.Completed {
			res.Message = "completed: " + title
		} else {
			res.Message = "reopened: " + title
		}
	case commands.TypeRemove:
		_, err = m.engine.Delete(id)
		res.Message = "deleted: " + title
		if err == nil {
			m.Toast = m.undoToast(title)
		}
	case commands.TypePin:
		var task model.Task
		task, err = m.engine.TogglePin(id)
		if task.Pinned {
			res.Message = "pinned: " + title
		} else {
			res.Message = "unpinned: " + title
		}
	default:
		err = fmt.Errorf("unsupported action %s", kind)
	}
	if err != nil {
		m.setStatus("", err)
		return commands.Result{}, err
	}
	m.setStatus(res.Message, nil)
	return res, nil
}

func (m *Model) edit(kind commands.Type, a commands.EditArgs) (commands.Result, error) {
	task, err := m.resolveTarget(a.Target)
	if err != nil {
		return commands.Result{}, err
	}
	value := strings.TrimSpace(a.Value)
	switch kind {
	case commands.TypePrio:
		if _, err := m.engine.SetPriority(task.ID, value); err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("priority %s: %s", value, task.Title)}, nil
	case commands.TypeTag:
		tags := splitTags(value)
		if _, err := m.engine.Update(task.ID, map[string]any{"tags": tags}); err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("tagged: %s", task.Title)}, nil
	case commands.TypeRename:
		updated, err := m.engine.Update(task.ID, map[string]any{"title": value})
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{Message: fmt.Sprintf("renamed: %s", updated.Title)}, nil
	case commands.TypeTime:
		var duration any = value
		switch strings.ToLower(value) {
		case "none", "off", "0", "-":
			duration = nil
		default:
			if minutes, ok, perr := commands.ParseMinutes(value); ok {
				if perr != nil {
					return commands.Result{}, perr
				}
				duration = minutes
			}
		}
		updated, err := m.engine.Update(task.ID, map[string]any{"duration": duration})
		if err != nil {
			return commands.Result{}, err
		}
		if !updated.HasTimer() {
			return commands.Result{Message: fmt.Sprintf("timer removed: %s", updated.Title)}, nil
		}
		return commands.Result{Message: fmt.Sprintf("timer %dm: %s", *updated.Duration, updated.Title)}, nil
	}
	return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeUnknownCommand, Message: string(kind)}
}

// resolveTarget accepts a 1-based row number, "." for the selection, or
// an id or unique id prefix.
func (m Model) resolveTarget(target string) (model.Task, error) {
	if strings.TrimSpace(target) == "." {
		if task, ok := m.selected(); ok {
			return task, nil
		}
		return model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no task selected"}
	}
	return tasks.Lookup(m.Rows, target)
}
