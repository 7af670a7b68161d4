package update

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/views"
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	right := m.renderDetail()
	if help := m.renderHelpIfVisible(); help != "" {
		right = help
	}
	status := ""
	if m.Status.Text != "" {
		status = "status: " + m.Status.Text
	}
	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("taskfloat | %d active | %d done | mode: %s", m.Stats.Active, m.Stats.Completed, m.Mode),
		LeftPane:     m.renderTaskList(),
		RightPane:    right,
		Input:        m.renderInput(),
		Prompt:       m.renderPrompt(),
		Toast:        m.Toast,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Footer:       m.helpModel.ShortHelpView(m.keys.ShortHelp()),
		Width:        m.width,
	})
}

func (m Model) renderTaskList() string {
	rows := make([]views.TaskRowData, 0, len(m.Rows))
	for i, task := range m.Rows {
		if m.focused() && task.ID != m.running {
			continue
		}
		rows = append(rows, views.TaskRowData{
			Index:     i + 1,
			ID:        task.ID,
			Title:     task.Title,
			Completed: task.Completed,
			Pinned:    task.Pinned,
			Running:   task.ID == m.running,
			Warning:   task.InWarning(m.cfg.WarningSeconds),
			HasTimer:  task.HasTimer(),
			Priority:  string(task.Priority),
			Tags:      task.Tags,
			Clock:     model.FormatClock(task.Remaining()),
			Progress:  task.Progress(),
		})
	}
	spin := ""
	if m.spinnerActive {
		spin = m.runSpinner.View()
	}
	return views.RenderTaskList(views.TaskListData{
		Rows:        rows,
		SelectedID:  m.SelectedID,
		Query:       m.Query,
		Spinner:     spin,
		Total:       m.Stats.Total,
		Completed:   m.Stats.Completed,
		HideDone:    m.HideCompleted,
		Focus:       m.focused(),
		BarWidth:    10,
		CapacityMax: m.cfg.MaxTasks,
	})
}

func (m Model) renderDetail() string {
	task, ok := m.selected()
	if !ok {
		return views.RenderDetail(views.DetailData{})
	}
	var b strings.Builder
	b.WriteString("## " + task.Title + "\n\n")
	b.WriteString(fmt.Sprintf("- **timer**: %s\n", timerSummary(task, task.ID == m.running)))
	if task.Priority != "" {
		b.WriteString(fmt.Sprintf("- **priority**: %s\n", task.Priority))
	}
	if len(task.Tags) > 0 {
		b.WriteString(fmt.Sprintf("- **tags**: %s\n", strings.Join(task.Tags, ", ")))
	}
	if task.Pinned {
		b.WriteString("- **pinned**\n")
	}
	if !task.CreatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("- **created**: %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	progressView := ""
	if task.HasTimer() {
		progressView = m.timerProgress.ViewAs(task.Progress())
	}
	return views.RenderDetail(views.DetailData{Markdown: b.String(), ProgressView: progressView})
}

func timerSummary(task model.Task, live bool) string {
	if !task.HasTimer() {
		return "none"
	}
	state := task.TimerState()
	if live {
		state = model.TimerRunning
	}
	return fmt.Sprintf("%s of %s (%s)", model.FormatClock(task.Remaining()), model.FormatClock(task.TotalSeconds()), state)
}

func (m Model) renderInput() string {
	switch m.Mode {
	case ModeAdd:
		return views.RenderInput("quick add:", m.quickAddInput.View())
	case ModeSearch:
		return views.RenderInput("filter:", m.searchInput.View())
	case ModePalette:
		return views.RenderInput("command:", m.commandInput.View())
	}
	return ""
}

func (m Model) renderPrompt() string {
	if m.confirm == nil {
		return ""
	}
	return views.RenderPrompt(views.PromptData{Title: m.confirm.Title, Body: m.confirm.Body})
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Title+": "+n.Body)
}
