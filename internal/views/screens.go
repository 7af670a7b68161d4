package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type TaskRowData struct {
	Index     int
	ID        string
	Title     string
	Completed bool
	Pinned    bool
	Running   bool
	Warning   bool
	HasTimer  bool
	Priority  string
	Tags      []string
	Clock     string
	Progress  float64
}

type TaskListData struct {
	Rows        []TaskRowData
	SelectedID  string
	Query       string
	Spinner     string
	Total       int
	Completed   int
	HideDone    bool
	Focus       bool
	BarWidth    int
	CapacityMax int
}

type DetailData struct {
	Markdown     string
	ProgressView string
}

type HelpPanelData struct {
	Mode     string
	Bindings []string
	HelpView string
}

type PromptData struct {
	Title string
	Body  string
}

var (
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	completedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	warningStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderTaskList draws active tasks, then completed ones under their own heading.
func RenderTaskList(data TaskListData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("tasks: %d/%d done", data.Completed, data.Total))
	if data.CapacityMax > 0 && data.Total >= data.CapacityMax {
		b.WriteString(warningStyle.Render(" (full)"))
	}
	b.WriteString("\n")
	if data.Query != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("filter: %q", data.Query)) + "\n")
	}
	if data.Focus {
		b.WriteString(dimStyle.Render("focus: running task only, [F] to leave") + "\n")
	}

	active := make([]TaskRowData, 0, len(data.Rows))
	done := make([]TaskRowData, 0)
	for _, row := range data.Rows {
		if row.Completed {
			done = append(done, row)
		} else {
			active = append(active, row)
		}
	}

	if len(data.Rows) == 0 {
		if data.Query != "" {
			b.WriteString("\n(no matching tasks)")
		} else {
			b.WriteString("\n(no tasks yet, press [a] to add one)")
		}
		return b.String()
	}

	b.WriteString("\nactive:\n")
	if len(active) == 0 {
		b.WriteString("  (all done)\n")
	}
	for _, row := range active {
		b.WriteString(renderRow(row, data) + "\n")
	}
	if len(done) > 0 {
		b.WriteString(fmt.Sprintf("\ncompleted (%d):\n", len(done)))
		if data.HideDone {
			b.WriteString(dimStyle.Render("  (hidden, press [c] to show)") + "\n")
		} else {
			for _, row := range done {
				b.WriteString(renderRow(row, data) + "\n")
			}
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderRow(row TaskRowData, data TaskListData) string {
	cursor := " "
	if row.ID == data.SelectedID {
		cursor = ">"
	}
	check := "[ ]"
	if row.Completed {
		check = "[x]"
	}
	title := row.Title
	if row.Completed {
		title = completedStyle.Render(title)
	} else if row.ID == data.SelectedID {
		title = selectedStyle.Render(title)
	}

	var badges []string
	if row.Pinned {
		badges = append(badges, "^")
	}
	if row.Priority != "" {
		badges = append(badges, "!"+row.Priority)
	}
	for _, tag := range row.Tags {
		badges = append(badges, "#"+tag)
	}

	line := fmt.Sprintf("%s %2d %s %s", cursor, row.Index, check, title)
	if len(badges) > 0 {
		line += " " + dimStyle.Render(strings.Join(badges, " "))
	}
	if row.HasTimer {
		timer := fmt.Sprintf("%s %s", row.Clock, ProgressBar(row.Progress, data.BarWidth))
		switch {
		case row.Warning:
			timer = warningStyle.Render(timer)
		case row.Running:
			timer = runningStyle.Render(timer)
		}
		if row.Running && data.Spinner != "" {
			timer = data.Spinner + " " + timer
		}
		line += "  " + timer
	}
	return line
}

// ProgressBar renders the remaining fraction as a fixed-width ascii bar.
func ProgressBar(progress float64, width int) string {
	if width <= 0 {
		width = 10
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func RenderDetail(data DetailData) string {
	var b strings.Builder
	b.WriteString("details:\n")
	if strings.TrimSpace(data.Markdown) == "" {
		b.WriteString("(no selection)")
		return b.String()
	}
	b.WriteString(RenderMarkdown(data.Markdown))
	if data.ProgressView != "" {
		b.WriteString("\n" + data.ProgressView)
	}
	return b.String()
}

func RenderInput(label, view string) string {
	if view == "" {
		return ""
	}
	return fmt.Sprintf("%s %s", label, view)
}

func RenderPrompt(data PromptData) string {
	if data.Title == "" {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n[y]es  [n]o", data.Title, data.Body)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s):\n%s\n\n%s",
		strings.ToLower(data.Mode),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
