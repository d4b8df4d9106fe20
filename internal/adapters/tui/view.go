package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/mark/internal/ui/style"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.Height == 0 {
		return "Initializing..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.taskList(), m.logPane())
	return lipgloss.JoinVertical(lipgloss.Left, body, m.help())
}

func (m *Model) taskList() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("TASKS") + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Tasks))
	for i := m.ListOffset; i < end; i++ {
		task := m.Tasks[i]
		st, icon := statusStyle(task.Status)

		cursor := "  "
		if i == m.SelectedIdx {
			cursor = "> "
		}
		s.WriteString(st.Render(fmt.Sprintf("%s%s %s", cursor, icon, task.Name)) + "\n")
	}

	width := int(float64(m.Width) * taskListWidthRatio)
	return listStyle.Width(width).Render(s.String())
}

func statusStyle(status TaskStatus) (lipgloss.Style, string) {
	switch status {
	case StatusRunning:
		return taskRunningStyle, style.Dot
	case StatusDone:
		return taskDoneStyle, style.Check
	case StatusSkipped:
		return taskSkippedStyle, style.Skip
	case StatusError:
		return taskErrorStyle, style.Cross
	default:
		return taskPendingStyle, style.Circle
	}
}

func (m *Model) logPane() string {
	task := m.Selected()
	if task == nil {
		return logStyle.Render(titleStyle.Render("LOGS (waiting...)"))
	}

	header := titleStyle.Render("LOGS: " + task.Name)
	var body string
	switch task.Status {
	case StatusSkipped:
		body = taskSkippedStyle.Render("target exists, nothing to do")
	case StatusError:
		lines := append(task.Logs.Tail(m.ListHeight-1), taskErrorStyle.Render(task.Err.Error()))
		body = strings.Join(lines, "\n")
	default:
		body = strings.Join(task.Logs.Tail(m.ListHeight), "\n")
	}
	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body))
}

func (m *Model) help() string {
	mode := "follow"
	if !m.FollowMode {
		mode = "manual"
	}
	return helpStyle.Render(fmt.Sprintf("↑/↓ select • f follow • q quit • %s", mode))
}
