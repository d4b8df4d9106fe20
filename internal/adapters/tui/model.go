// Package tui renders a run as an interactive task list with a log pane.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/mark/internal/adapters/telemetry"
)

const (
	taskListWidthRatio = 0.3
	chromeHeight       = 4
)

// TaskStatus represents the displayed state of a task.
type TaskStatus string

// Task statuses.
const (
	StatusPending TaskStatus = "Pending"
	StatusRunning TaskStatus = "Running"
	StatusDone    TaskStatus = "Done"
	StatusSkipped TaskStatus = "Skipped"
	StatusError   TaskStatus = "Error"
)

// TaskNode is a single task in the list.
type TaskNode struct {
	Name      string
	Status    TaskStatus
	Logs      LogTail
	StartTime time.Time
	Duration  time.Duration
	Err       error
}

// Model is the TUI state.
type Model struct {
	Tasks   []*TaskNode
	TaskMap map[string]*TaskNode
	SpanMap map[string]*TaskNode
	Targets []string

	Width, Height int
	ListHeight    int
	ListOffset    int
	SelectedIdx   int
	// FollowMode selects whichever task started last.
	FollowMode bool
	// Interrupted is set when the user quit before the run finished.
	Interrupted bool
}

// NewModel returns an empty model in follow mode.
func NewModel() *Model {
	return &Model{
		TaskMap:    make(map[string]*TaskNode),
		SpanMap:    make(map[string]*TaskNode),
		FollowMode: true,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.ListHeight = max(msg.Height-chromeHeight, 1)
		m.ensureVisible()

	case telemetry.MsgInitTasks:
		m.Tasks = make([]*TaskNode, len(msg.Tasks))
		m.TaskMap = make(map[string]*TaskNode, len(msg.Tasks))
		m.SpanMap = make(map[string]*TaskNode)
		m.Targets = msg.Targets
		for i, name := range msg.Tasks {
			m.Tasks[i] = &TaskNode{Name: name, Status: StatusPending}
			m.TaskMap[name] = m.Tasks[i]
		}
		m.SelectedIdx, m.ListOffset = 0, 0

	case telemetry.MsgTaskStart:
		node, ok := m.TaskMap[msg.Name]
		if !ok {
			return m, nil
		}
		node.Status = StatusRunning
		node.StartTime = msg.StartTime
		m.SpanMap[msg.SpanID] = node
		if m.FollowMode {
			m.selectTask(msg.Name)
		}

	case telemetry.MsgTaskLog:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			_, _ = node.Logs.Write(msg.Data)
		}

	case telemetry.MsgTaskComplete:
		node, ok := m.SpanMap[msg.SpanID]
		if !ok {
			return m, nil
		}
		node.Duration = msg.EndTime.Sub(node.StartTime)
		switch {
		case msg.Err != nil:
			node.Status = StatusError
			node.Err = msg.Err
		case msg.Skipped:
			node.Status = StatusSkipped
		default:
			node.Status = StatusDone
		}
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		m.Interrupted = true
		return tea.Quit
	case "up", "k":
		m.FollowMode = false
		if m.SelectedIdx > 0 {
			m.SelectedIdx--
		}
	case "down", "j":
		m.FollowMode = false
		if m.SelectedIdx < len(m.Tasks)-1 {
			m.SelectedIdx++
		}
	case "f":
		m.FollowMode = true
	}
	m.ensureVisible()
	return nil
}

func (m *Model) selectTask(name string) {
	for i, task := range m.Tasks {
		if task.Name == name {
			m.SelectedIdx = i
			m.ensureVisible()
			return
		}
	}
}

// ensureVisible slides the list window so the selection stays on screen.
func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	}
	if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

// Selected returns the selected task, or nil before the plan arrives.
func (m *Model) Selected() *TaskNode {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.Tasks) {
		return nil
	}
	return m.Tasks[m.SelectedIdx]
}
