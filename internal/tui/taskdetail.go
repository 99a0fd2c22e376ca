package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/tasksync/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// TaskDetailModel shows a single task, live.
type TaskDetailModel struct {
	client *Client
	id     string
	seq    int
	ch     <-chan *models.Task
	task   *models.Task
	loaded bool
	cancel context.CancelFunc
	width  int
	height int
}

// NewTaskDetailModel creates a new task detail model
func NewTaskDetailModel(client *Client) *TaskDetailModel {
	return &TaskDetailModel{client: client}
}

// Open starts watching task id, replacing any previous subscription.
func (m *TaskDetailModel) Open(id string) tea.Cmd {
	m.Close()

	ctx, cancel := context.WithCancel(m.client.ctx)
	m.id = id
	m.seq++
	m.ch = m.client.WatchTask(ctx, id)
	m.task = nil
	m.loaded = false
	m.cancel = cancel
	return waitForTask(m.seq, m.ch)
}

// Close ends the subscription.
func (m *TaskDetailModel) Close() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// SetSize sets the view dimensions
func (m *TaskDetailModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Task returns the task on screen, or nil.
func (m *TaskDetailModel) Task() *models.Task {
	return m.task
}

// Update applies a stream snapshot and waits for the next one. Snapshots
// from an earlier subscription are dropped.
func (m *TaskDetailModel) Update(msg taskMsg) tea.Cmd {
	if msg.seq != m.seq || m.cancel == nil {
		return nil
	}
	m.task = msg.task
	m.loaded = true
	return waitForTask(m.seq, m.ch)
}

// View renders the task detail
func (m *TaskDetailModel) View() string {
	if !m.loaded {
		return "Loading task..."
	}
	if m.task == nil {
		return fmt.Sprintf("Task %s no longer exists. Esc to go back.", m.id)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.task.TitleForList()))
	b.WriteString("\n")
	b.WriteString(m.renderField("ID", m.task.ID))
	b.WriteString(m.renderField("Status", formatStatus(m.task.IsCompleted)))
	b.WriteString(m.renderField("Title", m.task.Title))
	b.WriteString(m.renderField("Description", m.task.Description))
	return b.String()
}

func (m *TaskDetailModel) renderField(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
