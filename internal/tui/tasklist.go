package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/tasksync/internal/models"
	"github.com/fentz26/tasksync/internal/stats"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusActive    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	statusCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
)

// TaskItem implements list.Item for the task list
type TaskItem struct {
	models.Task
}

func (i TaskItem) FilterValue() string { return i.TitleForList() }
func (i TaskItem) Title() string       { return i.TitleForList() }
func (i TaskItem) Description() string {
	status := formatStatus(i.IsCompleted)
	if i.Task.Title != "" && i.Task.Description != "" {
		return fmt.Sprintf("%s • %s", status, truncate(i.Task.Description, 60))
	}
	return status
}

func formatStatus(completed bool) string {
	if completed {
		return statusCompleted.Render("✔ completed")
	}
	return statusActive.Render("● active")
}

// TaskListModel manages the task list screen
type TaskListModel struct {
	list   list.Model
	all    []models.Task
	filter stats.FilterType
}

// NewTaskListModel creates a new task list model
func NewTaskListModel() *TaskListModel {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = titleFor(stats.All)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = listTitleStyle

	return &TaskListModel{list: l}
}

// SetSize sets the list dimensions
func (m *TaskListModel) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

// SetTasks replaces the displayed collection with a fresh snapshot.
func (m *TaskListModel) SetTasks(tasks []models.Task) tea.Cmd {
	m.all = tasks
	return m.apply()
}

// Tasks returns the last full snapshot, ignoring the filter.
func (m *TaskListModel) Tasks() []models.Task {
	return m.all
}

// Filter returns the active filter.
func (m *TaskListModel) Filter() stats.FilterType {
	return m.filter
}

// CycleFilter moves to the next filter.
func (m *TaskListModel) CycleFilter() tea.Cmd {
	m.filter = m.filter.Next()
	m.list.Title = titleFor(m.filter)
	return m.apply()
}

// SelectedTask returns the currently selected task
func (m *TaskListModel) SelectedTask() *models.Task {
	if item, ok := m.list.SelectedItem().(TaskItem); ok {
		task := item.Task
		return &task
	}
	return nil
}

func (m *TaskListModel) apply() tea.Cmd {
	visible := stats.Filter(m.all, m.filter)
	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = TaskItem{t}
	}
	return m.list.SetItems(items)
}

// Update forwards navigation keys to the list.
func (m *TaskListModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

// View renders the list.
func (m *TaskListModel) View() string {
	if len(m.all) == 0 {
		return "\n  No tasks yet. Press a to add one.\n"
	}
	return m.list.View()
}

func titleFor(f stats.FilterType) string {
	return fmt.Sprintf("Tasks [%s]", f)
}
