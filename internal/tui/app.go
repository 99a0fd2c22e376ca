// Package tui provides the interactive terminal UI for tasksync.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/tasksync/internal/models"
	"github.com/fentz26/tasksync/internal/stats"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

type viewMode int

const (
	modeList viewMode = iota
	modeDetail
)

// App is the main TUI application model.
type App struct {
	client  *Client
	cancel  context.CancelFunc
	stream  <-chan []models.Task
	list    *TaskListModel
	detail  *TaskDetailModel
	editor  *EditorModel
	mode    viewMode
	message string
	isError bool
	syncing bool
	width   int
	height  int
}

// New creates a new TUI application over backend.
func New(ctx context.Context, backend Backend) *App {
	ctx, cancel := context.WithCancel(ctx)
	client := NewClient(ctx, backend)

	return &App{
		client: client,
		cancel: cancel,
		list:   NewTaskListModel(),
		detail: NewTaskDetailModel(client),
		editor: NewEditorModel(),
		mode:   modeList,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	defer a.cancel()
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	a.stream = a.client.WatchTasks()
	return waitForTasks(a.stream)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(msg.Width, a.contentHeight())
		a.detail.SetSize(msg.Width, a.contentHeight())
		return a, nil

	case tasksMsg:
		cmd := a.list.SetTasks(msg.tasks)
		return a, tea.Batch(cmd, waitForTasks(a.stream))

	case taskMsg:
		return a, a.detail.Update(msg)

	case streamClosedMsg:
		a.setError(fmt.Errorf("task stream closed"))
		return a, nil

	case doneMsg:
		a.syncing = false
		a.setMessage(msg.message)
		return a, nil

	case errMsg:
		a.syncing = false
		a.setError(msg.err)
		return a, nil

	case tea.KeyMsg:
		if a.editor.Active() {
			return a, a.updateEditor(msg)
		}
		return a, a.handleKey(msg)
	}

	if a.editor.Active() {
		return a, a.editor.Update(msg)
	}
	return a, nil
}

func (a *App) updateEditor(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		a.quit()
		return tea.Quit
	case "esc":
		a.editor.Close()
		return nil
	case "enter":
		result, done := a.editor.Advance()
		if !done {
			return nil
		}
		if (models.Task{Title: result.Title, Description: result.Description}).IsEmpty() {
			a.setError(fmt.Errorf("tasks cannot be empty"))
			return nil
		}
		if result.TaskID == "" {
			return a.client.Create(result.Title, result.Description)
		}
		return a.client.Update(result.TaskID, result.Title, result.Description)
	}
	return a.editor.Update(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		a.quit()
		return tea.Quit

	case "esc":
		if a.mode == modeDetail {
			a.detail.Close()
			a.mode = modeList
		}
		return nil

	case "enter":
		if a.mode == modeList {
			if task := a.list.SelectedTask(); task != nil {
				a.mode = modeDetail
				return a.detail.Open(task.ID)
			}
		}
		return nil

	case "a":
		a.message = ""
		return a.editor.Open("", "", "")

	case "e":
		if task := a.current(); task != nil {
			a.message = ""
			return a.editor.Open(task.ID, task.Title, task.Description)
		}
		return nil

	case " ", "space":
		if task := a.current(); task != nil {
			return a.client.Toggle(*task)
		}
		return nil

	case "d":
		if task := a.current(); task != nil {
			return a.client.Delete(task.ID)
		}
		return nil

	case "c":
		return a.client.ClearCompleted()

	case "r":
		if a.syncing {
			return nil
		}
		a.syncing = true
		a.setMessage("Refreshing...")
		return a.client.Refresh()

	case "f":
		if a.mode == modeList {
			return a.list.CycleFilter()
		}
		return nil
	}

	if a.mode == modeList {
		return a.list.Update(msg)
	}
	return nil
}

// current is the task the next action applies to.
func (a *App) current() *models.Task {
	if a.mode == modeDetail {
		return a.detail.Task()
	}
	return a.list.SelectedTask()
}

func (a *App) quit() {
	a.detail.Close()
	a.cancel()
}

func (a *App) setMessage(s string) {
	a.message = s
	a.isError = false
}

func (a *App) setError(err error) {
	a.message = "Error: " + err.Error()
	a.isError = true
}

func (a *App) contentHeight() int {
	h := a.height - 7
	if h < 5 {
		h = 5
	}
	return h
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tasksync"))
	b.WriteString("\n")
	if a.width > 0 {
		b.WriteString(strings.Repeat("─", a.width))
	}
	b.WriteString("\n")

	switch a.mode {
	case modeList:
		b.WriteString(a.list.View())
	case modeDetail:
		b.WriteString(a.detail.View())
	}

	// Message bar
	b.WriteString("\n")
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if a.isError {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString(msgStyle.Render(a.message))
	}
	b.WriteString("\n")

	if a.editor.Active() {
		b.WriteString(inputBoxStyle.Render(a.editor.View()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(" Enter:next | Esc:cancel"))
		b.WriteString("\n")
	}

	b.WriteString(statusBarStyle.Width(a.width).Render(a.statusLine()))
	return b.String()
}

func (a *App) statusLine() string {
	tasks := a.list.Tasks()
	s := stats.ActiveAndCompleted(tasks)
	counts := fmt.Sprintf(" Tasks: %d | active %.0f%% | completed %.0f%%", len(tasks), s.ActivePercent, s.CompletedPercent)

	switch a.mode {
	case modeDetail:
		return counts + " | e:edit | space:toggle | d:delete | Esc:back | q:quit"
	default:
		return counts + fmt.Sprintf(" | filter:%s | a:add | e:edit | space:toggle | d:delete | c:clear | r:refresh | f:filter | q:quit", a.list.Filter())
	}
}
