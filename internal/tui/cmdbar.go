package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var promptStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("205")).
	Bold(true)

type editorStage int

const (
	stageTitle editorStage = iota
	stageDescription
)

// EditorResult is the task an editor session produced. TaskID is empty
// when adding.
type EditorResult struct {
	TaskID      string
	Title       string
	Description string
}

// EditorModel is a two-step input bar: title, then description.
type EditorModel struct {
	input  textinput.Model
	stage  editorStage
	active bool
	result EditorResult
}

// NewEditorModel creates an inactive editor.
func NewEditorModel() *EditorModel {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 60
	return &EditorModel{input: ti}
}

// Active reports whether the editor has focus.
func (m *EditorModel) Active() bool {
	return m.active
}

// Open starts editing. Pass an empty taskID to add a new task.
func (m *EditorModel) Open(taskID, title, description string) tea.Cmd {
	m.active = true
	m.stage = stageTitle
	m.result = EditorResult{TaskID: taskID, Title: title, Description: description}
	m.input.Placeholder = "Title"
	m.input.SetValue(title)
	m.input.CursorEnd()
	return m.input.Focus()
}

// Close abandons the session.
func (m *EditorModel) Close() {
	m.active = false
	m.input.Blur()
	m.input.Reset()
}

// Advance accepts the current field. It returns the result and true once
// the description has been entered.
func (m *EditorModel) Advance() (EditorResult, bool) {
	if m.stage == stageTitle {
		m.result.Title = m.input.Value()
		m.stage = stageDescription
		m.input.Placeholder = "Description"
		m.input.SetValue(m.result.Description)
		m.input.CursorEnd()
		return EditorResult{}, false
	}

	m.result.Description = m.input.Value()
	result := m.result
	m.Close()
	return result, true
}

// Update forwards key presses to the input.
func (m *EditorModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the prompt for the current field.
func (m *EditorModel) View() string {
	label := "Title"
	if m.stage == stageDescription {
		label = "Description"
	}
	verb := "New task"
	if m.result.TaskID != "" {
		verb = "Edit task"
	}
	return promptStyle.Render(verb+" › "+label+": ") + m.input.View()
}
