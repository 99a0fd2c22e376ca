package tui

import "github.com/fentz26/tasksync/internal/models"

// tasksMsg carries a snapshot from the live task stream.
type tasksMsg struct {
	tasks []models.Task
}

// taskMsg carries a snapshot of the task shown in the detail view.
// task is nil once the task no longer exists.
type taskMsg struct {
	seq  int
	task *models.Task
}

// streamClosedMsg reports that the live task stream ended.
type streamClosedMsg struct{}

// doneMsg reports a finished write or refresh.
type doneMsg struct {
	message string
}

type errMsg struct {
	err error
}

func (e errMsg) Error() string { return e.err.Error() }
