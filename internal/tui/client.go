package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/tasksync/internal/models"
)

// Backend is the part of the task repository the TUI drives.
type Backend interface {
	TasksStream(ctx context.Context) <-chan []models.Task
	TaskStream(ctx context.Context, id string) <-chan *models.Task
	CreateTask(ctx context.Context, title, description string) (string, error)
	UpdateTask(ctx context.Context, id, title, description string) error
	CompleteTask(ctx context.Context, id string) error
	ActivateTask(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error
	ClearCompletedTasks(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Client turns Backend calls into tea.Cmds so they run off the UI loop.
type Client struct {
	backend Backend
	ctx     context.Context
}

// NewClient creates a client bound to ctx. Streams opened through it end
// when ctx is cancelled.
func NewClient(ctx context.Context, backend Backend) *Client {
	return &Client{backend: backend, ctx: ctx}
}

// WatchTasks subscribes to the task collection.
func (c *Client) WatchTasks() <-chan []models.Task {
	return c.backend.TasksStream(c.ctx)
}

// WatchTask subscribes to a single task until ctx is cancelled.
func (c *Client) WatchTask(ctx context.Context, id string) <-chan *models.Task {
	return c.backend.TaskStream(ctx, id)
}

// waitForTasks delivers the next snapshot from ch.
func waitForTasks(ch <-chan []models.Task) tea.Cmd {
	return func() tea.Msg {
		tasks, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return tasksMsg{tasks: tasks}
	}
}

// waitForTask delivers the next snapshot from subscription seq. A closed
// channel yields nil so the caller stops listening.
func waitForTask(seq int, ch <-chan *models.Task) tea.Cmd {
	return func() tea.Msg {
		task, ok := <-ch
		if !ok {
			return nil
		}
		return taskMsg{seq: seq, task: task}
	}
}

// Create adds a task.
func (c *Client) Create(title, description string) tea.Cmd {
	return func() tea.Msg {
		if _, err := c.backend.CreateTask(c.ctx, title, description); err != nil {
			return errMsg{fmt.Errorf("create task: %w", err)}
		}
		return doneMsg{"Task added"}
	}
}

// Update edits the title and description of task id.
func (c *Client) Update(id, title, description string) tea.Cmd {
	return func() tea.Msg {
		if err := c.backend.UpdateTask(c.ctx, id, title, description); err != nil {
			return errMsg{fmt.Errorf("update task: %w", err)}
		}
		return doneMsg{"Task saved"}
	}
}

// Toggle flips the completion state of task.
func (c *Client) Toggle(task models.Task) tea.Cmd {
	return func() tea.Msg {
		if task.IsCompleted {
			if err := c.backend.ActivateTask(c.ctx, task.ID); err != nil {
				return errMsg{fmt.Errorf("activate task: %w", err)}
			}
			return doneMsg{"Task marked active"}
		}
		if err := c.backend.CompleteTask(c.ctx, task.ID); err != nil {
			return errMsg{fmt.Errorf("complete task: %w", err)}
		}
		return doneMsg{"Task marked complete"}
	}
}

// Delete removes task id.
func (c *Client) Delete(id string) tea.Cmd {
	return func() tea.Msg {
		if err := c.backend.DeleteTask(c.ctx, id); err != nil {
			return errMsg{fmt.Errorf("delete task: %w", err)}
		}
		return doneMsg{"Task deleted"}
	}
}

// ClearCompleted removes every completed task.
func (c *Client) ClearCompleted() tea.Cmd {
	return func() tea.Msg {
		if err := c.backend.ClearCompletedTasks(c.ctx); err != nil {
			return errMsg{fmt.Errorf("clear completed: %w", err)}
		}
		return doneMsg{"Completed tasks cleared"}
	}
}

// Refresh pulls the remote collection over the local one.
func (c *Client) Refresh() tea.Cmd {
	return func() tea.Msg {
		if err := c.backend.Refresh(c.ctx); err != nil {
			return errMsg{fmt.Errorf("refresh: %w", err)}
		}
		return doneMsg{"Refreshed from remote"}
	}
}
