// Package network provides the remote task stores tasksync replicates to.
// Every remote exchanges the whole task collection: a load returns all of
// it and a save replaces all of it.
package network

import (
	"context"
	"errors"
)

// TaskStatus is the remote representation of a task's completion state.
type TaskStatus string

const (
	TaskStatusActive   TaskStatus = "ACTIVE"
	TaskStatusComplete TaskStatus = "COMPLETE"
)

// NetworkTask is the remote representation of a task.
type NetworkTask struct {
	ID               string     `json:"id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	ShortDescription string     `json:"short_description" yaml:"short_description"`
	Priority         *int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Status           TaskStatus `json:"status" yaml:"status"`
}

// DataSource is a remote store offering bulk load and bulk save.
type DataSource interface {
	// LoadTasks returns the full remote collection.
	LoadTasks(ctx context.Context) ([]NetworkTask, error)
	// SaveTasks replaces the full remote collection.
	SaveTasks(ctx context.Context, tasks []NetworkTask) error
}

// ErrOffline is returned by a remote that simulates lost connectivity.
var ErrOffline = errors.New("remote unreachable")

func clone(tasks []NetworkTask) []NetworkTask {
	out := make([]NetworkTask, len(tasks))
	copy(out, tasks)
	return out
}
