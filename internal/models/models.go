// Package models defines the core domain types for tasksync.
package models

import "strings"

// Task is the external form of a task handed to callers of the repository.
// ID is assigned once on creation and never changes.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

// IsActive reports whether the task still needs to be done.
func (t Task) IsActive() bool {
	return !t.IsCompleted
}

// IsEmpty reports whether both title and description are blank.
func (t Task) IsEmpty() bool {
	return strings.TrimSpace(t.Title) == "" && strings.TrimSpace(t.Description) == ""
}

// TitleForList returns the title, falling back to the description for untitled tasks.
func (t Task) TitleForList() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Description
}
