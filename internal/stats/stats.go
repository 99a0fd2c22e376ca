// Package stats computes task statistics and list filters.
package stats

import "github.com/fentz26/tasksync/internal/models"

// Result holds the share of active and completed tasks, in percent.
type Result struct {
	ActivePercent    float64 `json:"active_percent"`
	CompletedPercent float64 `json:"completed_percent"`
}

// ActiveAndCompleted returns the percentage of active and completed tasks.
// An empty collection yields zero for both.
func ActiveAndCompleted(tasks []models.Task) Result {
	total := len(tasks)
	if total == 0 {
		return Result{}
	}

	active := 0
	for _, t := range tasks {
		if t.IsActive() {
			active++
		}
	}
	completed := total - active

	return Result{
		ActivePercent:    100 * float64(active) / float64(total),
		CompletedPercent: 100 * float64(completed) / float64(total),
	}
}

// FilterType selects which tasks a list shows.
type FilterType int

const (
	All FilterType = iota
	Active
	Completed
)

func (f FilterType) String() string {
	switch f {
	case Active:
		return "active"
	case Completed:
		return "completed"
	default:
		return "all"
	}
}

// Next cycles All -> Active -> Completed -> All.
func (f FilterType) Next() FilterType {
	return (f + 1) % 3
}

// ParseFilter maps a filter name back to its FilterType.
func ParseFilter(s string) (FilterType, bool) {
	switch s {
	case "", "all":
		return All, true
	case "active":
		return Active, true
	case "completed":
		return Completed, true
	}
	return All, false
}

// Filter returns the tasks matching f, keeping their order.
func Filter(tasks []models.Task, f FilterType) []models.Task {
	if f == All {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if (f == Active) == t.IsActive() {
			out = append(out, t)
		}
	}
	return out
}
