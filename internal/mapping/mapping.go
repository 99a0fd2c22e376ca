// Package mapping translates tasks between their external, local and
// network representations. Every function is pure and total; IDs are
// always copied verbatim.
package mapping

import (
	"github.com/fentz26/tasksync/internal/models"
	"github.com/fentz26/tasksync/internal/network"
	"github.com/fentz26/tasksync/internal/store"
)

// All applies fn to every element of in. A nil input yields an empty slice.
func All[S, T any](in []S, fn func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// ToLocal converts an external task to its persisted form.
func ToLocal(t models.Task) store.LocalTask {
	return store.LocalTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
	}
}

// ToExternal converts a persisted task to its external form.
func ToExternal(l store.LocalTask) models.Task {
	return models.Task{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		IsCompleted: l.IsCompleted,
	}
}

// NetworkToLocal converts a remote task to its persisted form.
func NetworkToLocal(n network.NetworkTask) store.LocalTask {
	return store.LocalTask{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.ShortDescription,
		IsCompleted: n.Status == network.TaskStatusComplete,
	}
}

// ToNetwork converts a persisted task to its remote form.
func ToNetwork(l store.LocalTask) network.NetworkTask {
	status := network.TaskStatusActive
	if l.IsCompleted {
		status = network.TaskStatusComplete
	}
	return network.NetworkTask{
		ID:               l.ID,
		Title:            l.Title,
		ShortDescription: l.Description,
		Status:           status,
	}
}

// ExternalToNetwork converts an external task to its remote form.
func ExternalToNetwork(t models.Task) network.NetworkTask {
	return ToNetwork(ToLocal(t))
}

// NetworkToExternal converts a remote task to its external form.
func NetworkToExternal(n network.NetworkTask) models.Task {
	return ToExternal(NetworkToLocal(n))
}
