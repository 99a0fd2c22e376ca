// Package repository is the single entry point for task reads, writes and
// synchronization. Reads are served from the local store; every mutation
// is committed locally and then replicated to the remote in the background.
package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fentz26/tasksync/internal/audit"
	"github.com/fentz26/tasksync/internal/mapping"
	"github.com/fentz26/tasksync/internal/models"
	"github.com/fentz26/tasksync/internal/network"
	"github.com/fentz26/tasksync/internal/scheduler"
	"github.com/fentz26/tasksync/internal/store"
	"github.com/google/uuid"
)

// LocalDataSource is the local task store the repository reads from and writes to.
type LocalDataSource interface {
	ObserveAll(ctx context.Context) <-chan []store.LocalTask
	ObserveByID(ctx context.Context, id string) <-chan *store.LocalTask
	GetAll(ctx context.Context) ([]store.LocalTask, error)
	GetByID(ctx context.Context, id string) (*store.LocalTask, error)
	Upsert(ctx context.Context, task store.LocalTask) error
	UpsertAll(ctx context.Context, tasks []store.LocalTask) error
	UpdateCompleted(ctx context.Context, id string, completed bool) error
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteCompleted(ctx context.Context) (int64, error)
}

// Journal records sync attempts.
type Journal interface {
	Record(ctx context.Context, action string, inputs interface{}, taskCount int, syncErr error) (*models.SyncEntry, error)
}

// Repository reconciles the local store with a remote store.
type Repository struct {
	local   LocalDataSource
	network network.DataSource
	compute *scheduler.Dispatcher
	bg      *scheduler.Scheduler
	ownsBG  bool
	journal Journal
	newID   func() string
	logger  *log.Logger
}

// New creates a repository over local and remote.
func New(local LocalDataSource, remote network.DataSource, opts ...Option) (*Repository, error) {
	if local == nil {
		return nil, ErrLocalNil
	}
	if remote == nil {
		return nil, ErrNetworkNil
	}

	r := &Repository{
		local:   local,
		network: remote,
		newID:   uuid.NewString,
		logger:  log.Default(),
		ownsBG:  true,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.compute == nil {
		r.compute = scheduler.NewDispatcher(nil)
	}
	if r.bg == nil {
		r.bg = scheduler.New(nil, r.logger)
		r.ownsBG = true
	}
	return r, nil
}

// --- Reads ---

// GetTasks returns every task, pulling from the remote first when forceUpdate is set.
func (r *Repository) GetTasks(ctx context.Context, forceUpdate bool) ([]models.Task, error) {
	if forceUpdate {
		if err := r.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	tasks, err := r.local.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapping.All(tasks, mapping.ToExternal), nil
}

// GetTask returns a task, or nil when it does not exist.
func (r *Repository) GetTask(ctx context.Context, id string, forceUpdate bool) (*models.Task, error) {
	if forceUpdate {
		if err := r.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	task, err := r.local.GetByID(ctx, id)
	if err != nil || task == nil {
		return nil, err
	}
	t := mapping.ToExternal(*task)
	return &t, nil
}

// TasksStream emits the full task collection on subscribe and after every
// local change. Cancel ctx to unsubscribe; the channel is then closed.
func (r *Repository) TasksStream(ctx context.Context) <-chan []models.Task {
	return project(ctx, r.local.ObserveAll(ctx), func(tasks []store.LocalTask) []models.Task {
		return mapping.All(tasks, mapping.ToExternal)
	})
}

// TaskStream emits a single task, or nil while it does not exist.
func (r *Repository) TaskStream(ctx context.Context, id string) <-chan *models.Task {
	return project(ctx, r.local.ObserveByID(ctx, id), func(task *store.LocalTask) *models.Task {
		if task == nil {
			return nil
		}
		t := mapping.ToExternal(*task)
		return &t
	})
}

// --- Writes ---

// CreateTask stores a new active task and returns its ID once the local
// write has committed. Replication is not awaited.
func (r *Repository) CreateTask(ctx context.Context, title, description string) (string, error) {
	id, err := scheduler.Compute(ctx, r.compute, r.newID)
	if err != nil {
		return "", err
	}

	task := models.Task{
		ID:          id,
		Title:       title,
		Description: description,
	}
	if err := r.local.Upsert(ctx, mapping.ToLocal(task)); err != nil {
		return "", err
	}

	r.saveTasksToNetwork()
	return id, nil
}

// UpdateTask changes the title and description of an existing task.
func (r *Repository) UpdateTask(ctx context.Context, id, title, description string) error {
	task, err := r.GetTask(ctx, id, false)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	task.Title = title
	task.Description = description
	if err := r.local.Upsert(ctx, mapping.ToLocal(*task)); err != nil {
		return err
	}

	r.saveTasksToNetwork()
	return nil
}

// CompleteTask marks a task as completed.
func (r *Repository) CompleteTask(ctx context.Context, id string) error {
	return r.setCompleted(ctx, id, true)
}

// ActivateTask marks a task as active again.
func (r *Repository) ActivateTask(ctx context.Context, id string) error {
	return r.setCompleted(ctx, id, false)
}

func (r *Repository) setCompleted(ctx context.Context, id string, completed bool) error {
	if err := r.local.UpdateCompleted(ctx, id, completed); err != nil {
		return err
	}
	r.saveTasksToNetwork()
	return nil
}

// ClearCompletedTasks deletes every completed task.
func (r *Repository) ClearCompletedTasks(ctx context.Context) error {
	if _, err := r.local.DeleteCompleted(ctx); err != nil {
		return err
	}
	r.saveTasksToNetwork()
	return nil
}

// DeleteAllTasks deletes every task.
func (r *Repository) DeleteAllTasks(ctx context.Context) error {
	if _, err := r.local.DeleteAll(ctx); err != nil {
		return err
	}
	r.saveTasksToNetwork()
	return nil
}

// DeleteTask deletes a single task.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	if _, err := r.local.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.saveTasksToNetwork()
	return nil
}

// --- Synchronization ---

// Refresh replaces the whole local collection with the remote one.
//
// The clear and the re-insert are separate steps: a mutation or a
// replication running concurrently can be lost in either direction, and
// a failure between the two leaves the local store empty.
func (r *Repository) Refresh(ctx context.Context) error {
	networkTasks, err := r.network.LoadTasks(ctx)
	if err != nil {
		r.record(ctx, audit.ActionRefresh, nil, err)
		return fmt.Errorf("load remote tasks: %w", err)
	}

	if _, err := r.local.DeleteAll(ctx); err != nil {
		return err
	}

	localTasks, err := scheduler.Compute(ctx, r.compute, func() []store.LocalTask {
		return mapping.All(networkTasks, mapping.NetworkToLocal)
	})
	if err != nil {
		return err
	}
	if err := r.local.UpsertAll(ctx, localTasks); err != nil {
		return err
	}

	r.record(ctx, audit.ActionRefresh, networkTasks, nil)
	return nil
}

// RefreshTask refreshes ahead of reading a single task. The remote only
// serves the whole collection, so this is a full Refresh.
func (r *Repository) RefreshTask(ctx context.Context, id string) error {
	return r.Refresh(ctx)
}

// StartPeriodicSync replicates the local snapshot every interval until
// the repository is closed.
func (r *Repository) StartPeriodicSync(interval time.Duration) {
	if interval <= 0 {
		return
	}
	r.bg.Every(interval, "periodic "+audit.ActionReplicate, r.replicate)
}

// Flush waits for the replications currently in flight, including a
// periodic run that has already started.
func (r *Repository) Flush(ctx context.Context) error {
	return r.bg.Drain(ctx)
}

// Close waits for in-flight replications until ctx is done and then
// tears down the background context.
func (r *Repository) Close(ctx context.Context) error {
	err := r.bg.Drain(ctx)
	if r.ownsBG {
		r.bg.Stop()
	}
	return err
}

// saveTasksToNetwork launches a detached replication of the full local
// snapshot. It never blocks and never reports back to the caller.
func (r *Repository) saveTasksToNetwork() {
	r.bg.Go(audit.ActionReplicate, r.replicate)
}

func (r *Repository) replicate(ctx context.Context) error {
	localTasks, err := r.local.GetAll(ctx)
	if err != nil {
		r.record(ctx, audit.ActionReplicate, nil, err)
		return fmt.Errorf("read local snapshot: %w", err)
	}

	networkTasks, err := scheduler.Compute(ctx, r.compute, func() []network.NetworkTask {
		return mapping.All(localTasks, mapping.ToNetwork)
	})
	if err != nil {
		return err
	}

	err = r.network.SaveTasks(ctx, networkTasks)
	r.record(ctx, audit.ActionReplicate, networkTasks, err)
	if err != nil {
		return fmt.Errorf("save remote tasks: %w", err)
	}
	return nil
}

func (r *Repository) record(ctx context.Context, action string, tasks []network.NetworkTask, syncErr error) {
	if r.journal == nil {
		return
	}
	if _, err := r.journal.Record(ctx, action, tasks, len(tasks), syncErr); err != nil {
		r.logger.Printf("repository: journal %s: %v", action, err)
	}
}

// project maps every value from in onto a new channel that closes with in
// or when ctx is done.
func project[S, T any](ctx context.Context, in <-chan S, fn func(S) T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for v := range in {
			select {
			case out <- fn(v):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
