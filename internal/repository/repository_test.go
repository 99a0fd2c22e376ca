package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/tasksync/internal/audit"
	"github.com/fentz26/tasksync/internal/models"
	"github.com/fentz26/tasksync/internal/network"
	"github.com/fentz26/tasksync/internal/scheduler"
	"github.com/fentz26/tasksync/internal/store"
)

// --- fakes ---

// failingLocal wraps a real store and fails selected writes.
type failingLocal struct {
	LocalDataSource
	err error
}

func (f *failingLocal) Upsert(ctx context.Context, task store.LocalTask) error {
	return f.err
}

func (f *failingLocal) UpdateCompleted(ctx context.Context, id string, completed bool) error {
	return f.err
}

// blockingRemote holds every save until released.
type blockingRemote struct {
	*network.Simulated
	release chan struct{}
}

func (b *blockingRemote) SaveTasks(ctx context.Context, tasks []network.NetworkTask) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.Simulated.SaveTasks(ctx, tasks)
}

type journalEntry struct {
	action string
	count  int
	err    error
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []journalEntry
}

func (j *fakeJournal) Record(ctx context.Context, action string, inputs interface{}, taskCount int, syncErr error) (*models.SyncEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, journalEntry{action: action, count: taskCount, err: syncErr})
	return &models.SyncEntry{Action: action}, nil
}

func (j *fakeJournal) snapshot() []journalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journalEntry(nil), j.entries...)
}

// --- tests ---

func TestNew_NilCollaborators(t *testing.T) {
	if _, err := New(nil, network.NewSimulated(0, nil)); !errors.Is(err, ErrLocalNil) {
		t.Errorf("New(nil, remote) err=%v, want %v", err, ErrLocalNil)
	}
	s := newTestStore(t)
	if _, err := New(s, nil); !errors.Is(err, ErrNetworkNil) {
		t.Errorf("New(local, nil) err=%v, want %v", err, ErrNetworkNil)
	}
}

func TestCreateCompleteAndReplicate(t *testing.T) {
	remote := network.NewSimulated(0, nil)
	repo, _ := newTestRepository(t, remote)
	ctx := context.Background()

	id, err := repo.CreateTask(ctx, "title1", "description1")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if id == "" {
		t.Fatal("CreateTask returned an empty id")
	}

	tasks, err := repo.GetTasks(ctx, false)
	if err != nil {
		t.Fatalf("GetTasks failed: %v", err)
	}
	want := models.Task{ID: id, Title: "title1", Description: "description1", IsCompleted: false}
	if len(tasks) != 1 || tasks[0] != want {
		t.Fatalf("GetTasks = %+v, want [%+v]", tasks, want)
	}

	// Concurrent replications are last-writer-wins; settle the first.
	flush(t, repo)

	if err := repo.CompleteTask(ctx, id); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	task, err := repo.GetTask(ctx, id, false)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task == nil || !task.IsCompleted {
		t.Fatalf("Expected completed task, got %+v", task)
	}

	flush(t, repo)

	remoteTasks, err := remote.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	wantRemote := network.NetworkTask{ID: id, Title: "title1", ShortDescription: "description1", Status: network.TaskStatusComplete}
	if len(remoteTasks) != 1 || remoteTasks[0].ID != wantRemote.ID || remoteTasks[0].Title != wantRemote.Title ||
		remoteTasks[0].ShortDescription != wantRemote.ShortDescription || remoteTasks[0].Status != wantRemote.Status {
		t.Errorf("Remote = %+v, want [%+v]", remoteTasks, wantRemote)
	}
}

func TestCreateTask_UsesGeneratedID(t *testing.T) {
	s := newTestStore(t)
	repo, err := New(s, network.NewSimulated(0, nil), WithIDGenerator(func() string { return "fixed-id" }))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer repo.Close(context.Background())

	id, err := repo.CreateTask(context.Background(), "t", "d")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("Expected fixed-id, got %s", id)
	}
}

func TestCreateTask_DoesNotWaitForReplication(t *testing.T) {
	remote := &blockingRemote{Simulated: network.NewSimulated(0, nil), release: make(chan struct{})}
	repo, s := newTestRepository(t, remote)
	ctx := context.Background()

	done := make(chan string, 1)
	go func() {
		id, err := repo.CreateTask(ctx, "title1", "description1")
		if err != nil {
			t.Errorf("CreateTask failed: %v", err)
		}
		done <- id
	}()

	var id string
	select {
	case id = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CreateTask blocked on replication")
	}

	local, _ := s.GetByID(ctx, id)
	if local == nil {
		t.Fatal("Local write should be committed before CreateTask returns")
	}
	remoteTasks, _ := remote.Simulated.LoadTasks(ctx)
	if len(remoteTasks) != 0 {
		t.Errorf("Remote should not have the task yet, got %+v", remoteTasks)
	}

	close(remote.release)
	flush(t, repo)

	remoteTasks, _ = remote.Simulated.LoadTasks(ctx)
	if len(remoteTasks) != 1 || remoteTasks[0].ID != id {
		t.Errorf("Expected replicated task %s, got %+v", id, remoteTasks)
	}
}

func TestReplicationFailure_IsSwallowed(t *testing.T) {
	remote := network.NewSimulated(0, nil)
	remote.SetOffline(true)
	journal := &fakeJournal{}
	repo, s := newTestRepository(t, remote, WithJournal(journal))
	ctx := context.Background()

	id, err := repo.CreateTask(ctx, "title1", "description1")
	if err != nil {
		t.Fatalf("CreateTask should not surface replication failure: %v", err)
	}
	flush(t, repo)

	local, _ := s.GetByID(ctx, id)
	if local == nil {
		t.Error("Failed replication must not roll back the local write")
	}

	entries := journal.snapshot()
	if len(entries) != 1 || entries[0].action != audit.ActionReplicate || !errors.Is(entries[0].err, network.ErrOffline) {
		t.Errorf("Expected one failed replicate entry, got %+v", entries)
	}

	// The next mutation replicates the then-current snapshot.
	remote.SetOffline(false)
	if err := repo.CompleteTask(ctx, id); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	flush(t, repo)

	remoteTasks, _ := remote.LoadTasks(ctx)
	if len(remoteTasks) != 1 || remoteTasks[0].Status != network.TaskStatusComplete {
		t.Errorf("Expected remote to converge, got %+v", remoteTasks)
	}
}

func TestStorageErrorPropagates(t *testing.T) {
	s := newTestStore(t)
	storageErr := errors.New("disk I/O error")
	sch := scheduler.New(nil, nil)
	defer sch.Stop()

	repo, err := New(&failingLocal{LocalDataSource: s, err: storageErr}, network.NewSimulated(0, nil), WithScheduler(sch))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := repo.CreateTask(ctx, "t", "d"); !errors.Is(err, storageErr) {
		t.Errorf("CreateTask err=%v, want %v", err, storageErr)
	}
	if err := repo.CompleteTask(ctx, "1"); !errors.Is(err, storageErr) {
		t.Errorf("CompleteTask err=%v, want %v", err, storageErr)
	}
	if got := sch.GetStats().Started; got != 0 {
		t.Errorf("No replication should start after a failed local write, got %d", got)
	}
}

func TestCompleteAndActivate(t *testing.T) {
	repo, s := newTestRepository(t, network.NewSimulated(0, nil))
	ctx := context.Background()
	seed(t, s)

	for i := 0; i < 2; i++ {
		if err := repo.CompleteTask(ctx, "1"); err != nil {
			t.Fatalf("CompleteTask failed: %v", err)
		}
		task, _ := repo.GetTask(ctx, "1", false)
		if !task.IsCompleted {
			t.Errorf("Expected completed after call %d", i+1)
		}
	}

	if err := repo.ActivateTask(ctx, "1"); err != nil {
		t.Fatalf("ActivateTask failed: %v", err)
	}
	task, _ := repo.GetTask(ctx, "1", false)
	if task.IsCompleted {
		t.Error("Expected active after ActivateTask")
	}
}

func TestUpdateTask(t *testing.T) {
	remote := network.NewSimulated(0, nil)
	repo, s := newTestRepository(t, remote)
	ctx := context.Background()
	seed(t, s)

	if err := repo.UpdateTask(ctx, "2", "new title", "new description"); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	task, _ := repo.GetTask(ctx, "2", false)
	want := models.Task{ID: "2", Title: "new title", Description: "new description", IsCompleted: true}
	if task == nil || *task != want {
		t.Errorf("GetTask = %+v, want %+v", task, want)
	}

	flush(t, repo)
	remoteTasks, _ := remote.LoadTasks(ctx)
	if len(remoteTasks) != 2 {
		t.Errorf("Expected the full snapshot to replicate, got %+v", remoteTasks)
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	repo, _ := newTestRepository(t, network.NewSimulated(0, nil))

	err := repo.UpdateTask(context.Background(), "missing", "t", "d")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("UpdateTask err=%v, want %v", err, ErrTaskNotFound)
	}
}

func TestGetTask_Missing(t *testing.T) {
	repo, _ := newTestRepository(t, network.NewSimulated(0, nil))

	task, err := repo.GetTask(context.Background(), "missing", false)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task != nil {
		t.Errorf("Expected nil, got %+v", task)
	}
}

func TestRefresh_ReplacesNotMerges(t *testing.T) {
	remote := network.NewSimulated(0, []network.NetworkTask{
		{ID: "B", Title: "titleB", ShortDescription: "descB", Status: network.TaskStatusActive},
		{ID: "C", Title: "titleC", ShortDescription: "descC", Status: network.TaskStatusComplete},
	})
	journal := &fakeJournal{}
	repo, s := newTestRepository(t, remote, WithJournal(journal))
	ctx := context.Background()

	if err := s.Upsert(ctx, store.LocalTask{ID: "A", Title: "titleA"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := repo.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	tasks, err := repo.GetTasks(ctx, false)
	if err != nil {
		t.Fatalf("GetTasks failed: %v", err)
	}
	got := ids(tasks)
	if len(got) != 2 || got[0] != "B" || got[1] != "C" {
		t.Fatalf("Expected exactly [B C], got %v", got)
	}
	for _, task := range tasks {
		if task.ID == "C" && !task.IsCompleted {
			t.Error("Expected C to be completed")
		}
	}

	entries := journal.snapshot()
	if len(entries) != 1 || entries[0].action != audit.ActionRefresh || entries[0].count != 2 || entries[0].err != nil {
		t.Errorf("Expected one successful refresh entry, got %+v", entries)
	}
}

func TestRefresh_LoadFailureLeavesLocalUntouched(t *testing.T) {
	remote := network.NewSimulated(0, nil)
	remote.SetOffline(true)
	repo, s := newTestRepository(t, remote)
	ctx := context.Background()
	seed(t, s)

	if err := repo.Refresh(ctx); !errors.Is(err, network.ErrOffline) {
		t.Fatalf("Refresh err=%v, want %v", err, network.ErrOffline)
	}
	if _, err := repo.GetTasks(ctx, true); !errors.Is(err, network.ErrOffline) {
		t.Errorf("GetTasks(force) err=%v, want %v", err, network.ErrOffline)
	}

	tasks, _ := repo.GetTasks(ctx, false)
	if len(tasks) != 2 {
		t.Errorf("Expected local store untouched, got %+v", tasks)
	}
}

func TestGetWithForceUpdate(t *testing.T) {
	remote := network.NewSimulated(0, network.DemoTasks())
	repo, _ := newTestRepository(t, remote)
	ctx := context.Background()

	task, err := repo.GetTask(ctx, "PISA", true)
	if err != nil {
		t.Fatalf("GetTask(force) failed: %v", err)
	}
	if task == nil || task.Title != "Build tower in Pisa" {
		t.Errorf("Expected refreshed PISA task, got %+v", task)
	}

	tasks, err := repo.GetTasks(ctx, true)
	if err != nil {
		t.Fatalf("GetTasks(force) failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Expected 2 tasks, got %d", len(tasks))
	}

	if err := repo.RefreshTask(ctx, "TACOMA"); err != nil {
		t.Errorf("RefreshTask failed: %v", err)
	}
}

func TestDeletesReplicate(t *testing.T) {
	remote := network.NewSimulated(0, nil)
	repo, s := newTestRepository(t, remote)
	ctx := context.Background()
	seed(t, s)

	if err := repo.ClearCompletedTasks(ctx); err != nil {
		t.Fatalf("ClearCompletedTasks failed: %v", err)
	}
	tasks, _ := repo.GetTasks(ctx, false)
	if got := ids(tasks); len(got) != 1 || got[0] != "1" {
		t.Fatalf("Expected only task 1, got %v", got)
	}
	flush(t, repo)
	remoteTasks, _ := remote.LoadTasks(ctx)
	if len(remoteTasks) != 1 {
		t.Errorf("Expected remote to mirror clear, got %+v", remoteTasks)
	}

	if err := repo.DeleteTask(ctx, "1"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	flush(t, repo)
	remoteTasks, _ = remote.LoadTasks(ctx)
	if len(remoteTasks) != 0 {
		t.Errorf("Expected empty remote after delete, got %+v", remoteTasks)
	}

	seed(t, s)
	if err := repo.DeleteAllTasks(ctx); err != nil {
		t.Fatalf("DeleteAllTasks failed: %v", err)
	}
	tasks, _ = repo.GetTasks(ctx, false)
	if len(tasks) != 0 {
		t.Errorf("Expected no tasks, got %+v", tasks)
	}
}

func TestTasksStream_SeesCreate(t *testing.T) {
	repo, _ := newTestRepository(t, network.NewSimulated(0, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := repo.TasksStream(ctx)
	other := repo.TasksStream(ctx)
	if first := receive(t, stream); len(first) != 0 {
		t.Fatalf("Expected empty first emission, got %+v", first)
	}
	receive(t, other)

	id, err := repo.CreateTask(context.Background(), "title1", "description1")
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	for _, ch := range []<-chan []models.Task{stream, other} {
		if !waitForTask(t, ch, id) {
			t.Errorf("Subscriber never observed task %s", id)
		}
	}
}

func TestTasksStream_Resubscribe(t *testing.T) {
	repo, s := newTestRepository(t, network.NewSimulated(0, nil))
	seed(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	stream := repo.TasksStream(ctx)
	receive(t, stream)
	cancel()

	// Drain until closed.
	deadline := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, open = <-stream:
		case <-deadline:
			t.Fatal("Stream was not closed after cancel")
		}
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	if got := receive(t, repo.TasksStream(ctx2)); len(got) != 2 {
		t.Errorf("Expected 2 tasks on re-subscription, got %+v", got)
	}
}

func TestTaskStream(t *testing.T) {
	repo, _ := newTestRepository(t, network.NewSimulated(0, nil), WithIDGenerator(func() string { return "X" }))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := repo.TaskStream(ctx, "X")
	if got := receive(t, stream); got != nil {
		t.Fatalf("Expected nil before creation, got %+v", got)
	}

	if _, err := repo.CreateTask(context.Background(), "title1", "description1"); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	got := receive(t, stream)
	if got == nil || got.Title != "title1" {
		t.Errorf("Expected task X, got %+v", got)
	}

	repo.CompleteTask(context.Background(), "X")
	got = receive(t, stream)
	if got == nil || !got.IsCompleted {
		t.Errorf("Expected completed task X, got %+v", got)
	}
}

func TestPeriodicSync(t *testing.T) {
	remote := network.NewSimulated(0, nil)
	repo, s := newTestRepository(t, remote)
	seed(t, s)

	repo.StartPeriodicSync(10 * time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tasks, _ := remote.LoadTasks(context.Background())
		if len(tasks) == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Periodic sync never pushed the local snapshot")
}

func TestFlush_WaitsForPeriodicRun(t *testing.T) {
	remote := &blockingRemote{Simulated: network.NewSimulated(0, nil), release: make(chan struct{})}
	repo, s := newTestRepository(t, remote)
	seed(t, s)

	repo.StartPeriodicSync(5 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := repo.Flush(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Flush err=%v, want deadline exceeded while a periodic save is held", err)
	}

	close(remote.release)
	ctx, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	if err := repo.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	tasks, _ := remote.Simulated.LoadTasks(context.Background())
	if len(tasks) != 2 {
		t.Errorf("Expected the periodic save to land before Flush returned, got %d tasks", len(tasks))
	}
}

// --- helpers ---

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRepository(t *testing.T, remote network.DataSource, opts ...Option) (*Repository, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	repo, err := New(s, remote, opts...)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		repo.Close(ctx)
	})
	return repo, s
}

func seed(t *testing.T, s *store.Store) {
	t.Helper()
	err := s.UpsertAll(context.Background(), []store.LocalTask{
		{ID: "1", Title: "title1", Description: "description1", IsCompleted: false},
		{ID: "2", Title: "title2", Description: "description2", IsCompleted: true},
	})
	if err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
}

func flush(t *testing.T, repo *Repository) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repo.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	sort.Strings(out)
	return out
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("Stream closed unexpectedly")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for emission")
	}
	var zero T
	return zero
}

func waitForTask(t *testing.T, ch <-chan []models.Task, id string) bool {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case tasks, ok := <-ch:
			if !ok {
				return false
			}
			for _, task := range tasks {
				if task.ID == id {
					return true
				}
			}
		case <-deadline:
			return false
		}
	}
}
