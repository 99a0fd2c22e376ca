package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fentz26/tasksync/internal/audit"
	"github.com/fentz26/tasksync/internal/config"
	"github.com/fentz26/tasksync/internal/models"
	"github.com/fentz26/tasksync/internal/network"
	"github.com/fentz26/tasksync/internal/repository"
	"github.com/fentz26/tasksync/internal/scheduler"
	"github.com/fentz26/tasksync/internal/store"
)

// app is everything a command needs, built once at process start.
type app struct {
	cfg   *config.Config
	store *store.Store
	sched *scheduler.Scheduler
	repo  *repository.Repository
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbOverride != "" {
		cfg.DBPath = dbOverride
	}
	if remoteKind != "" {
		cfg.Remote.Kind = remoteKind
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newRemote builds the remote store selected by cfg.
func newRemote(cfg config.RemoteConfig) (network.DataSource, error) {
	switch cfg.Kind {
	case config.RemoteSimulated:
		var seed []network.NetworkTask
		if cfg.Seed {
			seed = network.DemoTasks()
		}
		return network.NewSimulated(cfg.Latency, seed), nil
	case config.RemoteFile:
		return network.NewFileDataSource(cfg.Path), nil
	case config.RemoteHTTP:
		return network.NewHTTPDataSource(cfg.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown remote kind %q", cfg.Kind)
	}
}

// openApp opens the local store and wires the repository over it.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	remote, err := newRemote(cfg.Remote)
	if err != nil {
		s.Close()
		return nil, err
	}

	schedCfg := cfg.SchedulerConfig()
	sched := scheduler.New(schedCfg, log.Default())
	repo, err := repository.New(s, remote,
		repository.WithJournal(audit.NewJournal(s)),
		repository.WithDispatcher(scheduler.NewDispatcher(schedCfg)),
		repository.WithScheduler(sched),
	)
	if err != nil {
		sched.Stop()
		s.Close()
		return nil, err
	}

	return &app{cfg: cfg, store: s, sched: sched, repo: repo}, nil
}

// close waits up to sync.drain_timeout for pending replications, then
// closes the store.
func (a *app) close() {
	if err := closeRepository(a.repo, a.cfg.Sync.DrainTimeout); err != nil {
		log.Printf("Warning: replication still pending after %s: %v", a.cfg.Sync.DrainTimeout, err)
	}
	a.sched.Stop()
	if err := a.store.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}
}

// closeRepository drains repo for at most timeout. A zero timeout abandons
// pending replications without reporting them.
func closeRepository(repo *repository.Repository, timeout time.Duration) error {
	if timeout <= 0 {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		repo.Close(ctx)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return repo.Close(ctx)
}

// startPeriodicSync enables sync.interval for long-running commands.
func (a *app) startPeriodicSync() {
	if a.cfg.Sync.Interval > 0 {
		a.repo.StartPeriodicSync(a.cfg.Sync.Interval)
	}
}

// withApp runs fn with an open app and closes it afterwards.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(context.Background(), a)
}

// resolveID expands a unique ID prefix, as printed by `task list`, to the
// full task ID.
func resolveID(ctx context.Context, repo *repository.Repository, prefix string) (string, error) {
	tasks, err := repo.GetTasks(ctx, false)
	if err != nil {
		return "", err
	}

	// An exact ID wins even when it is also a prefix of other IDs.
	var matches []models.Task
	for _, t := range tasks {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", repository.ErrTaskNotFound, prefix)
	case 1:
		return matches[0].ID, nil
	default:
		return "", fmt.Errorf("ambiguous task id %q", prefix)
	}
}
