package repository

import (
	"log"

	"github.com/fentz26/tasksync/internal/scheduler"
)

// Option configures a Repository.
type Option func(*Repository)

// WithDispatcher sets the compute context used for ID generation and bulk mapping.
func WithDispatcher(d *scheduler.Dispatcher) Option {
	return func(r *Repository) { r.compute = d }
}

// WithScheduler sets the background context replication runs on. The
// caller keeps ownership: Close drains it but does not stop it.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(r *Repository) {
		r.bg = s
		r.ownsBG = false
	}
}

// WithJournal records every replication and refresh attempt.
func WithJournal(j Journal) Option {
	return func(r *Repository) { r.journal = j }
}

// WithIDGenerator replaces the random task ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

// WithLogger sets the logger used for swallowed background failures.
func WithLogger(l *log.Logger) Option {
	return func(r *Repository) { r.logger = l }
}
