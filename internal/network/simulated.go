package network

import (
	"context"
	"sync"
	"time"
)

// DefaultLatency is the simulated round trip of the in-memory remote.
const DefaultLatency = 2 * time.Second

// Simulated is an in-memory stand-in for a backend service. Every call
// waits for the configured latency while holding the access lock, like a
// single-threaded server would.
type Simulated struct {
	mu      sync.Mutex
	tasks   []NetworkTask
	latency time.Duration

	offlineMu sync.RWMutex
	offline   bool
}

// NewSimulated creates a simulated remote holding a copy of seed.
func NewSimulated(latency time.Duration, seed []NetworkTask) *Simulated {
	return &Simulated{
		tasks:   clone(seed),
		latency: latency,
	}
}

// DemoTasks returns the tasks the simulated backend ships with.
func DemoTasks() []NetworkTask {
	return []NetworkTask{
		{
			ID:               "PISA",
			Title:            "Build tower in Pisa",
			ShortDescription: "Ground looks good, no foundation work required.",
			Status:           TaskStatusActive,
		},
		{
			ID:               "TACOMA",
			Title:            "Finish bridge in Tacoma",
			ShortDescription: "Found awesome girders at half the cost!",
			Status:           TaskStatusActive,
		},
	}
}

// SetOffline makes every subsequent call fail with ErrOffline until reset.
func (s *Simulated) SetOffline(offline bool) {
	s.offlineMu.Lock()
	s.offline = offline
	s.offlineMu.Unlock()
}

func (s *Simulated) isOffline() bool {
	s.offlineMu.RLock()
	defer s.offlineMu.RUnlock()
	return s.offline
}

// LoadTasks returns a copy of the remote collection.
func (s *Simulated) LoadTasks(ctx context.Context) ([]NetworkTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return clone(s.tasks), nil
}

// SaveTasks replaces the remote collection.
func (s *Simulated) SaveTasks(ctx context.Context, tasks []NetworkTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wait(ctx); err != nil {
		return err
	}
	s.tasks = clone(tasks)
	return nil
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	if s.isOffline() {
		return ErrOffline
	}
	return nil
}
