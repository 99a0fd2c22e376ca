package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Job is a unit of detached background work. The context is the
// scheduler's own and is cancelled only by Stop.
type Job func(ctx context.Context) error

// Scheduler runs fire-and-forget jobs on a context that outlives the
// callers submitting them.
type Scheduler struct {
	config *Config
	logger *log.Logger
	slots  *semaphore.Weighted

	// Job accounting
	mu       sync.Mutex
	active   int
	started  int
	failed   int
	stopped  bool
	idleWait []chan struct{}

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler. A nil logger uses the standard logger.
func New(cfg *Config, logger *log.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config: cfg,
		logger: logger,
		slots:  semaphore.NewWeighted(cfg.maxConcurrent()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go submits a job and returns immediately. Errors and panics raised by
// the job are logged and discarded. Jobs submitted after Stop are dropped.
func (sch *Scheduler) Go(name string, job Job) {
	sch.mu.Lock()
	if sch.stopped {
		sch.mu.Unlock()
		sch.logger.Printf("scheduler: dropping job %s, scheduler stopped", name)
		return
	}
	sch.active++
	sch.started++
	sch.wg.Add(1)
	sch.mu.Unlock()

	go sch.runJob(name, job)
}

func (sch *Scheduler) runJob(name string, job Job) {
	defer sch.wg.Done()

	err := sch.execute(job)
	if err != nil {
		sch.logger.Printf("scheduler: job %s failed: %v", name, err)
	}
	sch.finish(err)
}

// finish releases an active slot counted by Go or a periodic run and wakes
// Drain callers once nothing is running.
func (sch *Scheduler) finish(err error) {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	sch.active--
	if err != nil {
		sch.failed++
	}
	if sch.active == 0 {
		for _, ch := range sch.idleWait {
			close(ch)
		}
		sch.idleWait = nil
	}
}

func (sch *Scheduler) execute(job Job) (err error) {
	if err := sch.slots.Acquire(sch.ctx, 1); err != nil {
		return err
	}
	defer sch.slots.Release(1)
	if err := sch.ctx.Err(); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job(sch.ctx)
}

// Every runs job on a ticker until the scheduler stops. A tick that fires
// while the previous run is still going is skipped. Runs count as active
// for Drain while they execute.
func (sch *Scheduler) Every(interval time.Duration, name string, job Job) {
	sch.mu.Lock()
	if sch.stopped {
		sch.mu.Unlock()
		return
	}
	sch.wg.Add(1)
	sch.mu.Unlock()

	go func() {
		defer sch.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-sch.ctx.Done():
				return
			case <-ticker.C:
				sch.mu.Lock()
				sch.active++
				sch.mu.Unlock()

				err := sch.execute(job)
				if err != nil && sch.ctx.Err() != nil {
					err = nil
				}
				if err != nil {
					sch.logger.Printf("scheduler: periodic job %s failed: %v", name, err)
				}
				sch.finish(err)
			}
		}
	}()
	sch.logger.Printf("scheduler: %s every %s", name, interval)
}

// Drain blocks until no submitted or periodic job is running or ctx is done.
func (sch *Scheduler) Drain(ctx context.Context) error {
	sch.mu.Lock()
	if sch.active == 0 {
		sch.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	sch.idleWait = append(sch.idleWait, ch)
	sch.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the scheduler context and waits for every job to return.
// Jobs still queued for a slot are abandoned without running and count
// as failed.
func (sch *Scheduler) Stop() {
	sch.mu.Lock()
	if sch.stopped {
		sch.mu.Unlock()
		return
	}
	sch.stopped = true
	sch.mu.Unlock()

	sch.cancel()
	sch.wg.Wait()
}

// Stats is a snapshot of scheduler activity.
type Stats struct {
	Active        int `json:"active"`
	Started       int `json:"started"`
	Failed        int `json:"failed"`
	MaxConcurrent int `json:"max_concurrent"`
}

// GetStats returns current scheduler statistics.
func (sch *Scheduler) GetStats() Stats {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	return Stats{
		Active:        sch.active,
		Started:       sch.started,
		Failed:        sch.failed,
		MaxConcurrent: sch.config.MaxConcurrent,
	}
}
