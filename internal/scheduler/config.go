// Package scheduler provides the background and compute execution contexts
// used by the task repository.
package scheduler

import "runtime"

// Config defines the scheduler configuration.
type Config struct {
	// MaxConcurrent is the maximum number of background jobs running at once.
	// Further jobs wait for a free slot without blocking their submitter.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// ComputeWorkers bounds how many compute calls run in parallel.
	ComputeWorkers int `yaml:"compute_workers" mapstructure:"compute_workers"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent:  4,
		ComputeWorkers: runtime.GOMAXPROCS(0),
	}
}

func (c *Config) maxConcurrent() int64 {
	if c.MaxConcurrent < 1 {
		return 1
	}
	return int64(c.MaxConcurrent)
}

func (c *Config) computeWorkers() int64 {
	if c.ComputeWorkers < 1 {
		return int64(runtime.GOMAXPROCS(0))
	}
	return int64(c.ComputeWorkers)
}
