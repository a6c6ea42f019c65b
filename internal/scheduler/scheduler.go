package scheduler

import (
	"context"
	"time"
)

// Scheduler runs a task repeatedly until stopped
type Scheduler interface {
	// Start begins the loop
	Start(ctx context.Context) error

	// Stop ends the loop and waits for the running task to return
	Stop() error

	// Done is closed once the loop has exited
	Done() <-chan struct{}

	// Status returns the current scheduler status
	Status() *Status
}

// Status represents the current state of a scheduler
type Status struct {
	Running        bool
	LastRunTime    time.Time
	NextRunTime    time.Time
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	LastError      string
}

// Config contains scheduler configuration
type Config struct {
	// Interval is the time between the start of two runs
	Interval time.Duration

	// Immediate runs the task once at start instead of after the first tick
	Immediate bool

	// MaxRuns stops the loop after that many runs (0 = unlimited)
	MaxRuns int
}

// Runner is the task a scheduler executes
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context) error

// Run implements Runner
func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}
