// Package scheduler re-runs a directory refresh on a fixed interval.
package scheduler

import (
	"context"
	"time"
)

// Refresher is the work a scheduler repeats. *session.Session satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc adapts a function to the Refresher interface
type RefresherFunc func(ctx context.Context) error

// Refresh implements Refresher
func (f RefresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

// Scheduler defines the interface for refresh schedulers
type Scheduler interface {
	// Start begins the scheduling loop
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler
	Stop() error

	// Status returns the current scheduler status
	Status() *Status
}

// Status represents the current state of a scheduler
type Status struct {
	Running      bool
	LastRunTime  time.Time
	NextRunTime  time.Time
	TotalRuns    int
	FailedRuns   int
	LastError    string
	LastDuration time.Duration
}
