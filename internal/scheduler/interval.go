package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/Cloudbrowse/internal/logger"
)

var (
	// ErrRunning is returned by Start on a running scheduler
	ErrRunning = errors.New("scheduler is already running")

	// ErrNotRunning is returned by Stop on an idle scheduler
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrStopped is returned by Start after Stop; schedulers are single-use
	ErrStopped = errors.New("scheduler cannot be restarted after stop")
)

// Interval refreshes on every tick of a fixed interval. A refresh that
// outlasts the interval delays the next one rather than overlapping it.
type Interval struct {
	interval time.Duration
	target   Refresher
	log      logger.Logger

	mu      sync.RWMutex
	running bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
	status  Status
}

// NewInterval creates a scheduler refreshing target every interval
func NewInterval(interval time.Duration, target Refresher) (*Interval, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if target == nil {
		return nil, fmt.Errorf("refresher cannot be nil")
	}
	return &Interval{
		interval: interval,
		target:   target,
		log:      logger.Component("scheduler"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins the scheduling loop. The loop ends when ctx is done or
// Stop is called.
func (s *Interval) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.running:
		return ErrRunning
	case s.stopped:
		return ErrStopped
	}

	s.running = true
	s.status.Running = true
	s.status.NextRunTime = time.Now().Add(s.interval)
	go s.loop(ctx)
	return nil
}

func (s *Interval) loop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.stopped = true
		s.status.Running = false
		s.mu.Unlock()
		close(s.done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Interval) runOnce(ctx context.Context) {
	start := time.Now()
	err := s.target.Refresh(ctx)
	elapsed := time.Since(start)

	s.mu.Lock()
	s.status.LastRunTime = start
	s.status.LastDuration = elapsed
	s.status.NextRunTime = time.Now().Add(s.interval)
	s.status.TotalRuns++
	if err != nil {
		s.status.FailedRuns++
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("scheduled refresh failed", "error", err)
	} else {
		s.log.Debug("scheduled refresh finished", "duration", elapsed)
	}
}

// Stop ends the loop and waits for a running refresh to return
func (s *Interval) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return nil
}

// Status returns a snapshot of the scheduler state
func (s *Interval) Status() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	return &st
}

var _ Scheduler = (*Interval)(nil)
