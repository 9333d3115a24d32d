// Package report delivers failed remote calls to the user-facing error
// channel.
package report

import (
	"errors"
	"sync"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
	"github.com/Ning0612/Cloudbrowse/internal/metrics"
)

// Reporter consumes a remote error for user-visible or logged reporting
type Reporter interface {
	Report(err *domain.RemoteError)
}

// Func adapts a function to the Reporter interface
type Func func(err *domain.RemoteError)

// Report implements Reporter
func (f Func) Report(err *domain.RemoteError) { f(err) }

// LogReporter logs every reported error and counts it
type LogReporter struct {
	log logger.Logger
}

// NewLogReporter creates a reporter writing to l (the global logger when nil)
func NewLogReporter(l logger.Logger) *LogReporter {
	if l == nil {
		l = logger.Component("report")
	}
	return &LogReporter{log: l}
}

// Report implements Reporter
func (r *LogReporter) Report(err *domain.RemoteError) {
	if err == nil {
		return
	}
	metrics.RecordErrorReported(err.Op)
	r.log.Error("remote operation failed",
		"op", err.Op,
		"path", err.Path,
		"status", err.StatusCode,
		"error", err.Err,
	)
}

// Multi fans a report out to several reporters in order
type Multi []Reporter

// Report implements Reporter
func (m Multi) Report(err *domain.RemoteError) {
	for _, r := range m {
		r.Report(err)
	}
}

// Collector records reported errors in memory; the CLI uses it to turn
// the last failure into an exit status
type Collector struct {
	mu     sync.Mutex
	errors []*domain.RemoteError
}

// Report implements Reporter
func (c *Collector) Report(err *domain.RemoteError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

// Errors returns a copy of everything reported so far
func (c *Collector) Errors() []*domain.RemoteError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*domain.RemoteError(nil), c.errors...)
}

// Len returns the number of reports
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// Err joins every reported error, or returns nil
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := make([]error, len(c.errors))
	for i, e := range c.errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Reset drops all recorded reports
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = nil
}
