// Package session implements the directory session: the authoritative view
// of where the user is in the remote store and what that directory holds.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Ning0612/Cloudbrowse/internal/core/grouping"
	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/events"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
	"github.com/Ning0612/Cloudbrowse/internal/metrics"
	"github.com/Ning0612/Cloudbrowse/internal/netstatus"
	"github.com/Ning0612/Cloudbrowse/internal/progress"
	"github.com/Ning0612/Cloudbrowse/internal/report"
	"github.com/Ning0612/Cloudbrowse/internal/settings"
	"github.com/Ning0612/Cloudbrowse/internal/thumbnail"
)

// Remote is the remote client the session drives. adapter.Adapter
// satisfies it.
type Remote interface {
	List(ctx context.Context, path string) ([]*domain.Entry, error)
	CreateDirectory(ctx context.Context, path string) error
	Delete(ctx context.Context, path string) error
	Move(ctx context.Context, fromPath, toPath string) error
	Thumbnail(ctx context.Context, entry *domain.Entry, width, height int) (io.ReadCloser, error)
	Read(ctx context.Context, path string) (io.ReadCloser, error)
	Write(ctx context.Context, path string, r io.Reader, size int64) error
}

// listing holds the cancellation handles of one listing generation.
// cancel aborts the remote call and the prefetch; stopPrefetch aborts
// only the prefetch.
type listing struct {
	cancel       context.CancelFunc
	stopPrefetch context.CancelFunc
}

// Session is a directory session. It is created by the composition root
// with New and must be released with Close.
//
// Remote failures never propagate to the caller: mutations return false
// and reportable errors go to the configured report.Reporter.
type Session struct {
	remote   Remote
	reporter report.Reporter
	settings settings.Provider
	network  netstatus.Provider
	progress progress.Reporter
	log      logger.Logger
	locale   string

	thumbWidth    int
	thumbHeight   int
	initialPolicy sortpolicy.Policy

	events     *events.Broadcaster
	entries    *grouping.Collection
	prefetcher *thumbnail.Prefetcher
	prefetchWG sync.WaitGroup

	mu         sync.Mutex
	stack      *domain.PathStack
	generation uint64
	current    *listing
	sorting    bool
	selecting  bool
	selected   []*domain.Entry
	closed     bool
}

// New creates a session positioned at the remote root. No listing is
// performed until StartListing is called.
func New(remote Remote, opts ...Option) *Session {
	s := &Session{
		remote:      remote,
		settings:    settings.Static(domain.DownloadAlways),
		network:     netstatus.Sysfs{},
		progress:    progress.NullReporter{},
		locale:      "en-US",
		thumbWidth:  thumbnail.DefaultSize,
		thumbHeight: thumbnail.DefaultSize,
		stack:       domain.NewPathStack(),
		events:      events.NewBroadcaster(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Component("session")
	}
	if s.reporter == nil {
		s.reporter = report.NewLogReporter(s.log)
	}
	if s.initialPolicy == nil {
		s.initialPolicy = sortpolicy.Name(sortpolicy.Ascending)
	}

	s.entries = grouping.NewCollection(s.initialPolicy, s.events)
	s.prefetcher = thumbnail.New(remote,
		thumbnail.WithSize(s.thumbWidth, s.thumbHeight),
		thumbnail.WithLogger(s.log.With("component", "thumbnail")),
		thumbnail.WithNotify(func(e *domain.Entry) {
			s.events.Publish(events.Event{Type: events.ThumbnailUpdated, Path: e.Path})
		}),
	)
	return s
}

// StartListing lists the current directory and replaces the entry
// collection with the result, then starts thumbnail prefetch in the
// background when the download policy allows it.
//
// A listing started while another is in flight supersedes it: the older
// call is cancelled and its result discarded. The call is a no-op while
// multi-selection is active. The only error returned is an unrecognized
// download policy; remote failures go to the reporter.
func (s *Session) StartListing(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.selecting {
		s.mu.Unlock()
		return nil
	}

	policy, err := s.settings.DownloadPolicy()
	if err != nil {
		s.mu.Unlock()
		s.log.Error("listing halted", "error", err)
		return err
	}

	if s.current != nil {
		s.current.cancel()
	}
	s.generation++
	gen := s.generation
	listCtx, cancel := context.WithCancel(context.Background())
	prefetchCtx, stopPrefetch := context.WithCancel(listCtx)
	s.current = &listing{cancel: cancel, stopPrefetch: stopPrefetch}
	dir := s.stack.CurrentPath()
	s.mu.Unlock()

	// The call honours both the caller and supersession
	callCtx, stop := context.WithCancel(ctx)
	defer stop()
	unlink := context.AfterFunc(listCtx, stop)
	defer unlink()

	s.events.Publish(events.Event{Type: events.ListingStarted, Path: dir})

	start := time.Now()
	entries, err := s.remote.List(callCtx, dir)
	metrics.RecordRemoteCall("list", err)

	s.mu.Lock()
	if gen != s.generation || s.closed {
		s.mu.Unlock()
		s.log.Debug("listing superseded", "path", dir)
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		if ctx.Err() != nil {
			s.log.Debug("listing cancelled", "path", dir, "error", err)
			return nil
		}
		s.fail("list", dir, err, false)
		return nil
	}

	s.entries.Reset(dir, entries)
	metrics.RecordListing(time.Since(start), len(entries))
	prefetch := s.allowPrefetch(policy)
	if prefetch {
		s.prefetchWG.Add(1)
	}
	s.mu.Unlock()

	s.log.Debug("listing finished", "path", dir, "entries", len(entries), "prefetch", prefetch)
	s.events.Publish(events.Event{Type: events.ListingFinished, Path: dir, Count: len(entries)})

	if prefetch {
		ordered := s.entries.Entries()
		go func() {
			defer s.prefetchWG.Done()
			s.prefetcher.Run(prefetchCtx, ordered)
		}()
	}
	return nil
}

// Refresh re-lists the current directory
func (s *Session) Refresh(ctx context.Context) error {
	return s.StartListing(ctx)
}

// StopListing cancels the running thumbnail prefetch. The loop stops
// before its next entry. An in-flight remote list call is not aborted.
func (s *Session) StopListing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.stopPrefetch()
	}
}

// Wait blocks until every background prefetch started so far has
// finished. It must not be called concurrently with StartListing.
func (s *Session) Wait() {
	s.prefetchWG.Wait()
}

func (s *Session) allowPrefetch(policy domain.DownloadPolicy) bool {
	switch policy {
	case domain.DownloadAlways:
		return true
	case domain.DownloadWiFiOnly:
		return s.network.IsWiFi()
	}
	return false
}

// relist refreshes after a successful mutation
func (s *Session) relist(ctx context.Context) {
	if err := s.StartListing(ctx); err != nil {
		s.log.Warn("re-list after mutation failed", "error", err)
	}
}

// fail classifies a remote error. With suppressExpected set, failures of
// SeverityExpected are logged and dropped; everything else is reported.
func (s *Session) fail(op, path string, err error, suppressExpected bool) {
	re := domain.AsRemoteError(op, path, err)
	if suppressExpected && re.Severity() == domain.SeverityExpected {
		s.log.Debug("remote operation declined", "op", op, "path", path, "status", re.StatusCode)
		return
	}
	s.reporter.Report(re)
}

// Entries returns the current entries in display order
func (s *Session) Entries() []*domain.Entry {
	return s.entries.Entries()
}

// Snapshot returns the listed directory together with its entries
func (s *Session) Snapshot() (string, []*domain.Entry) {
	return s.entries.Snapshot()
}

// Groups returns the current grouped view
func (s *Session) Groups() []domain.Grouping {
	return s.entries.Groups()
}

// Policy returns the active sort policy
func (s *Session) Policy() sortpolicy.Policy {
	return s.entries.Policy()
}

// Find returns the listed entry with the given name or path, or nil
func (s *Session) Find(nameOrPath string) *domain.Entry {
	return s.entries.Find(nameOrPath)
}

// Subscribe returns a channel receiving state-update events
func (s *Session) Subscribe() <-chan events.Event {
	return s.events.Subscribe()
}

// Unsubscribe stops delivery to ch and closes it
func (s *Session) Unsubscribe(ch <-chan events.Event) {
	s.events.Unsubscribe(ch)
}

// Close cancels any listing, waits for prefetch to stop and closes all
// subscriber channels. The remote client is not closed; it belongs to
// the caller.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.current != nil {
		s.current.cancel()
	}
	s.mu.Unlock()

	s.prefetchWG.Wait()
	s.events.Close()
	return nil
}
