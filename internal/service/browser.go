// Package service wires configuration, the remote adapter and the
// directory session together for the command line.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/Ning0612/Cloudbrowse/internal/adapter"
	"github.com/Ning0612/Cloudbrowse/internal/config"
	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/events"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
	"github.com/Ning0612/Cloudbrowse/internal/netstatus"
	"github.com/Ning0612/Cloudbrowse/internal/progress"
	"github.com/Ning0612/Cloudbrowse/internal/report"
	"github.com/Ning0612/Cloudbrowse/internal/scheduler"
	"github.com/Ning0612/Cloudbrowse/internal/session"
	"github.com/Ning0612/Cloudbrowse/internal/settings"
	"github.com/Ning0612/Cloudbrowse/internal/state"
)

// BrowseService owns one remote adapter and the session browsing it
type BrowseService struct {
	cfg      *config.Config
	remote   adapter.Adapter
	sess     *session.Session
	store    *state.Store
	key      string
	log      logger.Logger
	settings settings.Provider

	recorderDone chan struct{}
	events       <-chan events.Event

	mu        sync.Mutex
	refresher *scheduler.Interval
	closed    bool
}

type browseOptions struct {
	viper    *viper.Viper
	remote   adapter.Adapter
	factory  adapter.AdapterFactory
	reporter report.Reporter
	progress progress.Reporter
	store    *state.Store
	policy   string
	network  netstatus.Provider
}

// BrowseOption configures NewBrowseService
type BrowseOption func(*browseOptions)

// WithViper follows edits of the config file for the download policy
func WithViper(v *viper.Viper) BrowseOption {
	return func(o *browseOptions) { o.viper = v }
}

// WithAdapter uses an already created adapter instead of the factory
func WithAdapter(a adapter.Adapter) BrowseOption {
	return func(o *browseOptions) { o.remote = a }
}

// WithFactory replaces the adapter factory
func WithFactory(f adapter.AdapterFactory) BrowseOption {
	return func(o *browseOptions) { o.factory = f }
}

// WithReporter sets where reportable remote errors go
func WithReporter(r report.Reporter) BrowseOption {
	return func(o *browseOptions) { o.reporter = r }
}

// WithProgress sets the transfer progress reporter
func WithProgress(p progress.Reporter) BrowseOption {
	return func(o *browseOptions) { o.progress = p }
}

// WithStore records listings into an already opened snapshot store.
// The service closes it on Close.
func WithStore(s *state.Store) BrowseOption {
	return func(o *browseOptions) { o.store = s }
}

// WithSortOverride replaces the configured initial sort policy
func WithSortOverride(name string) BrowseOption {
	return func(o *browseOptions) { o.policy = name }
}

// WithNetwork replaces the configured network-status provider
func WithNetwork(p netstatus.Provider) BrowseOption {
	return func(o *browseOptions) { o.network = p }
}

// NewBrowseService connects to the configured remote and creates a session
// positioned at its root. Listing snapshots are recorded when the cache is
// enabled or a store is supplied.
func NewBrowseService(ctx context.Context, cfg *config.Config, opts ...BrowseOption) (*BrowseService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	o := browseOptions{factory: Factory{}, policy: cfg.Sort}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Component("service")

	policy, err := sortpolicy.Lookup(o.policy, cfg.Locale)
	if err != nil {
		return nil, err
	}
	network := o.network
	if network == nil {
		if network, err = netstatus.New(cfg.Network.Mode); err != nil {
			return nil, err
		}
	}

	var prefs settings.Provider = settings.Static(cfg.Thumbnails.Download)
	if o.viper != nil {
		live := settings.NewLive(o.viper)
		if o.viper.ConfigFileUsed() != "" {
			live.Watch()
		}
		prefs = live
	}

	store := o.store
	if store == nil && cfg.Cache.Enabled {
		if store, err = state.Open(cfg.CacheDir()); err != nil {
			// Browsing works without the cache
			log.Warn("listing cache unavailable", "dir", cfg.CacheDir(), "error", err)
			store = nil
		} else if cfg.Cache.MaxAge > 0 {
			if n, err := store.Prune(time.Now().Add(-cfg.Cache.MaxAge)); err != nil {
				log.Warn("failed to prune listing cache", "error", err)
			} else if n > 0 {
				log.Debug("pruned listing cache", "snapshots", n)
			}
		}
	}

	remote := o.remote
	if remote == nil {
		if remote, err = o.factory.Create(ctx, cfg.Remote); err != nil {
			if store != nil && o.store == nil {
				store.Close()
			}
			return nil, err
		}
	}

	sessOpts := []session.Option{
		session.WithSettings(prefs),
		session.WithNetwork(network),
		session.WithLocale(cfg.Locale),
		session.WithSortPolicy(policy),
		session.WithThumbnailSize(cfg.Thumbnails.Size, cfg.Thumbnails.Size),
	}
	if o.reporter != nil {
		sessOpts = append(sessOpts, session.WithReporter(o.reporter))
	}
	if o.progress != nil {
		sessOpts = append(sessOpts, session.WithProgress(o.progress))
	}

	s := &BrowseService{
		cfg:      cfg,
		remote:   remote,
		sess:     session.New(remote, sessOpts...),
		store:    store,
		key:      RemoteKey(cfg.Remote),
		log:      log,
		settings: prefs,
	}

	if store != nil {
		s.events = s.sess.Subscribe()
		s.recorderDone = make(chan struct{})
		go s.record()
	}

	log.Info("browse service ready", "remote", s.key, "cache", store != nil)
	return s, nil
}

// record saves a snapshot after every finished listing
func (s *BrowseService) record() {
	defer close(s.recorderDone)
	for ev := range s.events {
		if ev.Type != events.ListingFinished {
			continue
		}
		dir, entries := s.sess.Snapshot()
		if dir != ev.Path {
			// A newer listing replaced the collection already
			continue
		}
		if err := s.store.SaveListing(s.key, dir, entries, time.Now()); err != nil {
			s.log.Warn("failed to record listing", "path", dir, "error", err)
		}
	}
}

// Session returns the directory session
func (s *BrowseService) Session() *session.Session {
	return s.sess
}

// Store returns the snapshot store, or nil when caching is off
func (s *BrowseService) Store() *state.Store {
	return s.store
}

// RemoteKey returns the cache key of the browsed remote
func (s *BrowseService) RemoteKey() string {
	return s.key
}

// Settings returns the download policy provider the session reads
func (s *BrowseService) Settings() settings.Provider {
	return s.settings
}

// Cached returns the last recorded snapshot of path, or nil
func (s *BrowseService) Cached(path string) (*state.Snapshot, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.LoadListing(s.key, path)
}

// StartAutoRefresh re-lists the current directory every interval until
// ctx is done or the service is closed
func (s *BrowseService) StartAutoRefresh(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("browse service closed")
	}
	if s.refresher != nil {
		return scheduler.ErrRunning
	}

	sched, err := scheduler.NewInterval(interval, s.sess)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}
	s.refresher = sched
	return nil
}

// RefreshStatus returns the auto-refresh status, or nil when not started
func (s *BrowseService) RefreshStatus() *scheduler.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refresher == nil {
		return nil
	}
	return s.refresher.Status()
}

// Close stops auto-refresh, closes the session, waits for the recorder and
// releases the store and adapter
func (s *BrowseService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sched := s.refresher
	s.mu.Unlock()

	var errs []error
	if sched != nil {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrNotRunning) {
			errs = append(errs, err)
		}
	}

	// Closing the session closes the recorder's channel
	if err := s.sess.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.recorderDone != nil {
		<-s.recorderDone
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if err := s.remote.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close adapter: %w", err))
	}
	return errors.Join(errs...)
}
