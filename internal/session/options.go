package session

import (
	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
	"github.com/Ning0612/Cloudbrowse/internal/netstatus"
	"github.com/Ning0612/Cloudbrowse/internal/progress"
	"github.com/Ning0612/Cloudbrowse/internal/report"
	"github.com/Ning0612/Cloudbrowse/internal/settings"
)

// Option configures a Session
type Option func(*Session)

// WithReporter sets the collaborator receiving reportable remote errors
func WithReporter(r report.Reporter) Option {
	return func(s *Session) { s.reporter = r }
}

// WithSettings sets the download policy provider
func WithSettings(p settings.Provider) Option {
	return func(s *Session) { s.settings = p }
}

// WithNetwork sets the network-status provider
func WithNetwork(p netstatus.Provider) Option {
	return func(s *Session) { s.network = p }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithLocale sets the BCP 47 locale used for date group keys
func WithLocale(locale string) Option {
	return func(s *Session) { s.locale = locale }
}

// WithThumbnailSize sets the preview bounding box
func WithThumbnailSize(width, height int) Option {
	return func(s *Session) {
		if width > 0 && height > 0 {
			s.thumbWidth, s.thumbHeight = width, height
		}
	}
}

// WithProgress sets the reporter for upload and download progress
func WithProgress(p progress.Reporter) Option {
	return func(s *Session) { s.progress = p }
}

// WithSortPolicy sets the initial sort policy
func WithSortPolicy(p sortpolicy.Policy) Option {
	return func(s *Session) { s.initialPolicy = p }
}
