// Package settings exposes user preferences read by the browsing session.
package settings

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
)

// DownloadKey is the configuration key of the thumbnail download policy
const DownloadKey = "thumbnails.download"

// Provider exposes the current thumbnail download policy
type Provider interface {
	// DownloadPolicy returns the configured policy; an unrecognized value
	// is an error wrapping domain.ErrInvalidDownloadPolicy
	DownloadPolicy() (domain.DownloadPolicy, error)
}

// Static returns a fixed policy value
type Static string

// DownloadPolicy implements Provider
func (s Static) DownloadPolicy() (domain.DownloadPolicy, error) {
	return domain.ParseDownloadPolicy(string(s))
}

// Live is a viper-backed provider that follows edits of the config file
type Live struct {
	mu  sync.RWMutex
	raw string
	v   *viper.Viper
	log logger.Logger
}

// NewLive creates a provider from a loaded viper instance
func NewLive(v *viper.Viper) *Live {
	return &Live{
		raw: v.GetString(DownloadKey),
		v:   v,
		log: logger.Component("settings"),
	}
}

// Watch re-reads the policy whenever the config file changes
func (l *Live) Watch() {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		raw := l.reload()
		l.log.Info("settings reloaded", "file", e.Name, "download", raw)
	})
	l.v.WatchConfig()
}

func (l *Live) reload() string {
	raw := l.v.GetString(DownloadKey)
	l.mu.Lock()
	l.raw = raw
	l.mu.Unlock()
	return raw
}

// Set overrides the policy for the rest of the process
func (l *Live) Set(policy string) {
	l.mu.Lock()
	l.raw = policy
	l.mu.Unlock()
}

// DownloadPolicy implements Provider
func (l *Live) DownloadPolicy() (domain.DownloadPolicy, error) {
	l.mu.RLock()
	raw := l.raw
	l.mu.RUnlock()
	return domain.ParseDownloadPolicy(raw)
}
