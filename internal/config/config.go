package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
	"github.com/Ning0612/Cloudbrowse/internal/netstatus"
)

// Config represents the complete configuration for cloudbrowse
type Config struct {
	// Remote is the storage backend to browse
	Remote domain.Remote `mapstructure:"remote"`

	// Thumbnails controls preview prefetch
	Thumbnails ThumbnailConfig `mapstructure:"thumbnails"`

	// Network controls connectivity detection
	Network NetworkConfig `mapstructure:"network"`

	// Locale is a BCP 47 tag used for date group keys
	Locale string `mapstructure:"locale"`

	// Sort is the initial sort policy (name-asc, size-desc, ...)
	Sort string `mapstructure:"sort"`

	// Cache controls the offline listing snapshots
	Cache CacheConfig `mapstructure:"cache"`

	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CacheConfig 離線快取設定
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Dir holds the snapshot database; empty means the user cache dir
	Dir string `mapstructure:"dir"`

	// MaxAge prunes snapshots older than this on startup (0 keeps all)
	MaxAge time.Duration `mapstructure:"max_age"`
}

// ThumbnailConfig 縮圖設定
type ThumbnailConfig struct {
	// Download is the prefetch policy: always, wifi-only or never
	Download string `mapstructure:"download"`

	// Size is the bounding box edge in pixels
	Size int `mapstructure:"size"`
}

// NetworkConfig 網路設定
type NetworkConfig struct {
	// Mode is auto (sysfs detection), wifi or metered
	Mode string `mapstructure:"mode"`
}

// LogConfig 日誌設定
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig 監控設定
type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint; empty disables it
	Addr string `mapstructure:"addr"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	r := c.Remote
	if r.Type == "" {
		return fmt.Errorf("%w: remote type cannot be empty", domain.ErrConfigInvalid)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrRemoteTypeNotFound, r.Type)
	}

	switch r.Type {
	case domain.RemoteWebDAV, domain.RemoteS3:
		if r.URL == "" {
			return fmt.Errorf("%w: %s remote requires url", domain.ErrConfigInvalid, r.Type)
		}
	case domain.RemoteLocal:
		if r.Root == "" {
			return fmt.Errorf("%w: local remote requires root", domain.ErrConfigInvalid)
		}
	case domain.RemoteGDrive:
		if r.Option("client_id", "") == "" || r.Option("client_secret", "") == "" {
			return fmt.Errorf("%w: gdrive remote requires options.client_id and options.client_secret", domain.ErrConfigInvalid)
		}
	}

	if _, err := domain.ParseDownloadPolicy(c.Thumbnails.Download); err != nil {
		return fmt.Errorf("%w: thumbnails.download: %v", domain.ErrConfigInvalid, err)
	}
	if c.Thumbnails.Size <= 0 {
		return fmt.Errorf("%w: thumbnails.size must be positive, got %d", domain.ErrConfigInvalid, c.Thumbnails.Size)
	}
	if _, err := netstatus.New(c.Network.Mode); err != nil {
		return fmt.Errorf("%w: network.mode: %v", domain.ErrConfigInvalid, err)
	}
	if _, err := sortpolicy.Lookup(c.Sort, c.Locale); err != nil {
		return fmt.Errorf("%w: sort: %v", domain.ErrConfigInvalid, err)
	}

	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("%w: cache.max_age cannot be negative", domain.ErrConfigInvalid)
	}

	return nil
}

// CacheDir returns the resolved snapshot directory
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return ExpandPath(c.Cache.Dir)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cloudbrowse")
	}
	return filepath.Join(os.TempDir(), "cloudbrowse")
}

// LoggerConfig converts the log section into a logger configuration
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.Config{
		Level:  logger.ParseLevel(c.Log.Level),
		Format: logger.ParseFormat(c.Log.Format),
	}
	if c.Log.File != "" {
		lc.File = logger.FileConfig{
			Path:       ExpandPath(c.Log.File),
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxAgeDays: c.Log.MaxAgeDays,
			MaxBackups: c.Log.MaxBackups,
			Compress:   c.Log.Compress,
		}
	}
	return lc
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
