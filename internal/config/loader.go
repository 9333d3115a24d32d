package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. CLOUDBROWSE_REMOTE_URL
const EnvPrefix = "CLOUDBROWSE"

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "cloudbrowse"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "cloudbrowse"))
		paths = append(paths, filepath.Join(homeDir, ".cloudbrowse"))
	}

	return paths
}

// NewViper returns a viper instance with defaults and env overrides set.
// If path is empty, config.yaml is searched in the default locations.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("remote.root", "/")
	v.SetDefault("thumbnails.download", string(domain.DownloadAlways))
	v.SetDefault("thumbnails.size", 120)
	v.SetDefault("network.mode", "auto")
	v.SetDefault("locale", "en-US")
	v.SetDefault("sort", "name-asc")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_age", "720h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.max_backups", 3)

	// Bind remote keys so env overrides apply without a config file
	for _, key := range []string{"remote.type", "remote.url", "remote.username", "remote.password"} {
		_ = v.BindEnv(key)
	}
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for config.yaml.
func Load(path string) (*Config, error) {
	v := NewViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	return decode(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := NewViper("")
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	return decode(v)
}

// Decode unmarshals and validates a configuration from an already
// loaded viper instance
func Decode(v *viper.Viper) (*Config, error) {
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	if cfg.Remote.Type == domain.RemoteLocal {
		cfg.Remote.Root = ExpandPath(cfg.Remote.Root)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
