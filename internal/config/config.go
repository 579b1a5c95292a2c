package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file tome looks for in the working directory.
const DefaultPath = "tome.yml"

// Storage backends
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Defaults applied by Validate
const (
	DefaultLibrary         = "default"
	DefaultFilePath        = "tome.json"
	DefaultBadgerDir       = ".tome/db"
	DefaultRedisURL        = "redis://localhost:6379/0"
	DefaultSearchLimit     = 20
	DefaultNotificationTTL = 3 * time.Second
)

// TomeConfig represents the top-level tome.yml configuration
type TomeConfig struct {
	Version       string               `yaml:"version"`
	Library       string               `yaml:"library,omitempty"` // Namespace for shared backends (redis)
	Storage       *StorageConfig       `yaml:"storage,omitempty"`
	Search        *SearchConfig        `yaml:"search,omitempty"`
	Notifications *NotificationsConfig `yaml:"notifications,omitempty"`
	Campaigns     *CampaignsConfig     `yaml:"campaigns,omitempty"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Backend string         `yaml:"backend"` // file, badger or redis
	File    *FileStorage   `yaml:"file,omitempty"`
	Badger  *BadgerStorage `yaml:"badger,omitempty"`
	Redis   *RedisStorage  `yaml:"redis,omitempty"`
}

// FileStorage keeps the campaign list in one JSON file
type FileStorage struct {
	Path string `yaml:"path"`
}

// BadgerStorage keeps the campaign list in an embedded database directory
type BadgerStorage struct {
	Dir string `yaml:"dir"`
}

// RedisStorage keeps the campaign list on a Redis server
type RedisStorage struct {
	URL string `yaml:"url"`
}

// SearchConfig tunes search results
type SearchConfig struct {
	Limit *int `yaml:"limit,omitempty"` // Maximum matches returned (default 20)
}

// NotificationsConfig tunes transient messages
type NotificationsConfig struct {
	TTL string `yaml:"ttl,omitempty"` // Go duration, e.g. "3s"
}

// CampaignsConfig controls new campaigns
type CampaignsConfig struct {
	Seed *bool `yaml:"seed,omitempty"` // Add one starter record per category (default true)
}

// Default returns a validated configuration with every default applied.
func Default() *TomeConfig {
	cfg := &TomeConfig{Version: "1.0"}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Validate performs strict validation on the configuration and applies defaults
func (c *TomeConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Library == "" {
		c.Library = DefaultLibrary
	}

	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if c.Search == nil {
		c.Search = &SearchConfig{}
	}
	if c.Search.Limit == nil {
		limit := DefaultSearchLimit
		c.Search.Limit = &limit
	}
	if *c.Search.Limit < 1 {
		return fmt.Errorf("search.limit must be >= 1, got %d", *c.Search.Limit)
	}

	if c.Notifications == nil {
		c.Notifications = &NotificationsConfig{}
	}
	if c.Notifications.TTL == "" {
		c.Notifications.TTL = DefaultNotificationTTL.String()
	}
	ttl, err := time.ParseDuration(c.Notifications.TTL)
	if err != nil {
		return fmt.Errorf("notifications.ttl: invalid duration %q", c.Notifications.TTL)
	}
	if ttl <= 0 {
		return fmt.Errorf("notifications.ttl must be positive, got %s", c.Notifications.TTL)
	}

	if c.Campaigns == nil {
		c.Campaigns = &CampaignsConfig{}
	}
	if c.Campaigns.Seed == nil {
		seed := true
		c.Campaigns.Seed = &seed
	}

	return nil
}

// Validate checks the backend name and fills in the settings of the selected backend
func (s *StorageConfig) Validate() error {
	if s.Backend == "" {
		s.Backend = BackendFile
	}

	switch s.Backend {
	case BackendFile:
		if s.File == nil {
			s.File = &FileStorage{}
		}
		if s.File.Path == "" {
			s.File.Path = DefaultFilePath
		}
	case BackendBadger:
		if s.Badger == nil {
			s.Badger = &BadgerStorage{}
		}
		if s.Badger.Dir == "" {
			s.Badger.Dir = DefaultBadgerDir
		}
	case BackendRedis:
		if s.Redis == nil {
			s.Redis = &RedisStorage{}
		}
		if s.Redis.URL == "" {
			s.Redis.URL = DefaultRedisURL
		}
	default:
		return fmt.Errorf("invalid storage.backend: %s (must be 'file', 'badger', or 'redis')", s.Backend)
	}

	return nil
}

// NotificationTTL returns the parsed notification lifetime. Only valid after Validate.
func (c *TomeConfig) NotificationTTL() time.Duration {
	ttl, err := time.ParseDuration(c.Notifications.TTL)
	if err != nil {
		return DefaultNotificationTTL
	}
	return ttl
}

// SearchLimit returns the configured result cap. Only valid after Validate.
func (c *TomeConfig) SearchLimit() int {
	return *c.Search.Limit
}

// SeedCampaigns reports whether new campaigns get starter records. Only valid after Validate.
func (c *TomeConfig) SeedCampaigns() bool {
	return *c.Campaigns.Seed
}

// Resolve makes relative storage paths relative to base (the directory holding tome.yml).
func (c *TomeConfig) Resolve(base string) {
	if c.Storage.File != nil && !filepath.IsAbs(c.Storage.File.Path) {
		c.Storage.File.Path = filepath.Join(base, c.Storage.File.Path)
	}
	if c.Storage.Badger != nil && !filepath.IsAbs(c.Storage.Badger.Dir) {
		c.Storage.Badger.Dir = filepath.Join(base, c.Storage.Badger.Dir)
	}
}

// Load reads and validates tome.yml from the specified path. Relative storage paths
// are resolved against the file's directory.
func Load(path string) (*TomeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config TomeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.Resolve(filepath.Dir(path))
	return &config, nil
}
