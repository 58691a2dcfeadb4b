package config

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
)

// Config represents the complete application configuration
type Config struct {
	Version    string                   `json:"version" yaml:"version"`
	Player     PlayerConfig             `json:"player" yaml:"player"`
	Bridge     BridgeConfig             `json:"bridge" yaml:"bridge"`
	Dictionary DictionaryConfig         `json:"dictionary" yaml:"dictionary"`
	Services   map[string]ServiceConfig `json:"services" yaml:"services"`
}

// PlayerConfig holds player-level settings shared across services
type PlayerConfig struct {
	DataDir  string `json:"data_dir" yaml:"data_dir"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// BridgeConfig holds the UI bridge endpoint settings
type BridgeConfig struct {
	ListenAddr     string        `json:"listen_addr" yaml:"listen_addr"`
	SnapshotPeriod time.Duration `json:"snapshot_period,omitempty" yaml:"snapshot_period,omitempty"`
}

// DictionaryConfig holds the dictionary lookup settings
type DictionaryConfig struct {
	BaseURL        string        `json:"base_url" yaml:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	RatePerSecond  float64       `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty"`
	CacheTTL       time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
}

// ServiceConfig describes how one service is registered: whether it is
// created at all, its ordering priority, whether InitializeAll starts
// it, its dependency names, and free-form options handed to its
// initialize hook.
type ServiceConfig struct {
	Enabled      bool           `json:"enabled" yaml:"enabled"`
	Priority     int            `json:"priority,omitempty" yaml:"priority,omitempty"`
	AutoStart    *bool          `json:"auto_start,omitempty" yaml:"auto_start,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Options      map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// AutoStartEnabled reports whether the service participates in
// InitializeAll. Omitting auto_start means yes.
func (s ServiceConfig) AutoStartEnabled() bool {
	return s.AutoStart == nil || *s.AutoStart
}

// Validate checks the configuration for mistakes that would otherwise
// surface later as registry failures. All findings are configuration
// errors.
func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: version is required", errors.ErrInvalidConfig),
			"Config", "Validate", "version check")
	}
	if c.Player.DataDir == "" {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: player.data_dir is required", errors.ErrInvalidConfig),
			"Config", "Validate", "player check")
	}
	if c.Dictionary.RatePerSecond < 0 {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: dictionary.rate_per_second cannot be negative", errors.ErrInvalidConfig),
			"Config", "Validate", "dictionary check")
	}

	for name, svc := range c.Services {
		if name == "" {
			return errors.WrapConfiguration(
				fmt.Errorf("%w: service name cannot be empty", errors.ErrInvalidConfig),
				"Config", "Validate", "service name check")
		}
		for _, dep := range svc.Dependencies {
			if dep == name {
				return errors.WrapConfiguration(
					fmt.Errorf("%w: service %s depends on itself", errors.ErrInvalidConfig, name),
					"Config", "Validate", "dependency check")
			}
			if _, known := c.Services[dep]; !known {
				return errors.WrapConfiguration(
					fmt.Errorf("%w: service %s depends on unknown service %s",
						errors.ErrInvalidConfig, name, dep),
					"Config", "Validate", "dependency check")
			}
		}
	}
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}
	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically replaces the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapConfiguration(
			fmt.Errorf("%w: config cannot be nil", errors.ErrInvalidConfig),
			"SafeConfig", "Update", "nil check")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
