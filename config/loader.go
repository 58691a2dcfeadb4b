package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
)

// Loader handles configuration loading with layers and overrides.
// Layers are applied in order: defaults first, then each file, then
// environment variables. Later layers override earlier ones field by
// field.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "ECHOPLAYER",
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	cfg := l.getDefaults()

	for _, path := range l.layers {
		if err := l.applyFile(cfg, path); err != nil {
			return nil, errors.WrapConfiguration(err, "Loader", "Load",
				fmt.Sprintf("load %s", path))
		}
	}

	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// getDefaults returns the default configuration. The data directory
// follows the platform config dir; everything else is a working local
// setup a user can run unmodified.
func (l *Loader) getDefaults() *Config {
	dataDir := ".echoplayer"
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "echoplayer")
	}

	return &Config{
		Version: "1.0.0",
		Player: PlayerConfig{
			DataDir:  dataDir,
			Language: "en",
		},
		Bridge: BridgeConfig{
			ListenAddr:     "127.0.0.1:43017",
			SnapshotPeriod: 5 * time.Second,
		},
		Dictionary: DictionaryConfig{
			BaseURL:        "https://api.dictionaryapi.dev/api/v2/entries",
			RequestTimeout: 5 * time.Second,
			RatePerSecond:  5,
			CacheTTL:       time.Hour,
		},
		Services: map[string]ServiceConfig{
			"storage": {
				Enabled:  true,
				Priority: 10,
			},
			"dictionary": {
				Enabled:      true,
				Dependencies: []string{"storage"},
			},
			"bridge": {
				Enabled:      true,
				Dependencies: []string{"storage"},
			},
		},
	}
}

// applyFile decodes one configuration file over the accumulated config.
// JSON and YAML are both supported, picked by file extension. Duration
// fields accept human-readable strings ("5s", "1h30m").
func (l *Loader) applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	}

	parseDurations(raw)

	// Route the normalized map through JSON so one decode path feeds the
	// typed config regardless of the source format. Fields absent from
	// the file keep their current values.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, cfg)
}

// durationKey reports whether a config key conventionally holds a
// duration, so its string value may be converted
func durationKey(key string) bool {
	for _, suffix := range []string{"_period", "_ttl", "_timeout", "_interval"} {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// parseDurations walks the raw config converting duration strings
// ("5s") under duration-suffixed keys into nanosecond counts, which is
// what the typed time.Duration fields decode from
func parseDurations(raw map[string]any) {
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			if durationKey(key) {
				if d, err := time.ParseDuration(v); err == nil {
					raw[key] = int64(d)
				}
			}
		case map[string]any:
			parseDurations(v)
		}
	}
}

// applyEnvOverrides applies ECHOPLAYER_* environment variables on top
// of the loaded configuration
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if v := l.env("DATA_DIR"); v != "" {
		cfg.Player.DataDir = v
	}
	if v := l.env("LANGUAGE"); v != "" {
		cfg.Player.Language = v
	}
	if v := l.env("BRIDGE_ADDR"); v != "" {
		cfg.Bridge.ListenAddr = v
	}
	if v := l.env("DICTIONARY_URL"); v != "" {
		cfg.Dictionary.BaseURL = v
	}
	if v := l.env("DICTIONARY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dictionary.RequestTimeout = d
		}
	}
}

func (l *Loader) env(key string) string {
	return os.Getenv(l.envPrefix + "_" + key)
}
