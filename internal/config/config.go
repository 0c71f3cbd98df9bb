package config

import (
	"encoding/json"
	"errors"
	"time"
)

// Config represents the scribe configuration
type Config struct {
	// Data directory holding snapshots and logs
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Snapshot store
	Store StoreConfig `json:"store" mapstructure:"store"`

	// Watch mode
	Watch WatchConfig `json:"watch" mapstructure:"watch"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// StoreConfig holds snapshot directory configuration
type StoreConfig struct {
	Dir             string `json:"dir" mapstructure:"dir"`
	Format          string `json:"format" mapstructure:"format"` // json, yaml
	LoadConcurrency int    `json:"load_concurrency" mapstructure:"load_concurrency"`
}

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	DebounceMs     int    `json:"debounce_ms" mapstructure:"debounce_ms"`
	VerifySchedule string `json:"verify_schedule" mapstructure:"verify_schedule"` // cron spec, empty disables
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `json:"level" mapstructure:"level"` // debug, info, warn, error
	File     string `json:"file" mapstructure:"file"`
	Console  bool   `json:"console" mapstructure:"console"`
	Pretty   bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize  int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge   int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress bool   `json:"compress" mapstructure:"compress"`

	// Journal of store mutations, one JSON line each
	AuditFile string `json:"audit_file" mapstructure:"audit_file"`
}

// DefaultConfig returns the default configuration.
// Paths left empty are derived from DataDir by the loader.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Format:          "json",
			LoadConcurrency: 8,
		},
		Watch: WatchConfig{
			DebounceMs:     250,
			VerifySchedule: "@every 10m",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Console:  false,
			Pretty:   true,
			MaxSize:  10,
			MaxAge:   30,
			Compress: true,
		},
	}
}

// Debounce returns the watch debounce interval
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Store.Dir == "" {
		return errors.New("store.dir is required")
	}
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
