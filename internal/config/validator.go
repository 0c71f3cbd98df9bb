package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

var (
	logLevels    = []string{"debug", "info", "warn", "error"}
	storeFormats = []string{"json", "yaml"}
)

func oneOf(what, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid %s: %s (must be one of: %s)", what, value, strings.Join(allowed, ", "))
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	return oneOf("log level", level, logLevels)
}

// ValidateFormat validates the snapshot write format
func (v *Validator) ValidateFormat(format string) error {
	return oneOf("store format", format, storeFormats)
}

// ValidateSchedule validates a cron spec such as "@every 10m" or "0 * * * *".
// An empty schedule is valid and disables scheduled verification.
func (v *Validator) ValidateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid verify schedule %q: %w", spec, err)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateFormat(cfg.Store.Format); err != nil {
		errors = append(errors, err)
	}
	if cfg.Store.LoadConcurrency < 0 {
		errors = append(errors, fmt.Errorf("store.load_concurrency must be >= 0"))
	}

	if cfg.Watch.DebounceMs < 0 {
		errors = append(errors, fmt.Errorf("watch.debounce_ms must be >= 0"))
	}
	if err := v.ValidateSchedule(cfg.Watch.VerifySchedule); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging.max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging.max_age must be >= 0"))
	}

	return errors
}
