package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("multiple validation errors:\n  - %s", strings.Join(messages, "\n  - "))
}

// ValidateConfig validates the complete configuration
func ValidateConfig(config *Config) error {
	var errors ValidationErrors

	errors = append(errors, validateScheduler(config)...)
	errors = append(errors, validateStorage(&config.Storage)...)
	errors = append(errors, validateJournal(config)...)
	errors = append(errors, validateDiagnostics(config)...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func validateScheduler(config *Config) []ValidationError {
	var errors []ValidationError
	s := &config.Scheduler

	if err := s.Config.Validate(); err != nil {
		errors = append(errors, ValidationError{Field: "scheduler", Value: s.MaxScheduledPerBlock, Message: err.Error()})
	}
	if _, err := config.OriginComparator(); err != nil {
		errors = append(errors, ValidationError{
			Field:   "scheduler.comparator",
			Value:   s.Comparator,
			Message: "must be one of: ranked, equal",
		})
	}
	if s.TickInterval < 0 {
		errors = append(errors, ValidationError{Field: "scheduler.tick_interval", Value: s.TickInterval, Message: "must not be negative"})
	}
	if config.Preimage.MaxLen != 0 && s.Limits.MaxPreimageLen > config.Preimage.MaxLen {
		errors = append(errors, ValidationError{
			Field:   "scheduler.limits.max_preimage_len",
			Value:   s.Limits.MaxPreimageLen,
			Message: fmt.Sprintf("exceeds preimage.max_len (%d)", config.Preimage.MaxLen),
		})
	}
	if config.Preimage.CacheSize < 0 {
		errors = append(errors, ValidationError{Field: "preimage.cache_size", Value: config.Preimage.CacheSize, Message: "must not be negative"})
	}
	return errors
}

func validateStorage(s *StorageConfig) []ValidationError {
	var errors []ValidationError

	s.Backend = strings.ToLower(s.Backend)
	switch s.Backend {
	case BackendMemory:
	case BackendPebble, BackendLevelDB:
		if s.Path == "" {
			errors = append(errors, ValidationError{Field: "storage.path", Value: s.Path, Message: "is required for persistent backends"})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "storage.backend",
			Value:   s.Backend,
			Message: "must be one of: memory, pebble, leveldb",
		})
	}
	return errors
}

func validateJournal(config *Config) []ValidationError {
	if !config.Journal.Enabled {
		return nil
	}
	if err := config.Journal.Validate(); err != nil {
		return []ValidationError{{Field: "journal", Value: config.Journal.Driver, Message: err.Error()}}
	}
	return nil
}

func validateDiagnostics(config *Config) []ValidationError {
	var errors []ValidationError

	switch strings.ToLower(config.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		errors = append(errors, ValidationError{Field: "log.level", Value: config.Log.Level, Message: "unknown level"})
	}
	switch strings.ToLower(config.Log.Format) {
	case "", "console", "json":
	default:
		errors = append(errors, ValidationError{Field: "log.format", Value: config.Log.Format, Message: "must be console or json"})
	}

	if config.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(config.Metrics.Address); err != nil {
			errors = append(errors, ValidationError{Field: "metrics.address", Value: config.Metrics.Address, Message: err.Error()})
		}
		if !strings.HasPrefix(config.Metrics.Path, "/") {
			errors = append(errors, ValidationError{Field: "metrics.path", Value: config.Metrics.Path, Message: "must start with /"})
		}
	}
	return errors
}
