package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// SCHEDD_SCHEDULER_MAX_SCHEDULED_PER_BLOCK.
const EnvPrefix = "SCHEDD"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (schedd.toml)
// 3. Environment variables (SCHEDD_ prefix)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load main configuration file
	if err := loadMainConfig(v, configPath); err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	return finish(v, configPath)
}

// LoadDefaultConfig loads schedd.toml from the working directory when it
// exists, and falls back to defaults plus environment otherwise.
func LoadDefaultConfig() (*Config, error) {
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return LoadConfig(DefaultConfigFile)
	}
	v := viper.New()
	setDefaults(v)
	return finish(v, "")
}

// finish applies environment overrides, unmarshals and validates.
func finish(v *viper.Viper, configPath string) (*Config, error) {
	// 3. Set up environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal on top of the defaults; the weight table has no scalar
	// defaults registered and keeps whatever the file does not override.
	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = configPath

	// 5. Validate the complete configuration
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// loadMainConfig loads the main configuration file
func loadMainConfig(v *viper.Viper, configPath string) error {
	if configPath == "" {
		return errors.New("config path cannot be empty")
	}

	v.SetConfigFile(configPath)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// SaveExampleConfig saves an example configuration file. It refuses to
// overwrite an existing file.
func SaveExampleConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	v := viper.New()
	for key, value := range generateExampleConfig() {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	return nil
}

// generateExampleConfig generates example configuration values
func generateExampleConfig() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"scheduler.max_scheduled_per_block":     d.Scheduler.MaxScheduledPerBlock,
		"scheduler.maximum_weight.ref_time":     d.Scheduler.MaximumWeight.RefTime,
		"scheduler.maximum_weight.proof_size":   d.Scheduler.MaximumWeight.ProofSize,
		"scheduler.limits.max_inline_len":       d.Scheduler.Limits.MaxInlineLen,
		"scheduler.limits.max_preimage_len":     d.Scheduler.Limits.MaxPreimageLen,
		"scheduler.drop_permanently_overweight": true,
		"scheduler.max_ticks_per_pass":          0,
		"scheduler.comparator":                  "ranked",
		"scheduler.spec_version":                1,
		"scheduler.start_tick":                  1,
		"scheduler.tick_interval":               "1s",

		"weights.service_task_base.base.ref_time":       d.Weights.TaskBase.Base.RefTime,
		"weights.execute_dispatch_signed.base.ref_time": d.Weights.DispatchSigned.Base.RefTime,

		"preimage.max_len":            d.Preimage.MaxLen,
		"preimage.cache_size":         d.Preimage.CacheSize,
		"preimage.compress_threshold": d.Preimage.CompressThreshold,

		"storage.backend": BackendPebble,
		"storage.path":    "/var/lib/schedd/db",

		"journal.enabled":  true,
		"journal.driver":   "sqlite",
		"journal.database": "/var/lib/schedd/journal.db",

		"log.level":  "info",
		"log.format": "console",

		"metrics.enabled": false,
		"metrics.address": d.Metrics.Address,
		"metrics.path":    d.Metrics.Path,
	}
}
