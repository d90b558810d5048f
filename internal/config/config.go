package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/preimage"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/scheduler"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/journal"
)

// DefaultConfigFile is the file name looked up when no path is given.
const DefaultConfigFile = "schedd.toml"

// Config represents the complete schedd configuration
type Config struct {
	// Scheduler engine tunables
	Scheduler SchedulerConfig `toml:"scheduler" mapstructure:"scheduler"`

	// Weights is the cost table charged while servicing
	Weights weight.Table `toml:"weights" mapstructure:"weights"`

	// Preimage store settings
	Preimage preimage.Config `toml:"preimage" mapstructure:"preimage"`

	// Storage backend for agendas, lookups and preimages
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`

	// Journal of emitted events
	Journal journal.Config `toml:"journal" mapstructure:"journal"`

	// Diagnostics
	Log     log.Config    `toml:"log" mapstructure:"log"`
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// SchedulerConfig extends the engine config with daemon-level settings.
type SchedulerConfig struct {
	scheduler.Config `mapstructure:",squash"`

	// Comparator selects the privilege ordering: "ranked" or "equal".
	Comparator string `toml:"comparator" mapstructure:"comparator"`

	// SpecVersion is reported to the engine as the running software version.
	SpecVersion uint32 `toml:"spec_version" mapstructure:"spec_version"`

	// StartTick is the tick the driver starts from on an empty store.
	StartTick uint32 `toml:"start_tick" mapstructure:"start_tick"`

	// TickInterval is the wall-clock pause between ticks in `schedd run`.
	// Zero advances ticks as fast as they are serviced.
	TickInterval time.Duration `toml:"tick_interval" mapstructure:"tick_interval"`
}

// Storage backends.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

// StorageConfig selects the KV backend.
type StorageConfig struct {
	Backend string `toml:"backend" mapstructure:"backend"`
	Path    string `toml:"path" mapstructure:"path"`
}

// IsPersistent reports whether the backend keeps data on disk.
func (s StorageConfig) IsPersistent() bool {
	return s.Backend != BackendMemory
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Address string `toml:"address" mapstructure:"address"`
	Path    string `toml:"path" mapstructure:"path"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Config:      scheduler.DefaultConfig(),
			Comparator:  "ranked",
			SpecVersion: 1,
			StartTick:   1,
		},
		Weights:  *weight.DefaultTable(),
		Preimage: preimage.DefaultConfig(),
		Storage:  StorageConfig{Backend: BackendMemory},
		Journal:  journal.DefaultConfig(),
		Log:      log.Config{Level: "info", Format: "console"},
		Metrics:  MetricsConfig{Address: "127.0.0.1:9464", Path: "/metrics"},
	}
}

// GetConfigPath returns the path the configuration was loaded from
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// OriginComparator returns the configured privilege ordering.
func (c *Config) OriginComparator() (origin.Comparator, error) {
	switch strings.ToLower(c.Scheduler.Comparator) {
	case "", "ranked":
		return origin.Ranked, nil
	case "equal", "equal_privilege_only":
		return origin.EqualPrivilegeOnly, nil
	default:
		return nil, fmt.Errorf("unknown comparator %q", c.Scheduler.Comparator)
	}
}
