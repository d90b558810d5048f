package config

import (
	"github.com/spf13/viper"
)

// setDefaults registers the scalar defaults so environment overrides can
// reach them. The weight table is seeded from Default() before unmarshalling.
func setDefaults(v *viper.Viper) {
	d := Default()

	// Scheduler defaults
	v.SetDefault("scheduler.max_scheduled_per_block", d.Scheduler.MaxScheduledPerBlock)
	v.SetDefault("scheduler.maximum_weight.ref_time", d.Scheduler.MaximumWeight.RefTime)
	v.SetDefault("scheduler.maximum_weight.proof_size", d.Scheduler.MaximumWeight.ProofSize)
	v.SetDefault("scheduler.limits.max_inline_len", d.Scheduler.Limits.MaxInlineLen)
	v.SetDefault("scheduler.limits.max_preimage_len", d.Scheduler.Limits.MaxPreimageLen)
	v.SetDefault("scheduler.drop_permanently_overweight", d.Scheduler.DropPermanentlyOverweight)
	v.SetDefault("scheduler.max_ticks_per_pass", d.Scheduler.MaxTicksPerPass)
	v.SetDefault("scheduler.comparator", d.Scheduler.Comparator)
	v.SetDefault("scheduler.spec_version", d.Scheduler.SpecVersion)
	v.SetDefault("scheduler.start_tick", d.Scheduler.StartTick)
	v.SetDefault("scheduler.tick_interval", d.Scheduler.TickInterval)

	// Preimage defaults
	v.SetDefault("preimage.max_len", d.Preimage.MaxLen)
	v.SetDefault("preimage.cache_size", d.Preimage.CacheSize)
	v.SetDefault("preimage.compress_threshold", d.Preimage.CompressThreshold)

	// Storage defaults
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)

	// Journal defaults (disabled SQLite)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.driver", d.Journal.Driver)
	v.SetDefault("journal.connection_string", d.Journal.ConnectionString)
	v.SetDefault("journal.host", d.Journal.Host)
	v.SetDefault("journal.port", d.Journal.Port)
	v.SetDefault("journal.database", d.Journal.Database)
	v.SetDefault("journal.username", d.Journal.Username)
	v.SetDefault("journal.password", d.Journal.Password)
	v.SetDefault("journal.ssl_mode", d.Journal.SSLMode)
	v.SetDefault("journal.max_open_conns", d.Journal.MaxOpenConns)
	v.SetDefault("journal.max_idle_conns", d.Journal.MaxIdleConns)
	v.SetDefault("journal.conn_max_lifetime", d.Journal.ConnMaxLifetime)
	v.SetDefault("journal.default_timeout", d.Journal.DefaultTimeout)

	// Diagnostics defaults
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.address", d.Metrics.Address)
	v.SetDefault("metrics.path", d.Metrics.Path)
}
