package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[scheduler]
max_scheduled_per_block = 8
drop_permanently_overweight = false
comparator = "equal"
tick_interval = "250ms"

[scheduler.maximum_weight]
ref_time = 1000
proof_size = 2000

[weights.service_task_base.base]
ref_time = 77

[storage]
backend = "pebble"
path = "/tmp/schedd-db"

[journal]
enabled = true
driver = "sqlite3"
database = "/tmp/journal.db"

[log]
level = "debug"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, config.GetConfigPath())
	assert.Equal(t, uint32(8), config.Scheduler.MaxScheduledPerBlock)
	assert.False(t, config.Scheduler.DropPermanentlyOverweight)
	assert.Equal(t, weight.FromParts(1000, 2000), config.Scheduler.MaximumWeight)
	assert.Equal(t, 250*time.Millisecond, config.Scheduler.TickInterval)
	assert.Equal(t, uint32(1), config.Scheduler.SpecVersion)

	// Overridden entry, plus untouched entries keep their defaults.
	def := weight.DefaultTable()
	assert.Equal(t, uint64(77), config.Weights.TaskBase.Base.RefTime)
	assert.Equal(t, def.DispatchSigned, config.Weights.DispatchSigned)
	assert.Equal(t, def.AgendaBase, config.Weights.AgendaBase)

	assert.Equal(t, BackendPebble, config.Storage.Backend)
	assert.True(t, config.Storage.IsPersistent())
	assert.True(t, config.Journal.Enabled)
	assert.Equal(t, "sqlite", config.Journal.Driver)
	assert.Equal(t, "debug", config.Log.Level)

	cmp, err := config.OriginComparator()
	require.NoError(t, err)
	_, ok := cmp.Compare(origin.Root{}, origin.None{})
	assert.False(t, ok)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "[scheduler]\nmax_scheduled_per_block = 8\n")
	t.Setenv("SCHEDD_SCHEDULER_MAX_SCHEDULED_PER_BLOCK", "16")
	t.Setenv("SCHEDD_LOG_FORMAT", "json")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), config.Scheduler.MaxScheduledPerBlock)
	assert.Equal(t, "json", config.Log.Format)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, `
[scheduler]
max_scheduled_per_block = 0
comparator = "alphabetical"

[storage]
backend = "leveldb"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"scheduler", "scheduler.comparator", "storage.path"}, fields)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "bolt" }, wantErr: true},
		{name: "backend case-insensitive", mutate: func(c *Config) { c.Storage.Backend = "MEMORY" }},
		{name: "negative interval", mutate: func(c *Config) { c.Scheduler.TickInterval = -time.Second }, wantErr: true},
		{name: "preimage limit above store", mutate: func(c *Config) { c.Preimage.MaxLen = 16 }, wantErr: true},
		{name: "bad journal ignored when disabled", mutate: func(c *Config) { c.Journal.Driver = "mysql" }},
		{name: "bad journal", mutate: func(c *Config) { c.Journal.Enabled = true; c.Journal.Driver = "mysql" }, wantErr: true},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "metrics address", mutate: func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Address = "nope" }, wantErr: true},
		{name: "metrics path", mutate: func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "metrics" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := ValidateConfig(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedd.toml")
	require.NoError(t, SaveExampleConfig(path))
	assert.Error(t, SaveExampleConfig(path), "must not overwrite")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendPebble, config.Storage.Backend)
	assert.Equal(t, time.Second, config.Scheduler.TickInterval)
	assert.True(t, config.Journal.Enabled)
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	one := ValidationErrors{{Field: "a", Value: 1, Message: "bad"}}
	assert.Contains(t, one.Error(), "'a'")
	two := append(one, ValidationError{Field: "b", Value: 2, Message: "worse"})
	assert.Contains(t, two.Error(), "multiple validation errors")
}
