package scheduler

import (
	"fmt"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
)

// Config holds the scheduler's tunables.
type Config struct {
	// MaxScheduledPerBlock is the capacity of every agenda.
	MaxScheduledPerBlock uint32 `mapstructure:"max_scheduled_per_block"`

	// MaximumWeight is the per-tick budget used by OnInitialize.
	MaximumWeight weight.Weight `mapstructure:"maximum_weight"`

	// Limits bound inline and preimage call sizes.
	Limits Limits `mapstructure:"limits"`

	// DropPermanentlyOverweight drops a task that does not fit even as the
	// first dispatch of a pass. When false such a task is postponed like
	// any other overweight task.
	DropPermanentlyOverweight bool `mapstructure:"drop_permanently_overweight"`

	// MaxTicksPerPass caps the ticks OnInitialize visits. Zero means no cap.
	MaxTicksPerPass uint32 `mapstructure:"max_ticks_per_pass"`
}

// DefaultConfig returns the defaults used by the daemon.
func DefaultConfig() Config {
	return Config{
		MaxScheduledPerBlock:      DefaultMaxScheduledPerBlock,
		MaximumWeight:             weight.FromParts(400_000_000_000, 5*1024*1024),
		Limits:                    DefaultLimits(),
		DropPermanentlyOverweight: true,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxScheduledPerBlock == 0 {
		return fmt.Errorf("max scheduled per block must be positive")
	}
	if c.MaximumWeight.IsZero() {
		return fmt.Errorf("maximum weight must be positive")
	}
	if c.Limits.MaxPreimageLen != 0 && c.Limits.MaxPreimageLen < c.Limits.MaxInlineLen {
		return fmt.Errorf("max preimage len %d is below max inline len %d",
			c.Limits.MaxPreimageLen, c.Limits.MaxInlineLen)
	}
	return nil
}
