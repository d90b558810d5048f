package scheduler

import "sync"

// Clock reports the current tick.
type Clock interface {
	Now() Tick
}

// ManualClock is a Clock advanced explicitly by the driver.
type ManualClock struct {
	mu   sync.RWMutex
	tick Tick
}

// NewManualClock creates a clock at tick.
func NewManualClock(tick Tick) *ManualClock {
	return &ManualClock{tick: tick}
}

// Now returns the current tick.
func (c *ManualClock) Now() Tick {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tick
}

// Set moves the clock to tick.
func (c *ManualClock) Set(tick Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = tick
}

// VersionSource reports the running software version. Tasks record it at
// placement; a change disables the permanently-overweight drop.
type VersionSource interface {
	SpecVersion() uint32
}

// StaticVersion is a fixed VersionSource.
type StaticVersion uint32

func (v StaticVersion) SpecVersion() uint32 { return uint32(v) }
