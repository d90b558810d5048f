package scheduler

import (
	"encoding/hex"
	"fmt"
	"math"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/preimage"
)

// Tick is a logical block height.
type Tick = uint32

// Priority orders tasks within a tick. Lower values are serviced first.
type Priority = uint8

const (
	// HighestPriority is serviced before every other priority.
	HighestPriority Priority = 0

	// LowestPriority is the default for callers that do not care.
	LowestPriority Priority = math.MaxUint8
)

// TaskName is an opaque identifier for a named task.
type TaskName [32]byte

// NameFromString maps a human-readable name to a TaskName. Names up to 32
// bytes are stored verbatim, longer ones are hashed.
func NameFromString(s string) TaskName {
	var n TaskName
	if len(s) <= len(n) {
		copy(n[:], s)
		return n
	}
	return TaskName(preimage.HashOf([]byte(s)))
}

func (n TaskName) String() string {
	end := len(n)
	for end > 0 && n[end-1] == 0 {
		end--
	}
	for _, b := range n[:end] {
		if b < 0x20 || b > 0x7e {
			return "0x" + hex.EncodeToString(n[:])
		}
	}
	return string(n[:end])
}

// TaskAddress locates a task by tick and slot.
type TaskAddress struct {
	When  Tick   `codec:"w"`
	Index uint32 `codec:"i"`
}

func (a TaskAddress) String() string {
	return fmt.Sprintf("%d#%d", a.When, a.Index)
}

// Period describes a repeating task: it runs every Interval ticks, Count
// more times after the current occurrence.
type Period struct {
	Interval Tick   `codec:"n" yaml:"interval"`
	Count    uint32 `codec:"c" yaml:"count"`
}

// sanitizePeriod applies a caller-supplied period: it is honoured only for
// Interval > 0 and Count > 1, and the stored count excludes the initial
// placement.
func sanitizePeriod(p *Period) *Period {
	if p == nil || p.Interval == 0 || p.Count <= 1 {
		return nil
	}
	return &Period{Interval: p.Interval, Count: p.Count - 1}
}

// Scheduled is one task occupying an agenda slot.
type Scheduled struct {
	ID          *TaskName
	Priority    Priority
	Call        Bounded
	Periodic    *Period
	Origin      origin.Origin
	SpecVersion uint32
}

// clone returns a copy that shares no pointers with s.
func (s *Scheduled) clone() *Scheduled {
	cp := *s
	if s.ID != nil {
		id := *s.ID
		cp.ID = &id
	}
	if s.Periodic != nil {
		p := *s.Periodic
		cp.Periodic = &p
	}
	cp.Call = s.Call.clone()
	return &cp
}

// DispatchTime is a target tick, either absolute or relative to now.
type DispatchTime struct {
	tick  Tick
	after bool
}

// At targets an absolute tick.
func At(tick Tick) DispatchTime { return DispatchTime{tick: tick} }

// After targets now + 1 + n.
func After(n Tick) DispatchTime { return DispatchTime{tick: n, after: true} }

// Resolve returns the absolute tick relative to now.
func (d DispatchTime) Resolve(now Tick) Tick {
	if !d.after {
		return d.tick
	}
	return satAdd(satAdd(now, d.tick), 1)
}

func (d DispatchTime) String() string {
	if d.after {
		return fmt.Sprintf("after(%d)", d.tick)
	}
	return fmt.Sprintf("at(%d)", d.tick)
}

func satAdd(a, b Tick) Tick {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}
