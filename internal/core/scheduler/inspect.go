package scheduler

import (
	"context"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/dispatch"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
)

// TaskInfo is a read-only snapshot of a placed task.
type TaskInfo struct {
	Address     TaskAddress
	ID          *TaskName
	Priority    Priority
	Periodic    *Period
	Origin      origin.Origin
	SpecVersion uint32
	Call        Bounded
}

// Agenda lists the tasks placed at when in slot order.
func (s *Scheduler) Agenda(ctx context.Context, when Tick) ([]TaskInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.store.Agenda(ctx, when)
	if err != nil || a == nil {
		return nil, err
	}
	var out []TaskInfo
	a.Each(func(index uint32, task *Scheduled) {
		out = append(out, TaskInfo{
			Address:     TaskAddress{When: when, Index: index},
			ID:          task.ID,
			Priority:    task.Priority,
			Periodic:    task.Periodic,
			Origin:      task.Origin,
			SpecVersion: task.SpecVersion,
			Call:        task.Call,
		})
	})
	return out, nil
}

// LookupAddress returns where the task named name is placed.
func (s *Scheduler) LookupAddress(ctx context.Context, name TaskName) (TaskAddress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Lookup(ctx, name)
}

// IncompleteSince returns the earliest tick left with work by the last pass.
func (s *Scheduler) IncompleteSince(ctx context.Context) (Tick, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.IncompleteSince(ctx)
}

// Ticks lists the ticks that hold tasks, ascending.
func (s *Scheduler) Ticks(ctx context.Context) ([]Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Ticks(ctx)
}

// PeekCall decodes the call of a placed task without releasing it.
func (s *Scheduler) PeekCall(ctx context.Context, info TaskInfo) (dispatch.Call, error) {
	call, _, err := info.Call.Peek(ctx, s.preimages)
	return call, err
}
