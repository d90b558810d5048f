package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/dispatch"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
)

type handleKey struct{}

// Handle lets a call being dispatched by a servicing pass operate on the
// scheduler. Its operations are staged on top of the pass and committed
// with it. A handle is only valid for the duration of one dispatch.
//
// The context passed to Executor.Dispatch carries the handle, so calling
// the Scheduler's own methods with that context is equivalent. Calling them
// with any other context from inside a dispatch deadlocks.
type Handle struct {
	s      *Scheduler
	pass   *pass
	ctx    context.Context
	closed atomic.Bool
}

func newHandle(parent context.Context, s *Scheduler, p *pass) *Handle {
	h := &Handle{s: s, pass: p}
	h.ctx = context.WithValue(parent, handleKey{}, h)
	return h
}

func (h *Handle) close() { h.closed.Store(true) }

// HandleFromContext returns the handle of the dispatch ctx belongs to.
func HandleFromContext(ctx context.Context) (*Handle, bool) {
	h, ok := ctx.Value(handleKey{}).(*Handle)
	if !ok || h.closed.Load() {
		return nil, false
	}
	return h, true
}

func (s *Scheduler) handleFrom(ctx context.Context) *Handle {
	h, ok := HandleFromContext(ctx)
	if !ok || h.s != s {
		return nil
	}
	return h
}

// Now returns the tick being serviced.
func (h *Handle) Now() Tick { return h.pass.tx.now }

// Context returns the dispatch context carrying h.
func (h *Handle) Context() context.Context { return h.ctx }

func (h *Handle) Schedule(when DispatchTime, period *Period, priority Priority, o origin.Origin, call dispatch.Call) (TaskAddress, error) {
	return h.s.Schedule(h.ctx, when, period, priority, o, call)
}

func (h *Handle) ScheduleNamed(name TaskName, when DispatchTime, period *Period, priority Priority, o origin.Origin, call dispatch.Call) (TaskAddress, error) {
	return h.s.ScheduleNamed(h.ctx, name, when, period, priority, o, call)
}

func (h *Handle) Cancel(caller origin.Origin, when Tick, index uint32) error {
	return h.s.Cancel(h.ctx, caller, when, index)
}

func (h *Handle) CancelNamed(caller origin.Origin, name TaskName) error {
	return h.s.CancelNamed(h.ctx, caller, name)
}

func (h *Handle) ChangeNamedPriority(caller origin.Origin, name TaskName, priority Priority) error {
	return h.s.ChangeNamedPriority(h.ctx, caller, name, priority)
}

func (h *Handle) Reschedule(caller origin.Origin, when Tick, index uint32, newWhen DispatchTime) (TaskAddress, error) {
	return h.s.Reschedule(h.ctx, caller, when, index, newWhen)
}

func (h *Handle) RescheduleNamed(caller origin.Origin, name TaskName, newWhen DispatchTime) (TaskAddress, error) {
	return h.s.RescheduleNamed(h.ctx, caller, name, newWhen)
}
