package cli

import (
	"context"
	"errors"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/dispatch"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/scheduler"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
)

var errNotInDispatch = errors.New("scheduler call used outside a dispatch")

// SpawnArgs makes scheduler.spawn place a system.remark carrying Data,
// After ticks past the dispatching tick, under Name when set.
type SpawnArgs struct {
	After    uint32 `codec:"a"`
	Name     string `codec:"n,omitempty"`
	Priority uint8  `codec:"p"`
	Data     []byte `codec:"d,omitempty"`
}

// CancelNamedArgs names the task scheduler.cancel_named removes.
type CancelNamedArgs struct {
	Name string `codec:"n"`
}

// registerSchedulerCalls installs calls that act on the scheduler from
// inside a dispatch, as the dispatching task's origin.
func registerSchedulerCalls(rt *dispatch.Router, cost weight.Weight) {
	rt.Handle("scheduler", "spawn", dispatch.Route{
		Weight: cost,
		Handler: func(ctx context.Context, o origin.Origin, args []byte) (weight.Weight, error) {
			h, ok := scheduler.HandleFromContext(ctx)
			if !ok {
				return weight.Zero, errNotInDispatch
			}
			var a SpawnArgs
			if err := dispatch.DecodeArgs(args, &a); err != nil {
				return weight.Zero, err
			}
			call, err := dispatch.NewCall("system", "remark", dispatch.RemarkArgs{Data: a.Data})
			if err != nil {
				return weight.Zero, err
			}
			if a.Name == "" {
				_, err = h.Schedule(scheduler.After(a.After), nil, a.Priority, o, call)
			} else {
				_, err = h.ScheduleNamed(scheduler.NameFromString(a.Name), scheduler.After(a.After), nil, a.Priority, o, call)
			}
			return weight.Zero, err
		},
	})
	rt.Handle("scheduler", "cancel_named", dispatch.Route{
		Weight: cost,
		Handler: func(ctx context.Context, o origin.Origin, args []byte) (weight.Weight, error) {
			h, ok := scheduler.HandleFromContext(ctx)
			if !ok {
				return weight.Zero, errNotInDispatch
			}
			var a CancelNamedArgs
			if err := dispatch.DecodeArgs(args, &a); err != nil {
				return weight.Zero, err
			}
			return weight.Zero, h.CancelNamed(o, scheduler.NameFromString(a.Name))
		},
	})
}
