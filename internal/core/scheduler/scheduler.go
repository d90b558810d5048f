// Package scheduler runs calls at future ticks within a per-tick weight
// budget. Tasks live in fixed-capacity agendas keyed by tick; named tasks
// are also reachable through a lookup index.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/dispatch"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/preimage"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
)

// Options carries the scheduler's collaborators. Store, Preimages and
// Executor are required.
type Options struct {
	Store      Store
	Preimages  preimage.Provider
	Executor   dispatch.Executor
	Weights    weight.Info
	Comparator origin.Comparator
	Clock      Clock
	Version    VersionSource
	Sink       EventSink
	Metrics    *Metrics
	Logger     log.Logger
}

// Scheduler owns the agendas and services them once per tick. All public
// methods are safe for concurrent use; each runs atomically.
type Scheduler struct {
	mu sync.Mutex

	config Config

	store     Store
	preimages preimage.Provider
	executor  dispatch.Executor
	info      weight.Info
	cmp       origin.Comparator
	clock     Clock
	version   VersionSource
	sink      EventSink
	metrics   *Metrics
	logger    log.Logger
}

// New creates a scheduler with the given configuration.
func New(config Config, opts Options) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	if opts.Store == nil || opts.Preimages == nil || opts.Executor == nil {
		return nil, errors.New("scheduler requires a store, a preimage provider and an executor")
	}
	s := &Scheduler{
		config:    config,
		store:     opts.Store,
		preimages: opts.Preimages,
		executor:  opts.Executor,
		info:      opts.Weights,
		cmp:       opts.Comparator,
		clock:     opts.Clock,
		version:   opts.Version,
		sink:      opts.Sink,
		metrics:   opts.Metrics,
		logger:    opts.Logger.Component("scheduler"),
	}
	if s.info == nil {
		s.info = weight.DefaultTable()
	}
	if s.cmp == nil {
		s.cmp = origin.EqualPrivilegeOnly
	}
	if s.clock == nil {
		s.clock = NewManualClock(0)
	}
	if s.version == nil {
		s.version = StaticVersion(0)
	}
	if s.sink == nil {
		s.sink = NopSink{}
	}
	return s, nil
}

// Config returns the scheduler's configuration.
func (s *Scheduler) Config() Config { return s.config }

// txn is one logical operation in progress.
type txn struct {
	s   *Scheduler
	v   *view
	now Tick

	// flight is the task being dispatched, when running inside a pass.
	flight *inflight
}

type inflight struct {
	addr      TaskAddress
	task      *Scheduled
	cancelled bool
}

// run executes fn atomically. Inside a dispatch, fn stages on top of the
// running pass and is merged only if it succeeds; otherwise fn runs under
// the scheduler lock and its changes are committed.
func (s *Scheduler) run(ctx context.Context, fn func(tx *txn) error) error {
	if h := s.handleFrom(ctx); h != nil {
		parent := h.pass.tx
		tx := &txn{s: s, v: parent.v.child(), now: parent.now, flight: parent.flight}
		if err := fn(tx); err != nil {
			return err
		}
		parent.v.merge(tx.v)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{s: s, v: newView(ctx, s.store, s.config.MaxScheduledPerBlock), now: s.clock.Now()}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(ctx, tx.v)
}

// commit writes the staged changes, then releases preimages and emits
// events. When the write fails nothing is emitted and only the preimages
// noted for the discarded tasks are released.
func (s *Scheduler) commit(ctx context.Context, v *view) error {
	if err := s.store.Commit(ctx, v.changeset()); err != nil {
		s.logger.Error("failed to commit scheduler state", log.Err(err))
		s.discard(ctx, v)
		return err
	}
	for _, b := range v.releases {
		if err := b.Drop(ctx, s.preimages); err != nil {
			s.logger.Warn("failed to release preimage", log.Stringer("call", b), log.Err(err))
		}
	}
	s.metrics.observeEvents(v.events)
	for _, ev := range v.events {
		s.sink.Emit(ev)
	}
	return nil
}

// discard releases the preimages noted for tasks staged in v.
func (s *Scheduler) discard(ctx context.Context, v *view) {
	for _, b := range v.notes {
		if err := b.Drop(ctx, s.preimages); err != nil {
			s.logger.Warn("failed to release preimage", log.Stringer("call", b), log.Err(err))
		}
	}
	v.notes = nil
}

func (tx *txn) ctx() context.Context { return tx.v.ctx }

func (tx *txn) resolve(when DispatchTime) (Tick, error) {
	t := when.Resolve(tx.now)
	if t <= tx.now {
		return 0, fmt.Errorf("%w: %d <= %d", ErrTargetBlockNumberInPast, t, tx.now)
	}
	return t, nil
}

// place puts task at when, failing with ErrAgendaIsExhausted if full.
func (tx *txn) place(when Tick, task *Scheduled) (TaskAddress, error) {
	a, err := tx.v.agenda(when)
	if err != nil {
		return TaskAddress{}, err
	}
	index, _, ok := a.TryPush(task)
	if !ok {
		return TaskAddress{}, fmt.Errorf("%w: tick %d", ErrAgendaIsExhausted, when)
	}
	tx.v.touch(when)
	addr := TaskAddress{When: when, Index: index}
	if task.ID != nil {
		tx.v.setLookup(*task.ID, addr)
	}
	tx.v.emit(Event{Kind: EventScheduled, Task: addr, Tick: tx.now})
	return addr, nil
}

// placeMandatory walks forward from when until a tick has room.
func (tx *txn) placeMandatory(when Tick, task *Scheduled) (TaskAddress, error) {
	for {
		addr, err := tx.place(when, task)
		if !errors.Is(err, ErrAgendaIsExhausted) || when == math.MaxUint32 {
			return addr, err
		}
		when++
	}
}

func (tx *txn) schedule(when DispatchTime, id *TaskName, period *Period, priority Priority, o origin.Origin, call Bounded) (TaskAddress, error) {
	if id != nil {
		_, taken, err := tx.v.lookup(*id)
		if err != nil {
			return TaskAddress{}, err
		}
		if taken {
			return TaskAddress{}, fmt.Errorf("%w: name %s in use", ErrFailedToSchedule, id)
		}
	}
	t, err := tx.resolve(when)
	if err != nil {
		return TaskAddress{}, err
	}
	task := &Scheduled{
		ID:          id,
		Priority:    priority,
		Call:        call,
		Periodic:    sanitizePeriod(period),
		Origin:      o,
		SpecVersion: tx.s.version.SpecVersion(),
	}
	return tx.place(t, task)
}

// taskAt returns the task at addr. The in-flight task counts as present
// although its slot is vacated during dispatch.
func (tx *txn) taskAt(addr TaskAddress) (*Scheduled, bool, error) {
	if f := tx.flight; f != nil && f.addr == addr {
		if f.cancelled {
			return nil, false, nil
		}
		return f.task, true, nil
	}
	a, err := tx.v.agenda(addr.When)
	if err != nil {
		return nil, false, err
	}
	task, _ := a.Get(addr.Index)
	return task, false, nil
}

// authorize checks that caller may act on task. A nil caller is internal
// and always allowed.
func (tx *txn) authorize(caller origin.Origin, task *Scheduled) error {
	if caller == nil {
		return nil
	}
	if !origin.Allows(tx.s.cmp, caller, task.Origin) {
		return fmt.Errorf("%w: %v may not act on task of %v", ErrBadOrigin, caller, task.Origin)
	}
	return nil
}

func (tx *txn) cancel(caller origin.Origin, addr TaskAddress) error {
	task, inFlight, err := tx.taskAt(addr)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	if err := tx.authorize(caller, task); err != nil {
		return err
	}
	if task.ID != nil {
		tx.v.removeLookup(*task.ID)
	}
	tx.v.emit(Event{Kind: EventCanceled, Task: addr, Tick: tx.now})
	if inFlight {
		// The servicing pass releases the call once dispatch returns.
		tx.flight.cancelled = true
		return nil
	}

	a, err := tx.v.agenda(addr.When)
	if err != nil {
		return err
	}
	a.Take(addr.Index)
	tx.v.touch(addr.When)
	tx.v.release(task.Call)
	return nil
}

func (tx *txn) cancelNamed(caller origin.Origin, name TaskName) error {
	addr, ok, err := tx.v.lookup(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: name %s", ErrNotFound, name)
	}
	return tx.cancel(caller, addr)
}

func (tx *txn) changeNamedPriority(caller origin.Origin, name TaskName, priority Priority) error {
	addr, ok, err := tx.v.lookup(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: name %s", ErrNotFound, name)
	}
	task, inFlight, err := tx.taskAt(addr)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("%w: name %s", ErrNotFound, name)
	}
	if err := tx.authorize(caller, task); err != nil {
		return err
	}
	task.Priority = priority
	if !inFlight {
		tx.v.touch(addr.When)
	}
	tx.v.emit(Event{Kind: EventPriorityChanged, Task: addr, Priority: priority, Tick: tx.now})
	return nil
}

// move takes the task at addr out of its agenda and places it at newWhen.
func (tx *txn) move(caller origin.Origin, addr TaskAddress, newWhen Tick, anonymous bool) (TaskAddress, error) {
	task, inFlight, err := tx.taskAt(addr)
	if err != nil {
		return TaskAddress{}, err
	}
	if task == nil || inFlight {
		return TaskAddress{}, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	if anonymous && task.ID != nil {
		return TaskAddress{}, fmt.Errorf("%w: %s is %s", ErrNamed, addr, task.ID)
	}
	if err := tx.authorize(caller, task); err != nil {
		return TaskAddress{}, err
	}

	a, err := tx.v.agenda(addr.When)
	if err != nil {
		return TaskAddress{}, err
	}
	a.Take(addr.Index)
	tx.v.touch(addr.When)
	tx.v.emit(Event{Kind: EventCanceled, Task: addr, Tick: tx.now})
	return tx.place(newWhen, task)
}

func (tx *txn) reschedule(caller origin.Origin, addr TaskAddress, newWhen DispatchTime) (TaskAddress, error) {
	t, err := tx.resolve(newWhen)
	if err != nil {
		return TaskAddress{}, err
	}
	if t == addr.When {
		return TaskAddress{}, ErrRescheduleNoChange
	}
	return tx.move(caller, addr, t, true)
}

func (tx *txn) rescheduleNamed(caller origin.Origin, name TaskName, newWhen DispatchTime) (TaskAddress, error) {
	t, err := tx.resolve(newWhen)
	if err != nil {
		return TaskAddress{}, err
	}
	addr, ok, err := tx.v.lookup(name)
	if err != nil {
		return TaskAddress{}, err
	}
	if !ok {
		return TaskAddress{}, fmt.Errorf("%w: name %s", ErrNotFound, name)
	}
	if t == addr.When {
		return TaskAddress{}, ErrRescheduleNoChange
	}
	return tx.move(caller, addr, t, false)
}

// Schedule places an anonymous task. A nil period schedules a single run.
func (s *Scheduler) Schedule(ctx context.Context, when DispatchTime, period *Period, priority Priority, o origin.Origin, call dispatch.Call) (TaskAddress, error) {
	return s.scheduleBounded(ctx, when, nil, period, priority, o, call)
}

// ScheduleNamed places a task reachable by name. The name must not be in
// use by another scheduled task.
func (s *Scheduler) ScheduleNamed(ctx context.Context, name TaskName, when DispatchTime, period *Period, priority Priority, o origin.Origin, call dispatch.Call) (TaskAddress, error) {
	id := name
	return s.scheduleBounded(ctx, when, &id, period, priority, o, call)
}

func (s *Scheduler) scheduleBounded(ctx context.Context, when DispatchTime, id *TaskName, period *Period, priority Priority, o origin.Origin, call dispatch.Call) (TaskAddress, error) {
	bounded, err := Bound(ctx, call, s.preimages, s.config.Limits)
	if err != nil {
		return TaskAddress{}, err
	}

	var addr TaskAddress
	staged := false
	err = s.run(ctx, func(tx *txn) error {
		var err error
		addr, err = tx.schedule(when, id, period, priority, o, bounded)
		if err == nil {
			tx.v.noted(bounded)
			staged = true
		}
		return err
	})
	if err != nil {
		if staged {
			// Released with the rest of the discarded view.
			return TaskAddress{}, err
		}
		if derr := bounded.Drop(ctx, s.preimages); derr != nil {
			s.logger.Warn("failed to release preimage", log.Stringer("call", bounded), log.Err(derr))
		}
		return TaskAddress{}, err
	}

	s.logger.Debug("task scheduled",
		log.Stringer("task", addr),
		log.String("call", call.Name()),
		log.Stringer("bounded", bounded),
		log.Int("priority", int(priority)))
	return addr, nil
}

// Cancel removes the task at (when, index). A nil caller skips the
// privilege check.
func (s *Scheduler) Cancel(ctx context.Context, caller origin.Origin, when Tick, index uint32) error {
	return s.run(ctx, func(tx *txn) error {
		return tx.cancel(caller, TaskAddress{When: when, Index: index})
	})
}

// CancelNamed removes the task registered under name.
func (s *Scheduler) CancelNamed(ctx context.Context, caller origin.Origin, name TaskName) error {
	return s.run(ctx, func(tx *txn) error {
		return tx.cancelNamed(caller, name)
	})
}

// ChangeNamedPriority sets the priority of a named task in place.
func (s *Scheduler) ChangeNamedPriority(ctx context.Context, caller origin.Origin, name TaskName, priority Priority) error {
	return s.run(ctx, func(tx *txn) error {
		return tx.changeNamedPriority(caller, name, priority)
	})
}

// Reschedule moves an anonymous task to another tick.
func (s *Scheduler) Reschedule(ctx context.Context, caller origin.Origin, when Tick, index uint32, newWhen DispatchTime) (TaskAddress, error) {
	var addr TaskAddress
	err := s.run(ctx, func(tx *txn) error {
		var err error
		addr, err = tx.reschedule(caller, TaskAddress{When: when, Index: index}, newWhen)
		return err
	})
	return addr, err
}

// RescheduleNamed moves a named task to another tick.
func (s *Scheduler) RescheduleNamed(ctx context.Context, caller origin.Origin, name TaskName, newWhen DispatchTime) (TaskAddress, error) {
	var addr TaskAddress
	err := s.run(ctx, func(tx *txn) error {
		var err error
		addr, err = tx.rescheduleNamed(caller, name, newWhen)
		return err
	})
	return addr, err
}

// Operation names a caller-facing scheduler operation for weight lookup.
type Operation uint8

const (
	OpSchedule Operation = iota
	OpScheduleNamed
	OpCancel
	OpCancelNamed
)

// OperationWeight returns the worst-case weight of op, priced at a full agenda.
func (s *Scheduler) OperationWeight(op Operation) weight.Weight {
	n := s.config.MaxScheduledPerBlock
	switch op {
	case OpScheduleNamed:
		return s.info.ScheduleNamed(n)
	case OpCancel:
		return s.info.Cancel(n)
	case OpCancelNamed:
		return s.info.CancelNamed(n)
	default:
		return s.info.Schedule(n)
	}
}
