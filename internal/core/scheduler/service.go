package scheduler

import (
	"context"
	"errors"
	"math"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
)

// pass is the state of one servicing run.
type pass struct {
	tx      *txn
	counter *weight.Counter

	// executed counts tasks dispatched so far in this pass.
	executed  uint32
	postponed int
}

type taskOutcome uint8

const (
	taskExecuted taskOutcome = iota
	taskDropped
	taskPostponed
)

// OnInitialize services the agendas due at now with the configured
// per-tick budget and returns the weight consumed.
func (s *Scheduler) OnInitialize(ctx context.Context, now Tick) (weight.Weight, error) {
	counter := weight.NewCounter(s.config.MaximumWeight)
	maxTicks := s.config.MaxTicksPerPass
	if maxTicks == 0 {
		maxTicks = math.MaxUint32
	}
	err := s.ServiceAgendas(ctx, counter, now, maxTicks)
	return counter.Consumed(), err
}

// ServiceAgendas runs due tasks from the oldest incomplete tick up to now,
// visiting at most maxTicks ticks and charging counter for all work. Tasks
// that do not fit stay in place and the earliest tick left with work is
// recorded for the next pass. A failed pass is discarded but still leaves
// the marker at its first tick so a later pass resumes there.
func (s *Scheduler) ServiceAgendas(ctx context.Context, counter *weight.Counter, now Tick, maxTicks uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !counter.CheckAccrue(s.info.ServiceAgendasBase()) {
		s.logger.Debug("budget too small for a servicing pass", log.Stringer("limit", counter.Limit()))
		return nil
	}

	p := &pass{
		tx:      &txn{s: s, v: newView(ctx, s.store, s.config.MaxScheduledPerBlock), now: now},
		counter: counter,
	}

	start, ok, err := p.tx.v.incompleteSince()
	if err != nil {
		return err
	}
	if !ok {
		start = now
	}

	maxItems := s.config.MaxScheduledPerBlock
	incompleteSince := uint64(now) + 1
	when := uint64(start)
	for count := maxTicks; count > 0 && when <= uint64(now) &&
		counter.CanAccrue(s.info.ServiceAgendaBase(maxItems)); count-- {
		done, err := p.serviceAgenda(Tick(when), math.MaxUint32)
		if err != nil {
			s.discard(ctx, p.tx.v)
			s.markIncomplete(ctx, start)
			return err
		}
		if !done {
			incompleteSince = min(incompleteSince, when)
		}
		when++
	}
	incompleteSince = min(incompleteSince, when)

	var marker *Tick
	if incompleteSince <= uint64(now) {
		t := Tick(incompleteSince)
		marker = &t
	}
	p.tx.v.setIncompleteSince(marker)

	if err := s.commit(ctx, p.tx.v); err != nil {
		s.markIncomplete(ctx, start)
		return err
	}
	s.metrics.observePass(counter.Consumed(), p.postponed, marker)

	if marker != nil {
		s.logger.Debug("servicing pass left backlog",
			log.Uint32("now", now),
			log.Uint32("incomplete_since", *marker),
			log.Int("postponed", p.postponed))
	}
	return nil
}

// markIncomplete moves the stored marker back to since so the ticks of a
// discarded pass are serviced again.
func (s *Scheduler) markIncomplete(ctx context.Context, since Tick) {
	cur, ok, err := s.store.IncompleteSince(ctx)
	if err != nil {
		s.logger.Error("failed to read incomplete marker", log.Err(err))
		return
	}
	if ok && cur <= since {
		return
	}
	if err := s.store.Commit(ctx, &Changeset{IncompleteSince: &since, IncompleteSinceSet: true}); err != nil {
		s.logger.Error("failed to record incomplete marker", log.Uint32("since", since), log.Err(err))
	}
}

// serviceAgenda runs the tasks due at when in priority order and reports
// whether none had to be postponed.
func (p *pass) serviceAgenda(when Tick, maxItems uint32) (bool, error) {
	s := p.tx.s
	a, err := p.tx.v.agenda(when)
	if err != nil {
		return false, err
	}
	ordered := a.Ordered()
	p.counter.CheckAccrue(s.info.ServiceAgendaBase(uint32(len(ordered))))
	if len(ordered) == 0 {
		return true, nil
	}
	p.tx.v.touch(when)

	postponed := 0
	if uint64(len(ordered)) > uint64(maxItems) {
		postponed = len(ordered) - int(maxItems)
		ordered = ordered[:maxItems]
	}

	for _, slot := range ordered {
		task, ok := a.Take(slot.Index)
		if !ok {
			// Removed by an earlier dispatch in this pass.
			continue
		}
		addr := TaskAddress{When: when, Index: slot.Index}
		base := weight.ServiceTask(s.info, task.Call.LookupLen(), task.ID != nil, task.Periodic != nil)
		if !p.counter.CanAccrue(base) {
			a.Set(slot.Index, task)
			postponed++
			continue
		}

		outcome, err := p.serviceTask(addr, base, task)
		if err != nil {
			return false, err
		}
		switch outcome {
		case taskExecuted:
			p.executed++
		case taskPostponed:
			a.Set(slot.Index, task)
			postponed++
		}
	}

	p.postponed += postponed
	return postponed == 0, nil
}

// serviceTask resolves and dispatches one task that has been taken out of
// its slot. On taskPostponed the caller puts it back.
func (p *pass) serviceTask(addr TaskAddress, base weight.Weight, task *Scheduled) (taskOutcome, error) {
	tx := p.tx
	s := tx.s
	ctx := tx.ctx()

	call, _, err := task.Call.Peek(ctx, s.preimages)
	if errors.Is(err, ErrPreimageNotFound) || errors.Is(err, ErrScheduledCallCorrupted) {
		s.logger.Warn("scheduled call unavailable", log.Stringer("task", addr), log.Err(err))
		if err := tx.forget(task, addr); err != nil {
			return 0, err
		}
		tx.v.release(task.Call)
		tx.v.emit(Event{Kind: EventCallUnavailable, Task: addr, ID: task.ID, Tick: tx.now})
		return taskDropped, nil
	}
	if err != nil {
		return 0, err
	}

	p.counter.CheckAccrue(base)

	dispatchBase := s.info.ExecuteDispatchUnsigned()
	if task.Origin != nil && task.Origin.Kind() == origin.KindSigned {
		dispatchBase = s.info.ExecuteDispatchSigned()
	}
	declared := s.executor.Weight(call)
	if !p.counter.CanAccrue(dispatchBase.SaturatingAdd(declared)) {
		if p.executed == 0 && s.config.DropPermanentlyOverweight && task.SpecVersion == s.version.SpecVersion() {
			s.logger.Warn("dropping permanently overweight task",
				log.Stringer("task", addr),
				log.String("call", call.Name()),
				log.Stringer("weight", declared))
			if err := tx.forget(task, addr); err != nil {
				return 0, err
			}
			tx.v.release(task.Call)
			tx.v.emit(Event{Kind: EventPermanentlyOverweight, Task: addr, ID: task.ID, Tick: tx.now})
			return taskDropped, nil
		}
		return taskPostponed, nil
	}

	flight := &inflight{addr: addr, task: task}
	tx.flight = flight
	h := newHandle(ctx, s, p)
	used, result := s.executor.Dispatch(h.ctx, task.Origin, call)
	h.close()
	tx.flight = nil

	p.counter.Accrue(dispatchBase.SaturatingAdd(used))
	tx.v.emit(Event{Kind: EventDispatched, Task: addr, ID: task.ID, Result: result, Tick: tx.now})
	s.logger.Debug("task dispatched",
		log.Stringer("task", addr),
		log.String("call", call.Name()),
		log.Stringer("used", used),
		log.Err(result))

	cancelled := flight.cancelled
	if !cancelled && task.ID != nil {
		cur, ok, err := tx.v.lookup(*task.ID)
		if err != nil {
			return 0, err
		}
		cancelled = !ok || cur != addr
	}

	if task.Periodic != nil && !cancelled {
		next := satAdd(tx.now, task.Periodic.Interval)
		if task.Periodic.Count > 1 {
			task.Periodic.Count--
		} else {
			task.Periodic = nil
		}
		if _, err := tx.placeMandatory(next, task); err != nil {
			return 0, err
		}
		return taskExecuted, nil
	}

	if !cancelled {
		if err := tx.forget(task, addr); err != nil {
			return 0, err
		}
	}
	tx.v.release(task.Call)
	return taskExecuted, nil
}

// forget removes task's lookup entry if it still points at addr.
func (tx *txn) forget(task *Scheduled, addr TaskAddress) error {
	if task.ID == nil {
		return nil
	}
	cur, ok, err := tx.v.lookup(*task.ID)
	if err != nil {
		return err
	}
	if ok && cur == addr {
		tx.v.removeLookup(*task.ID)
	}
	return nil
}
