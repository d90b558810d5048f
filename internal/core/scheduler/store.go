package scheduler

import (
	"context"
	"sort"
)

// Store persists agendas, the name lookup index and the IncompleteSince
// marker. Reads return copies; all writes go through Commit.
type Store interface {
	// Agenda returns the agenda at when, or nil if none is stored.
	Agenda(ctx context.Context, when Tick) (*Agenda, error)

	// Lookup returns the address of a named task.
	Lookup(ctx context.Context, name TaskName) (TaskAddress, bool, error)

	// IncompleteSince returns the earliest tick not fully serviced.
	IncompleteSince(ctx context.Context) (Tick, bool, error)

	// Ticks lists the ticks holding an agenda, ascending.
	Ticks(ctx context.Context) ([]Tick, error)

	// Commit applies cs atomically.
	Commit(ctx context.Context, cs *Changeset) error
}

// Changeset is a set of staged writes. A nil agenda or lookup entry is a
// deletion.
type Changeset struct {
	Agendas map[Tick]*Agenda
	Lookups map[TaskName]*TaskAddress

	// IncompleteSince is written when IncompleteSinceSet is true; nil clears it.
	IncompleteSince    *Tick
	IncompleteSinceSet bool
}

// IsEmpty reports whether the changeset writes nothing.
func (cs *Changeset) IsEmpty() bool {
	return len(cs.Agendas) == 0 && len(cs.Lookups) == 0 && !cs.IncompleteSinceSet
}

// SortedTicks returns the agenda keys in ascending order, so backends
// apply writes deterministically.
func (cs *Changeset) SortedTicks() []Tick {
	ticks := make([]Tick, 0, len(cs.Agendas))
	for t := range cs.Agendas {
		ticks = append(ticks, t)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	return ticks
}

// reader is the read side of a Store. A view is itself a reader, so an
// operation nested inside a servicing pass stages on top of the pass.
type reader interface {
	Agenda(ctx context.Context, when Tick) (*Agenda, error)
	Lookup(ctx context.Context, name TaskName) (TaskAddress, bool, error)
	IncompleteSince(ctx context.Context) (Tick, bool, error)
}

// view stages one logical operation over a reader with read-your-writes.
// Events and preimage releases are held until the changeset commits.
// Preimages noted for staged tasks are released if it never does.
type view struct {
	ctx      context.Context
	store    reader
	capacity uint32

	agendas map[Tick]*Agenda
	dirty   map[Tick]struct{}
	lookups map[TaskName]*TaskAddress

	incomplete    *Tick
	incompleteSet bool

	events   []Event
	releases []Bounded
	notes    []Bounded
}

func newView(ctx context.Context, store reader, capacity uint32) *view {
	return &view{
		ctx:      ctx,
		store:    store,
		capacity: capacity,
		agendas:  make(map[Tick]*Agenda),
		dirty:    make(map[Tick]struct{}),
		lookups:  make(map[TaskName]*TaskAddress),
	}
}

// agenda returns the mutable agenda at when, creating an empty one if the
// tick holds none. Callers must mark it with touch after mutating.
func (v *view) agenda(when Tick) (*Agenda, error) {
	if a, ok := v.agendas[when]; ok {
		return a, nil
	}
	a, err := v.store.Agenda(v.ctx, when)
	if err != nil {
		return nil, err
	}
	if a == nil {
		a = NewAgenda(v.capacity)
	}
	v.agendas[when] = a
	return a, nil
}

func (v *view) touch(when Tick) {
	v.dirty[when] = struct{}{}
}

func (v *view) lookup(name TaskName) (TaskAddress, bool, error) {
	if addr, ok := v.lookups[name]; ok {
		if addr == nil {
			return TaskAddress{}, false, nil
		}
		return *addr, true, nil
	}
	return v.store.Lookup(v.ctx, name)
}

func (v *view) setLookup(name TaskName, addr TaskAddress) {
	v.lookups[name] = &addr
}

func (v *view) removeLookup(name TaskName) {
	v.lookups[name] = nil
}

func (v *view) incompleteSince() (Tick, bool, error) {
	if v.incompleteSet {
		if v.incomplete == nil {
			return 0, false, nil
		}
		return *v.incomplete, true, nil
	}
	return v.store.IncompleteSince(v.ctx)
}

func (v *view) setIncompleteSince(t *Tick) {
	v.incomplete = t
	v.incompleteSet = true
}

func (v *view) emit(ev Event) {
	v.events = append(v.events, ev)
}

func (v *view) release(b Bounded) {
	if !b.IsInline() {
		v.releases = append(v.releases, b)
	}
}

// noted records a call whose preimage was noted for a task staged in v.
func (v *view) noted(b Bounded) {
	if !b.IsInline() {
		v.notes = append(v.notes, b)
	}
}

// changeset collects the staged writes. Empty agendas become deletions.
func (v *view) changeset() *Changeset {
	cs := &Changeset{
		Agendas:            make(map[Tick]*Agenda, len(v.dirty)),
		Lookups:            v.lookups,
		IncompleteSince:    v.incomplete,
		IncompleteSinceSet: v.incompleteSet,
	}
	for t := range v.dirty {
		a := v.agendas[t]
		if a == nil || a.IsEmpty() {
			cs.Agendas[t] = nil
			continue
		}
		cs.Agendas[t] = a
	}
	return cs
}

// viewReader exposes a view as a reader handing out copies.
type viewReader struct{ v *view }

func (r viewReader) Agenda(_ context.Context, when Tick) (*Agenda, error) {
	a, err := r.v.agenda(when)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

func (r viewReader) Lookup(_ context.Context, name TaskName) (TaskAddress, bool, error) {
	return r.v.lookup(name)
}

func (r viewReader) IncompleteSince(context.Context) (Tick, bool, error) {
	return r.v.incompleteSince()
}

// child opens a nested view whose writes reach v only through merge.
func (v *view) child() *view {
	return newView(v.ctx, viewReader{v}, v.capacity)
}

// merge folds a successful nested view into v. Agendas already held by v
// are updated in place so callers keeping a pointer see the result.
func (v *view) merge(c *view) {
	for t := range c.dirty {
		ca := c.agendas[t]
		if pa, ok := v.agendas[t]; ok {
			*pa = *ca
		} else {
			v.agendas[t] = ca
		}
		v.touch(t)
	}
	for name, addr := range c.lookups {
		v.lookups[name] = addr
	}
	if c.incompleteSet {
		v.setIncompleteSince(c.incomplete)
	}
	v.events = append(v.events, c.events...)
	v.releases = append(v.releases, c.releases...)
	v.notes = append(v.notes, c.notes...)
}
