package scheduler

import (
	"context"
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// MemoryStore keeps scheduler state in process memory. Agendas are indexed
// by a red-black tree so Ticks lists them in order.
type MemoryStore struct {
	mu         sync.RWMutex
	agendas    *redblacktree.Tree
	lookups    map[TaskName]TaskAddress
	incomplete *Tick
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agendas: redblacktree.NewWith(utils.UInt32Comparator),
		lookups: make(map[TaskName]TaskAddress),
	}
}

func (m *MemoryStore) Agenda(_ context.Context, when Tick) (*Agenda, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.agendas.Get(when)
	if !ok {
		return nil, nil
	}
	return v.(*Agenda).Clone(), nil
}

func (m *MemoryStore) Lookup(_ context.Context, name TaskName) (TaskAddress, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	addr, ok := m.lookups[name]
	return addr, ok, nil
}

func (m *MemoryStore) IncompleteSince(context.Context) (Tick, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.incomplete == nil {
		return 0, false, nil
	}
	return *m.incomplete, true, nil
}

func (m *MemoryStore) Ticks(context.Context) ([]Tick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := m.agendas.Keys()
	out := make([]Tick, len(keys))
	for i, k := range keys {
		out[i] = k.(Tick)
	}
	return out, nil
}

func (m *MemoryStore) Commit(_ context.Context, cs *Changeset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range cs.SortedTicks() {
		if a := cs.Agendas[t]; a != nil {
			m.agendas.Put(t, a.Clone())
		} else {
			m.agendas.Remove(t)
		}
	}
	for name, addr := range cs.Lookups {
		if addr != nil {
			m.lookups[name] = *addr
		} else {
			delete(m.lookups, name)
		}
	}
	if cs.IncompleteSinceSet {
		if cs.IncompleteSince != nil {
			t := *cs.IncompleteSince
			m.incomplete = &t
		} else {
			m.incomplete = nil
		}
	}
	return nil
}
