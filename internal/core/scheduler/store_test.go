package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/origin"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/preimage"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database/memory"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database/pebble"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	mgr := pebble.NewMemManager()
	t.Cleanup(func() { _ = mgr.Close() })
	db, err := mgr.OpenDB("scheduler")
	require.NoError(t, err)

	return map[string]Store{
		"memory":    NewMemoryStore(),
		"kv-memory": NewKVStore(memory.NewDB(), "memory", 4),
		"kv-pebble": NewKVStore(db, "pebble", 4),
	}
}

func TestStores_Conformance(t *testing.T) {
	name := NameFromString("named")
	named := &Scheduled{
		ID:          &name,
		Priority:    7,
		Call:        Lookup(preimage.HashOf([]byte("payload")), 7),
		Periodic:    &Period{Interval: 3, Count: 2},
		Origin:      origin.Signed{Account: [20]byte{0xaa}},
		SpecVersion: 4,
	}
	anon := &Scheduled{Priority: 1, Call: Inline([]byte{0x93, 0x01}), Origin: origin.Root{}}

	for backend, s := range stores(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()

			a, err := s.Agenda(ctx, 3)
			require.NoError(t, err)
			assert.Nil(t, a)
			_, ok, err := s.Lookup(ctx, name)
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = s.IncompleteSince(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			sparse := NewAgenda(4)
			_, _, _ = sparse.TryPush(anon.clone())
			_, _, _ = sparse.TryPush(named.clone())
			sparse.Take(0)
			single := NewAgenda(4)
			_, _, _ = single.TryPush(anon.clone())

			since := Tick(3)
			addr := TaskAddress{When: 9, Index: 1}
			require.NoError(t, s.Commit(ctx, &Changeset{
				Agendas:            map[Tick]*Agenda{9: sparse, 3: single},
				Lookups:            map[TaskName]*TaskAddress{name: &addr},
				IncompleteSince:    &since,
				IncompleteSinceSet: true,
			}))

			ticks, err := s.Ticks(ctx)
			require.NoError(t, err)
			assert.Equal(t, []Tick{3, 9}, ticks)

			got, err := s.Agenda(ctx, 9)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 2, got.Len())
			assert.Equal(t, uint32(1), got.Count())
			_, ok = got.Get(0)
			assert.False(t, ok, "hole survives a round trip")
			task, ok := got.Get(1)
			require.True(t, ok)
			assert.Equal(t, named, task)

			gotAddr, ok, err := s.Lookup(ctx, name)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, addr, gotAddr)

			gotSince, ok, err := s.IncompleteSince(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, since, gotSince)

			require.NoError(t, s.Commit(ctx, &Changeset{
				Agendas:            map[Tick]*Agenda{9: nil},
				Lookups:            map[TaskName]*TaskAddress{name: nil},
				IncompleteSinceSet: true,
			}))
			ticks, err = s.Ticks(ctx)
			require.NoError(t, err)
			assert.Equal(t, []Tick{3}, ticks)
			_, ok, err = s.Lookup(ctx, name)
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = s.IncompleteSince(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryStore_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := NewAgenda(2)
	_, _, _ = a.TryPush(&Scheduled{Priority: 1, Call: Inline([]byte{1}), Origin: origin.Root{}})
	require.NoError(t, s.Commit(ctx, &Changeset{Agendas: map[Tick]*Agenda{5: a}}))

	a.Take(0)
	got, err := s.Agenda(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.Count())

	got.Take(0)
	again, err := s.Agenda(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), again.Count())
}

func TestView_NestedMergeUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := NewAgenda(4)
	_, _, _ = a.TryPush(&Scheduled{Call: Inline([]byte{1}), Origin: origin.Root{}})
	_, _, _ = a.TryPush(&Scheduled{Call: Inline([]byte{2}), Origin: origin.Root{}})
	require.NoError(t, s.Commit(ctx, &Changeset{Agendas: map[Tick]*Agenda{5: a}}))

	v := newView(ctx, s, 4)
	held, err := v.agenda(5)
	require.NoError(t, err)

	c := v.child()
	ca, err := c.agenda(5)
	require.NoError(t, err)
	ca.Take(1)
	c.touch(5)
	c.setLookup(NameFromString("x"), TaskAddress{When: 5})
	c.emit(Event{Kind: EventCanceled})

	assert.Equal(t, uint32(2), held.Count(), "child writes are isolated until merge")
	v.merge(c)
	assert.Equal(t, uint32(1), held.Count())
	assert.Len(t, v.events, 1)
	_, ok, err := v.lookup(NameFromString("x"))
	require.NoError(t, err)
	assert.True(t, ok)

	// Discarding a child leaves the parent untouched.
	d := v.child()
	da, err := d.agenda(5)
	require.NoError(t, err)
	da.Take(0)
	assert.Equal(t, uint32(1), held.Count())
}

func TestScheduler_OnKVStore(t *testing.T) {
	kv := NewKVStore(memory.NewDB(), "memory", DefaultMaxScheduledPerBlock)
	f := newFixture(t, withStore(kv))
	name := NameFromString("persisted")

	_, err := f.sched.ScheduleNamed(f.ctx, name, At(4), &Period{Interval: 2, Count: 2}, 0, origin.Root{}, remark(t, 700))
	require.NoError(t, err)
	f.runTo(1, 10)

	assert.Equal(t, []Tick{4, 6}, f.dispatchedAt())
	assert.Empty(t, f.ticks())
	_, ok, err := kv.Lookup(f.ctx, name)
	require.NoError(t, err)
	assert.False(t, ok)
}
