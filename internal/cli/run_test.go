package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/config"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/scheduler"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/journal"
)

const lifecycleScenario = `
start: 1
ticks: 12
ops:
  - op: schedule
    name: nightly
    after: 1
    period: {interval: 3, count: 3}
    call: {name: system.remark, data: hi}
  - op: schedule
    at: 4
    call: {name: scheduler.spawn, target: child, data: x}
  - op: schedule
    at: 2
    origin: none
    call: {name: system.root}
  - op: cancel_named
    name: missing
  - tick: 6
    op: cancel_named
    name: nightly
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	require.NoError(t, config.ValidateConfig(cfg))
	return cfg
}

func runScenario(t *testing.T, cfg *config.Config, text string, j *journal.Journal) (*Report, *node) {
	t.Helper()
	sc, err := ParseScenario([]byte(text))
	require.NoError(t, err)

	sink := scheduler.NewChannelSink(eventBuffer)
	n, err := openNode(cfg, log.Nop(), sink)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })

	start, err := n.resumeTick(context.Background(), sc.Start)
	require.NoError(t, err)
	report, err := drive(context.Background(), n, sc, sink, j, start)
	require.NoError(t, err)
	return report, n
}

func TestDrive_Lifecycle(t *testing.T) {
	cfg := testConfig(t)
	j, err := journal.Open(context.Background(), journal.SQLiteConfig(filepath.Join(t.TempDir(), "journal.db")), log.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	report, n := runScenario(t, cfg, lifecycleScenario, j)

	assert.Equal(t, uint32(1), report.Start)
	assert.Equal(t, uint32(12), report.End)
	require.Len(t, report.Ops, 5)
	assert.Equal(t, scheduler.TaskAddress{When: 3}, report.Ops[0].Address)
	assert.ErrorIs(t, report.Ops[3].Err, scheduler.ErrNotFound)
	assert.NoError(t, report.Ops[4].Err)
	assert.Equal(t, uint32(6), report.Ops[4].Tick)

	// nightly runs at 3 and 6 and is cancelled before 9; the spawner runs
	// at 4 and its child at 5; the root-only call fails at 2.
	assert.Equal(t, 5, report.Events["Dispatched"])
	assert.Equal(t, 1, report.Events["Canceled"])
	assert.Equal(t, 6, report.Events["Scheduled"])
	assert.Nil(t, report.Incomplete)

	ticks, err := n.sched.Ticks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ticks)

	dispatched, err := j.History(context.Background(), journal.Filter{Kind: "Dispatched"})
	require.NoError(t, err)
	require.Len(t, dispatched, 5)
	assert.Equal(t, uint32(2), dispatched[0].Tick)
	assert.Contains(t, dispatched[0].Result, "origin not allowed")

	child, err := j.History(context.Background(), journal.Filter{Name: "child", Kind: "Dispatched"})
	require.NoError(t, err)
	require.Len(t, child, 1)
	assert.Equal(t, uint32(5), child[0].Tick)

	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "Serviced ticks 1..12")
	assert.Contains(t, out.String(), "Dispatched")
}

func TestDrive_BacklogReported(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.MaxScheduledPerBlock = 4
	// Free servicing overhead; the budget fits two burns per tick.
	cfg.Weights = *weight.ZeroTable()
	cfg.Scheduler.MaximumWeight.RefTime = 2_500

	report, _ := runScenario(t, cfg, `
start: 1
ticks: 2
ops:
  - {at: 2, call: {name: system.burn, ref_time: 1000}}
  - {at: 2, call: {name: system.burn, ref_time: 1000}}
  - {at: 2, call: {name: system.burn, ref_time: 1000}}
  - {at: 2, call: {name: system.burn, ref_time: 1000}}
`, nil)

	assert.Equal(t, 2, report.Events["Dispatched"])
	require.NotNil(t, report.Incomplete)
	assert.Equal(t, uint32(2), *report.Incomplete)
}

func TestInspect_PersistentStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage = config.StorageConfig{Backend: config.BackendPebble, Path: t.TempDir()}

	_, n := runScenario(t, cfg, `
start: 1
ticks: 2
ops:
  - {name: later, at: 50, priority: 7, call: {name: system.remark, data: kept}}
  - {at: 50, origin: none, call: {name: system.remark}}
`, nil)
	require.NoError(t, n.Close())

	reopened, err := openNode(cfg, log.Nop(), nil)
	require.NoError(t, err)
	defer reopened.Close()

	var out bytes.Buffer
	require.NoError(t, inspect(context.Background(), &out, reopened.sched, 0, ""))
	assert.Contains(t, out.String(), "50#0")
	assert.Contains(t, out.String(), "50#1")
	assert.Contains(t, out.String(), "later")
	assert.Contains(t, out.String(), "system.remark")

	out.Reset()
	require.NoError(t, inspect(context.Background(), &out, reopened.sched, 0, "later"))
	assert.Contains(t, out.String(), "later: 50#0")

	out.Reset()
	require.NoError(t, inspect(context.Background(), &out, reopened.sched, 0, "absent"))
	assert.Contains(t, out.String(), "absent: not scheduled")
}

func TestHistory_Output(t *testing.T) {
	j, err := journal.Open(context.Background(), journal.SQLiteConfig(filepath.Join(t.TempDir(), "j.db")), log.Nop())
	require.NoError(t, err)
	defer j.Close()

	name := scheduler.NameFromString("job")
	require.NoError(t, j.Append(context.Background(),
		journal.FromEvent(scheduler.Event{Kind: scheduler.EventScheduled, Task: scheduler.TaskAddress{When: 4}, Tick: 1}),
		journal.FromEvent(scheduler.Event{Kind: scheduler.EventPriorityChanged, Task: scheduler.TaskAddress{When: 4}, ID: &name, Priority: 3, Tick: 2}),
	))

	var out bytes.Buffer
	require.NoError(t, history(context.Background(), &out, j, journal.Filter{}, false))
	assert.Contains(t, out.String(), "PriorityChanged")
	assert.Contains(t, out.String(), "priority 3")
	assert.Contains(t, out.String(), "4#0")

	out.Reset()
	require.NoError(t, history(context.Background(), &out, j, journal.Filter{}, true))
	assert.Contains(t, out.String(), "Scheduled")
}

// flakyStore fails the first commit made while the clock reads failAt.
type flakyStore struct {
	scheduler.Store
	clock  *scheduler.ManualClock
	failAt scheduler.Tick
	failed bool
}

func (s *flakyStore) Commit(ctx context.Context, cs *scheduler.Changeset) error {
	if !s.failed && s.clock.Now() == s.failAt {
		s.failed = true
		return errors.New("disk full")
	}
	return s.Store.Commit(ctx, cs)
}

func TestDrive_FailedTickResumes(t *testing.T) {
	cfg := testConfig(t)
	sc, err := ParseScenario([]byte(`
start: 1
ticks: 6
ops:
  - {at: 3, call: {name: system.remark, data: hi}}
`))
	require.NoError(t, err)

	sink := scheduler.NewChannelSink(eventBuffer)
	n, err := openNode(cfg, log.Nop(), sink)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })

	weights := cfg.Weights
	n.sched, err = scheduler.New(cfg.Scheduler.Config, scheduler.Options{
		Store:     &flakyStore{Store: n.store, clock: n.clock, failAt: 3},
		Preimages: n.preimages,
		Executor:  n.router,
		Weights:   &weights,
		Clock:     n.clock,
		Sink:      sink,
		Logger:    log.Nop(),
	})
	require.NoError(t, err)

	report, err := drive(context.Background(), n, sc, sink, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), report.End)
	assert.Equal(t, []uint32{3}, report.Failed)
	assert.Equal(t, 1, report.Events["Dispatched"])
	assert.Nil(t, report.Incomplete)

	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "Failed ticks [3]")
}
