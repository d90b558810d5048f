package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/config"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/dispatch"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/preimage"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/scheduler"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/weight"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database/leveldb"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database/memory"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database/pebble"
)

// Database names opened under the storage path.
const (
	schedulerDBName = "scheduler"
	preimageDBName  = "preimages"
)

// systemPerByte prices the system.* calls registered on every node.
var systemPerByte = weight.FromParts(1_000, 1)

// node wires a scheduler to its storage, executor and observers.
type node struct {
	cfg    *config.Config
	logger log.Logger

	manager   database.Manager
	store     scheduler.Store
	preimages *preimage.Store
	router    *dispatch.Router
	clock     *scheduler.ManualClock
	registry  *prometheus.Registry
	sched     *scheduler.Scheduler
}

// openManager returns the database manager for the configured backend.
func openManager(s config.StorageConfig) (database.Manager, error) {
	switch s.Backend {
	case config.BackendMemory:
		return memory.NewManager(), nil
	case config.BackendPebble:
		return pebble.NewManager(s.Path), nil
	case config.BackendLevelDB:
		return leveldb.NewManager(s.Path), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", s.Backend)
	}
}

// openNode assembles a scheduler from cfg. Events go to sink, which may be nil.
func openNode(cfg *config.Config, logger log.Logger, sink scheduler.EventSink) (n *node, err error) {
	manager, err := openManager(cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = manager.Close()
		}
	}()

	n = &node{
		cfg:      cfg,
		logger:   logger,
		manager:  manager,
		router:   dispatch.NewRouter(),
		clock:    scheduler.NewManualClock(cfg.Scheduler.StartTick),
		registry: prometheus.NewRegistry(),
	}

	if cfg.Storage.IsPersistent() {
		db, err := manager.OpenDB(schedulerDBName)
		if err != nil {
			return nil, fmt.Errorf("failed to open scheduler database: %w", err)
		}
		n.store = scheduler.NewKVStore(db, cfg.Storage.Backend, cfg.Scheduler.MaxScheduledPerBlock)
	} else {
		n.store = scheduler.NewMemoryStore()
	}

	pdb, err := manager.OpenDB(preimageDBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open preimage database: %w", err)
	}
	if n.preimages, err = preimage.NewStore(pdb, cfg.Preimage, logger); err != nil {
		return nil, err
	}

	cmp, err := cfg.OriginComparator()
	if err != nil {
		return nil, err
	}

	dispatch.RegisterSystem(n.router, systemPerByte)
	registerSchedulerCalls(n.router, systemPerByte)

	n.registry.MustRegister(collectors.NewGoCollector())
	weights := cfg.Weights
	n.sched, err = scheduler.New(cfg.Scheduler.Config, scheduler.Options{
		Store:      n.store,
		Preimages:  n.preimages,
		Executor:   n.router,
		Weights:    &weights,
		Comparator: cmp,
		Clock:      n.clock,
		Version:    scheduler.StaticVersion(cfg.Scheduler.SpecVersion),
		Sink:       sink,
		Metrics:    scheduler.NewMetrics(n.registry),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("node opened",
		log.String("backend", cfg.Storage.Backend),
		log.String("path", cfg.Storage.Path),
		log.Uint32("capacity", cfg.Scheduler.MaxScheduledPerBlock))
	return n, nil
}

// resumeTick picks the first tick to service: from when non-zero, else the
// oldest unfinished tick in the store, else the configured start.
func (n *node) resumeTick(ctx context.Context, from uint32) (uint32, error) {
	if from != 0 {
		return from, nil
	}
	if since, ok, err := n.sched.IncompleteSince(ctx); err != nil {
		return 0, err
	} else if ok {
		return since, nil
	}
	return n.cfg.Scheduler.StartTick, nil
}

func (n *node) Close() error {
	if n == nil || n.manager == nil {
		return nil
	}
	err := n.manager.Close()
	n.manager = nil
	if err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
