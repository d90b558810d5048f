package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/scheduler"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/journal"
)

// eventBuffer is the capacity of the channel between the scheduler and the
// event consumer.
const eventBuffer = 4096

var (
	runFrom  uint32
	runTicks uint32
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Drive the scheduler through a scenario",
	Long: `Load a YAML scenario, submit its operations at their ticks and service
the agendas once per tick. Events are logged, counted and, when the journal
is enabled, recorded for later 'schedd history' queries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		sc, err := LoadScenario(args[0])
		if err != nil {
			return err
		}
		if runTicks != 0 {
			sc.Ticks = runTicks
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sink := scheduler.NewChannelSink(eventBuffer)
		n, err := openNode(cfg, logger, sink)
		if err != nil {
			return err
		}
		defer n.Close()

		var j *journal.Journal
		if cfg.Journal.Enabled {
			if j, err = journal.Open(ctx, cfg.Journal, logger); err != nil {
				return err
			}
			defer j.Close()
		}

		from := runFrom
		if from == 0 {
			from = sc.Start
		}
		start, err := n.resumeTick(ctx, from)
		if err != nil {
			return err
		}

		report, err := drive(ctx, n, sc, sink, j, start)
		if report != nil {
			report.Print(cmd.OutOrStdout())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Uint32Var(&runFrom, "from", 0, "first tick to service (default: scenario start, then stored progress)")
	runCmd.Flags().Uint32Var(&runTicks, "ticks", 0, "override the scenario's tick count")
}

// Report summarizes a scenario run.
type Report struct {
	Start, End uint32
	Ops        []OpResult
	Events     map[string]int
	Dropped    uint64
	Incomplete *uint32
	// Failed lists ticks whose servicing pass was discarded.
	Failed []uint32
}

// Print writes a human-readable summary.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Serviced ticks %d..%d\n", r.Start, r.End)
	for _, op := range r.Ops {
		fmt.Fprintf(w, "  %s\n", op)
	}
	kinds := make([]string, 0, len(r.Events))
	for k := range r.Events {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintln(w, "Events:")
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-22s %d\n", k, r.Events[k])
	}
	if r.Dropped > 0 {
		fmt.Fprintf(w, "  (%d events dropped by a full buffer)\n", r.Dropped)
	}
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "Failed ticks %v\n", r.Failed)
	}
	if r.Incomplete != nil {
		fmt.Fprintf(w, "Backlog since tick %d\n", *r.Incomplete)
	}
}

// drive services ticks start..start+Ticks-1 and consumes events
// concurrently. sink is closed when driving ends.
func drive(ctx context.Context, n *node, sc *Scenario, sink *scheduler.ChannelSink, j *journal.Journal, start uint32) (*Report, error) {
	report := &Report{Start: start, Events: make(map[string]int)}
	ops := sc.byTick(start)
	interval := n.cfg.Scheduler.TickInterval
	done := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(done)
		defer sink.Close()

		for i := uint32(0); i < sc.Ticks; i++ {
			now := start + i
			n.clock.Set(now)
			used, err := n.sched.OnInitialize(gctx, now)
			switch {
			case err != nil && gctx.Err() != nil:
				return fmt.Errorf("tick %d: %w", now, err)
			case err != nil:
				// The scheduler keeps its resume marker; a later tick picks the work up.
				n.logger.Error("tick servicing failed", log.Uint32("tick", now), log.Err(err))
				report.Failed = append(report.Failed, now)
			default:
				n.logger.Debug("tick serviced", log.Uint32("tick", now), log.Uint64("ref_time", used.RefTime))
			}

			for _, op := range ops[now] {
				res := op.apply(gctx, n.sched, now)
				if res.Err != nil {
					n.logger.Warn("scenario op failed", log.Uint32("tick", now), log.String("op", op.Op), log.Err(res.Err))
				}
				report.Ops = append(report.Ops, res)
			}
			report.End = now

			if interval > 0 {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-time.After(interval):
				}
			} else if err := gctx.Err(); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		return consume(gctx, sink.C(), j, report, n.logger)
	})

	if n.cfg.Metrics.Enabled {
		g.Go(func() error {
			return serveMetrics(gctx, done, n)
		})
	}

	err := g.Wait()
	report.Dropped = sink.Dropped()
	if since, ok, ierr := n.sched.IncompleteSince(context.Background()); ierr == nil && ok {
		report.Incomplete = &since
	}
	return report, err
}

// consume drains events until the channel closes, counting them and
// appending them to the journal in batches.
func consume(ctx context.Context, events <-chan scheduler.Event, j *journal.Journal, report *Report, logger log.Logger) error {
	const maxBatch = 256
	batch := make([]journal.Entry, 0, maxBatch)

	for ev := range events {
		batch = append(batch[:0], record(ev, report, logger))
	drain:
		for len(batch) < maxBatch {
			select {
			case ev, ok := <-events:
				if !ok {
					break drain
				}
				batch = append(batch, record(ev, report, logger))
			default:
				break drain
			}
		}
		if j != nil {
			if err := j.Append(ctx, batch...); err != nil {
				return err
			}
		}
	}
	return nil
}

func record(ev scheduler.Event, report *Report, logger log.Logger) journal.Entry {
	report.Events[ev.Kind.String()]++
	logger.Info("event", log.Stringer("event", ev), log.Uint32("tick", ev.Tick))
	return journal.FromEvent(ev)
}

// serveMetrics exposes the node's registry until done is closed or ctx ends.
func serveMetrics(ctx context.Context, done <-chan struct{}, n *node) error {
	mux := http.NewServeMux()
	mux.Handle(n.cfg.Metrics.Path, promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: n.cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	n.logger.Info("metrics listening", log.String("address", n.cfg.Metrics.Address))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	case <-done:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
