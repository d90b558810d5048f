package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/scheduler"
)

var (
	inspectTick uint32
	inspectName string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the agendas held by the configured store",
	Long: `List every tick that holds tasks, or a single tick with --tick, and
resolve named tasks with --name. Only meaningful for persistent backends.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Storage.IsPersistent() {
			return fmt.Errorf("storage backend %q keeps nothing between runs", cfg.Storage.Backend)
		}
		n, err := openNode(cfg, newLogger(cfg), nil)
		if err != nil {
			return err
		}
		defer n.Close()
		return inspect(cmd.Context(), cmd.OutOrStdout(), n.sched, inspectTick, inspectName)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Uint32Var(&inspectTick, "tick", 0, "only show this tick")
	inspectCmd.Flags().StringVar(&inspectName, "name", "", "resolve a named task")
}

func inspect(ctx context.Context, out io.Writer, s *scheduler.Scheduler, tick uint32, name string) error {
	if name != "" {
		addr, ok, err := s.LookupAddress(ctx, scheduler.NameFromString(name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "%s: not scheduled\n", name)
			return nil
		}
		fmt.Fprintf(out, "%s: %s\n", name, addr)
		tick = addr.When
	}

	if since, ok, err := s.IncompleteSince(ctx); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(out, "Incomplete since tick %d\n", since)
	}

	ticks := []uint32{tick}
	if tick == 0 {
		var err error
		if ticks, err = s.Ticks(ctx); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tPRIORITY\tPERIOD\tORIGIN\tVERSION\tCALL")
	for _, t := range ticks {
		tasks, err := s.Agenda(ctx, t)
		if err != nil {
			return err
		}
		for _, info := range tasks {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%v\t%d\t%s\n",
				info.Address, taskName(info.ID), info.Priority, period(info.Periodic),
				info.Origin, info.SpecVersion, describeCall(ctx, s, info))
		}
	}
	return tw.Flush()
}

func taskName(id *scheduler.TaskName) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

func period(p *scheduler.Period) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("every %d, %d more", p.Interval, p.Count)
}

func describeCall(ctx context.Context, s *scheduler.Scheduler, info scheduler.TaskInfo) string {
	call, err := s.PeekCall(ctx, info)
	if err != nil {
		return fmt.Sprintf("%s (%v)", info.Call, err)
	}
	return call.String()
}
