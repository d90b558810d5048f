package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/journal"
)

var (
	historyFilter journal.Filter
	historyCounts bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the event journal",
	Long:  `Print recorded scheduler events, filtered by kind, task name and tick range.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Journal.Enabled {
			return fmt.Errorf("the journal is disabled; set journal.enabled in the configuration")
		}
		j, err := journal.Open(cmd.Context(), cfg.Journal, newLogger(cfg))
		if err != nil {
			return err
		}
		defer j.Close()
		return history(cmd.Context(), cmd.OutOrStdout(), j, historyFilter, historyCounts)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	f := historyCmd.Flags()
	f.StringVar(&historyFilter.Kind, "kind", "", "only events of this kind, e.g. Dispatched")
	f.StringVar(&historyFilter.Name, "name", "", "only events of this named task")
	f.Uint32Var(&historyFilter.FromTick, "from", 0, "first tick")
	f.Uint32Var(&historyFilter.ToTick, "to", 0, "last tick")
	f.IntVar(&historyFilter.Limit, "limit", 100, "maximum number of events (0 for all)")
	f.BoolVar(&historyCounts, "counts", false, "print event totals per kind instead")
}

func history(ctx context.Context, out io.Writer, j *journal.Journal, filter journal.Filter, counts bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	if counts {
		totals, err := j.Counts(ctx)
		if err != nil {
			return err
		}
		kinds := make([]string, 0, len(totals))
		for k := range totals {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Fprintln(tw, "KIND\tCOUNT")
		for _, k := range kinds {
			fmt.Fprintf(tw, "%s\t%d\n", k, totals[k])
		}
		return tw.Flush()
	}

	entries, err := j.History(ctx, filter)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "TICK\tKIND\tTASK\tNAME\tDETAIL\tRECORDED")
	for _, e := range entries {
		detail := e.Result
		if e.Kind == "PriorityChanged" {
			detail = fmt.Sprintf("priority %d", e.Priority)
		}
		if detail == "" {
			detail = "-"
		}
		name := e.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d#%d\t%s\t%s\t%s\n",
			e.Tick, e.Kind, e.When, e.Index, name, detail, e.RecordedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
