package historycmder

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meterlab/graphsight/pkg/config"
	"github.com/meterlab/graphsight/pkg/history"
)

const historyLongDesc string = `Inspect past classification runs.

Without arguments, lists every recorded run newest first. With --run,
prints the per-image verdicts of one run in classification order.

Examples:
  graphsight history --history-db runs.db
  graphsight history --history-db runs.db --run 3`

const historyShortDesc string = "Inspect past classification runs"

type historyCommander struct {
	configPath string
	historyDB  string
	runID      int64
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVar(&cmder.historyDB, "history-db", "", "SQLite run history path (overrides config)")
	cmd.Flags().Int64VarP(&cmder.runID, "run", "r", 0, "Show the records of one run")

	return cmd
}

func (c *historyCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.historyDB != "" {
		cfg.HistoryDB = c.historyDB
	}
	if cfg.HistoryDB == "" {
		return fmt.Errorf("no history database configured (set --history-db or HISTORY_DB)")
	}

	store, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history database %s: %w", cfg.HistoryDB, err)
	}
	defer store.Close()

	if c.runID > 0 {
		return c.printRecords(ctx, cmd, store)
	}
	return c.printRuns(ctx, cmd, store)
}

func (c *historyCommander) printRuns(ctx context.Context, cmd *cobra.Command, store *history.Store) error {
	runs, err := store.Runs(ctx)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDIRECTORY\tMODEL\tNORMAL\tABNORMAL\tUNKNOWN")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Directory, run.Model, run.Normal, run.Abnormal, run.Unknown)
	}
	return w.Flush()
}

func (c *historyCommander) printRecords(ctx context.Context, cmd *cobra.Command, store *history.Store) error {
	records, err := store.Records(ctx, c.runID)
	if err != nil {
		return fmt.Errorf("list records for run %d: %w", c.runID, err)
	}

	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No records for run %d.\n", c.runID)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GRAPH NAME\tRESULT")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\n", rec.GraphName, rec.Result)
	}
	return w.Flush()
}
