package classifycmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meterlab/graphsight/pkg/classifier"
	"github.com/meterlab/graphsight/pkg/config"
	"github.com/meterlab/graphsight/pkg/history"
	"github.com/meterlab/graphsight/pkg/logger"
	"github.com/meterlab/graphsight/pkg/report"
)

const classifyLongDesc string = `Classify every graph image in a directory.

Each .png/.jpg/.jpeg file is sent to the model server one at a time with a
fixed prompt asking for a one-word verdict. Answers other than an exact
"Normal" or "Abnormal" are recorded as "Unknown", as are unreadable files
and failed requests; a bad image never aborts the run. Results land in a
two-column xlsx and, when a history database is configured, in SQLite.

With --watch the command keeps running after the initial sweep and
classifies new images as they appear, rewriting the spreadsheet after each
verdict. Ctrl-C ends the watch.

Examples:
  graphsight classify --dir ./graphs --out results.xlsx
  graphsight classify --dir /data/pms --watch
  GRAPH_DIR=./graphs OUT_XLSX=pms.xlsx graphsight classify`

const classifyShortDesc string = "Classify graph images as Normal or Abnormal"

type classifyCommander struct {
	configPath string
	dir        string
	out        string
	historyDB  string
	watch      bool
	debug      bool
}

func NewClassifyCmd() *cobra.Command {
	cmder := &classifyCommander{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: classifyShortDesc,
		Long:  classifyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.dir, "dir", "d", "", "Directory of graph images (overrides config)")
	cmd.Flags().StringVarP(&cmder.out, "out", "o", "", "Output xlsx path (overrides config)")
	cmd.Flags().StringVar(&cmder.historyDB, "history-db", "", "SQLite run history path (overrides config)")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Keep watching the directory for new images")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *classifyCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.dir != "" {
		cfg.InputDir = c.dir
	}
	if c.out != "" {
		cfg.OutputPath = c.out
	}
	if c.historyDB != "" {
		cfg.HistoryDB = c.historyDB
	}

	log := logger.New(c.debug)
	defer log.Sync()

	client := classifier.NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout())
	cls := classifier.New(client, log)

	startedAt := time.Now()
	records, err := cls.Run(ctx, cfg.InputDir)
	if err != nil {
		return err
	}

	if err := writeReport(cfg.OutputPath, records); err != nil {
		return err
	}

	if c.watch {
		watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		err := cls.Watch(watchCtx, cfg.InputDir, func(rec classifier.Record) {
			records = append(records, rec)
			if werr := writeReport(cfg.OutputPath, records); werr != nil {
				log.Warn("could not rewrite results", zap.Error(werr))
			}
		})
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.InputDir, err)
		}
	}

	saveHistory(ctx, cfg, startedAt, records, log)

	normal, abnormal, unknown := tally(records)
	fmt.Fprintf(cmd.OutOrStdout(), "Classified %d graphs (%d Normal, %d Abnormal, %d Unknown)\n",
		len(records), normal, abnormal, unknown)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved to: %s\n", cfg.OutputPath)

	return nil
}

func writeReport(path string, records []classifier.Record) error {
	rows := make([]report.Row, len(records))
	for i, rec := range records {
		rows[i] = report.Row{GraphName: rec.GraphName, Result: string(rec.Result)}
	}
	if err := report.WriteXLSX(path, rows); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// saveHistory records the run in SQLite. Best effort: history must never
// fail a run that already produced its spreadsheet.
func saveHistory(ctx context.Context, cfg config.Config, startedAt time.Time, records []classifier.Record, log *zap.Logger) {
	if cfg.HistoryDB == "" {
		return
	}

	store, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		log.Warn("could not open history database", zap.Error(err))
		return
	}
	defer store.Close()

	recs := make([]history.Record, len(records))
	for i, rec := range records {
		recs[i] = history.Record{GraphName: rec.GraphName, Result: string(rec.Result)}
	}

	runID, err := store.SaveRun(ctx, history.Run{
		StartedAt: startedAt,
		Directory: cfg.InputDir,
		Model:     cfg.Model,
	}, recs)
	if err != nil {
		log.Warn("could not save run history", zap.Error(err))
		return
	}

	log.Info("run recorded", zap.Int64("run_id", runID))
}

func tally(records []classifier.Record) (normal, abnormal, unknown int) {
	for _, rec := range records {
		switch rec.Result {
		case classifier.VerdictNormal:
			normal++
		case classifier.VerdictAbnormal:
			abnormal++
		default:
			unknown++
		}
	}
	return normal, abnormal, unknown
}
