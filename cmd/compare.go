package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pgcompare/internal/dialect"
	"pgcompare/internal/extract"
	"pgcompare/internal/model"
	"pgcompare/internal/observer"
	"pgcompare/internal/reconcile"
	"pgcompare/internal/repo"
	"pgcompare/internal/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run a full extract-load-compare pass over the enabled tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcileCommand(cmd, false)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Recompute findings from existing staging without re-extracting",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcileCommand(cmd, true)
	},
}

func init() {
	RootCmd.AddCommand(compareCmd)
	RootCmd.AddCommand(checkCmd)
}

func runReconcileCommand(cmd *cobra.Command, checkOnly bool) error {
	if err := cfg.RequireSourceTarget(); err != nil {
		return err
	}
	ctx := cmd.Context()

	repository, err := repo.Open(ctx, cfg.Repo.DSN)
	if err != nil {
		return err
	}
	defer repository.Close()

	sourceDB, sourceDialect, err := openSide(cfg.Source)
	if err != nil {
		return err
	}
	defer sourceDB.Close()
	targetDB, targetDialect, err := openSide(cfg.Target)
	if err != nil {
		return err
	}
	defer targetDB.Close()

	tables, err := repository.EnabledTables(ctx, cfg.Project, cfg.Table)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		logger.Warn("no enabled tables matched", zap.Int64("project", cfg.Project), zap.String("table", cfg.Table))
		return nil
	}

	uiprogress.Start()
	defer uiprogress.Stop()

	job := report.Job{Project: cfg.Project}
	for _, table := range tables {
		tableLog := logger.With(zap.Int64("tid", table.TID), zap.String("alias", table.Alias))

		sourceTM, targetTM, err := repository.TableMaps(ctx, table.TID)
		if err != nil {
			job.Tables = append(job.Tables, report.TableResult{Alias: table.Alias, Status: model.RunFailed, Err: err.Error()})
			continue
		}

		sourceCols, err := columnsFor(ctx, sourceDB, sourceDialect, sourceTM)
		if err != nil {
			job.Tables = append(job.Tables, report.TableResult{Alias: table.Alias, Status: model.RunFailed, Err: err.Error()})
			continue
		}
		targetCols, err := columnsFor(ctx, targetDB, targetDialect, targetTM)
		if err != nil {
			job.Tables = append(job.Tables, report.TableResult{Alias: table.Alias, Status: model.RunFailed, Err: err.Error()})
			continue
		}

		bar := uiprogress.AddBar(100).AppendCompleted().PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("%-24s %6d rows", table.Alias, b.Current()*1000)
		})
		progress := make(chan extract.Progress, 16)
		progressDone := make(chan struct{})
		go func() {
			defer close(progressDone)
			for p := range progress {
				step := int(p.Rows/1000) % 100
				if step > bar.Current() {
					bar.Set(step)
				}
			}
		}()

		history, err := reconcile.Run(ctx, repository, reconcile.Options{
			TID: table.TID, BatchNbr: table.BatchNbr, Table: table,
			Source: reconcile.SideHandle{Dialect: sourceDialect, DB: sourceDB, Columns: sourceCols},
			Target: reconcile.SideHandle{Dialect: targetDialect, DB: targetDB, Columns: targetCols},
			ShardCount:    table.ParallelDegree,
			FetchSize:     cfg.BatchFetchSize,
			ProgressEvery: cfg.BatchProgressReportSize,
			LoaderThreads: cfg.LoaderThreads,
			QueueSize:     cfg.MessageQueueSize,
			CastMode:      castModeFor(cfg.ColumnHashMethod),
			FloatCast:     string(cfg.FloatCast),
			NumberCast:    string(cfg.NumberCast),
			SortByPK:      cfg.DatabaseSort,
			CheckOnly:     checkOnly,
			ObserverConfig: observer.Config{
				Enabled:      cfg.ObserverThrottle,
				ThrottleSize: cfg.ObserverThrottleSize,
				Vacuum:       cfg.ObserverVacuum,
			},
			Progress: progress,
			Log:      tableLog,
		})
		close(progress)
		<-progressDone
		bar.Set(100)
		result := report.TableResult{Alias: table.Alias, Status: history.Status, Counts: history.Counts}
		if err != nil {
			result.Err = err.Error()
			tableLog.Error("reconciliation failed", zap.Error(err))
		} else {
			tableLog.Info("reconciliation complete",
				zap.Int("equal", history.Counts.Equal), zap.Int("not_equal", history.Counts.NotEqual),
				zap.Int("missing_source", history.Counts.MissingSource), zap.Int("missing_target", history.Counts.MissingTarget))
		}
		job.Tables = append(job.Tables, result)
	}

	if cfg.Report != "" {
		f, err := os.Create(cfg.Report)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		if err := report.Render(f, job); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}
	return nil
}

func columnsFor(ctx context.Context, db *sql.DB, d dialect.Dialect, tm model.TableMap) ([]dialect.ColumnInfo, error) {
	query, args := d.SelectColumns(tm.SchemaName, tm.TableName)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dialect.ColumnInfo
	for rows.Next() {
		var c dialect.ColumnInfo
		if err := rows.Scan(&c.Owner, &c.TableName, &c.ColumnName, &c.DataType, &c.DataLength, &c.DataPrecision, &c.DataScale, &c.Nullable, &c.PrimaryKey); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ extract.Source = (*sql.DB)(nil)
