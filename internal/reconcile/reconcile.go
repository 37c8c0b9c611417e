// Package reconcile implements the Reconciler (C7): for one table it
// resolves the TableMap pair, compiles the ColumnMap, clears staging,
// runs P extractors and L loaders per side concurrently via
// sourcegraph/conc worker pools (promoted here from the teacher's
// unused indirect dependency — nothing in bisibesi-db-pump spawns a
// bounded pool, but the pack carries the library and a sharded
// multi-extractor/multi-loader fan-out is exactly what it's for),
// awaits the drain barrier, runs the repository's compare, and records
// findings plus run history.
package reconcile

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"pgcompare/internal/cast"
	"pgcompare/internal/columnmap"
	"pgcompare/internal/dialect"
	"pgcompare/internal/extract"
	"pgcompare/internal/load"
	"pgcompare/internal/model"
	"pgcompare/internal/observer"
	"pgcompare/internal/queue"
)

// Repository is the subset of *repo.Repo the Reconciler drives.
type Repository interface {
	TableMaps(ctx context.Context, tid int64) (source, target model.TableMap, err error)
	TruncateStaging(ctx context.Context, tid int64, side model.Side) error
	InsertBatch(ctx context.Context, side model.Side, rows []model.RowFingerprint) error
	StagedCount(ctx context.Context, tid int64, side model.Side) (int64, error)
	Vacuum(ctx context.Context, side model.Side) error
	Compare(ctx context.Context, tid int64, batchNbr int) (model.RunCounts, error)
	UpsertColumnMap(ctx context.Context, cm *model.ColumnMap) error
	StartRun(ctx context.Context, h model.RunHistory) error
	FinishRun(ctx context.Context, h model.RunHistory) error
}

// SideHandle is the connection plus dialect for one side of a table.
type SideHandle struct {
	Dialect dialect.Dialect
	DB      extract.Source
	Columns []dialect.ColumnInfo
}

// Options configures one table's reconciliation run.
type Options struct {
	TID            int64
	BatchNbr       int
	Table          model.TableEntry
	Source         SideHandle
	Target         SideHandle
	ShardCount     int
	FetchSize      int
	ProgressEvery  int
	LoaderThreads  int
	QueueSize      int
	CastMode       cast.Mode
	FloatCast      string
	NumberCast     string
	SortByPK       bool
	CheckOnly      bool
	ObserverConfig observer.Config
	Progress       chan<- extract.Progress
	Log            *zap.Logger
}

// Run executes the full per-table reconciliation state machine (spec
// §4.9): pending -> running -> compared|failed, returning the final
// counts and history record.
func Run(ctx context.Context, repo Repository, opt Options) (model.RunHistory, error) {
	history := model.RunHistory{
		TID: opt.TID, RunID: uuid.NewString(), Action: "compare",
		BatchNbr: opt.BatchNbr, StartTS: time.Now(), Status: model.RunRunning,
	}
	if err := repo.StartRun(ctx, history); err != nil {
		return history, err
	}

	sourceTM, targetTM, err := repo.TableMaps(ctx, opt.TID)
	if err != nil {
		return finish(ctx, repo, history, model.RunFailed, model.RunCounts{})
	}

	cmResult := columnmap.Compile(columnmap.Input{
		TID:           opt.TID,
		SourceDialect: opt.Source.Dialect,
		TargetDialect: opt.Target.Dialect,
		SourceColumns: opt.Source.Columns,
		TargetColumns: opt.Target.Columns,
		CastMode:      opt.CastMode,
		FloatCast:     opt.FloatCast,
		NumberCast:    opt.NumberCast,
	})
	for _, warning := range cmResult.Warnings {
		opt.Log.Warn("column map warning", zap.Int64("tid", opt.TID), zap.String("warning", warning))
	}
	for _, cm := range cmResult.Columns {
		if err := repo.UpsertColumnMap(ctx, cm); err != nil {
			return finish(ctx, repo, history, model.RunFailed, model.RunCounts{})
		}
	}

	if !opt.CheckOnly {
		if err := repo.TruncateStaging(ctx, opt.TID, model.SourceSide); err != nil {
			return finish(ctx, repo, history, model.RunFailed, model.RunCounts{})
		}
		if err := repo.TruncateStaging(ctx, opt.TID, model.TargetSide); err != nil {
			return finish(ctx, repo, history, model.RunFailed, model.RunCounts{})
		}

		sourceExprs := columnmap.BuildRowExprs(opt.Source.Dialect.Name(), cmResult.Columns, model.SourceSide)
		targetExprs := columnmap.BuildRowExprs(opt.Target.Dialect.Name(), cmResult.Columns, model.TargetSide)

		if err := runSide(ctx, repo, opt, model.SourceSide, sourceTM, opt.Source, sourceExprs); err != nil {
			return finish(ctx, repo, history, model.RunFailed, model.RunCounts{})
		}
		if err := runSide(ctx, repo, opt, model.TargetSide, targetTM, opt.Target, targetExprs); err != nil {
			return finish(ctx, repo, history, model.RunFailed, model.RunCounts{})
		}
	}

	counts, err := repo.Compare(ctx, opt.TID, opt.BatchNbr)
	if err != nil {
		return finish(ctx, repo, history, model.RunFailed, counts)
	}
	return finish(ctx, repo, history, model.RunCompared, counts)
}

func finish(ctx context.Context, repo Repository, h model.RunHistory, status model.RunStatus, counts model.RunCounts) (model.RunHistory, error) {
	h.EndTS = time.Now()
	h.Status = status
	h.Counts = counts
	err := repo.FinishRun(ctx, h)
	return h, err
}

// runSide fans out ShardCount extractors and LoaderThreads loaders for
// one side through a bounded queue, then blocks until both pools drain
// (spec §4.7 step 4's completion barrier).
func runSide(ctx context.Context, repo Repository, opt Options, side model.Side, tm model.TableMap, handle SideHandle, exprs columnmap.RowExprs) error {
	q := queue.New(opt.QueueSize)
	obs := observer.New(opt.ObserverConfig, repo, opt.Log, opt.TID, side)

	obsCtx, cancelObs := context.WithCancel(ctx)
	defer cancelObs()
	go obs.Run(obsCtx)

	extractPool := pool.New().WithContext(ctx).WithCancelOnError()
	for shard := 0; shard < opt.ShardCount; shard++ {
		shard := shard
		query := handle.Dialect.SelectRowsQuery(tm.SchemaName, tm.TableName, tm.TableFilter,
			exprs.PKJSONExpr, exprs.PKHashExpr, exprs.ColumnHashExpr, tm.ModColumn, shard, opt.ShardCount, opt.SortByPK, exprs.PKColumns)
		extractPool.Go(func(ctx context.Context) error {
			_, err := extract.Run(ctx, handle.DB, extract.Config{
				TID: opt.TID, Side: side, Shard: shard, BatchNbr: opt.BatchNbr,
				FetchSize: opt.FetchSize, ProgressEvery: opt.ProgressEvery, Query: query,
			}, q, opt.Progress)
			return err
		})
	}

	var extractionDone atomic.Bool
	extractDone := extractionDone.Load

	loaderPool := pool.New().WithContext(ctx).WithCancelOnError()
	for i := 0; i < opt.LoaderThreads; i++ {
		loaderPool.Go(func(ctx context.Context) error {
			_, err := load.Run(ctx, repo, q, extractDone, opt.Log)
			return err
		})
	}

	extractErr := extractPool.Wait()
	extractionDone.Store(true)
	q.Close()
	loaderErr := loaderPool.Wait()

	if extractErr != nil {
		return extractErr
	}
	return loaderErr
}
