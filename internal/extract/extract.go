// Package extract implements the Extractor (spec C4): one goroutine
// per shard that streams a side's rows through the compiled SQL from
// internal/columnmap and pushes RowFingerprint batches onto a
// internal/queue.Queue, the way the teacher's pump workers streamed
// generated rows into an insert channel (internal/engine/pumper.go) —
// generalized here to pull real rows rather than generate fake ones.
package extract

import (
	"context"
	"database/sql"

	"pgcompare/internal/errkind"
	"pgcompare/internal/model"
	"pgcompare/internal/queue"
)

// Source is the subset of *sql.DB the extractor needs, so tests can
// substitute a stub.
type Source interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Config bundles one shard's extraction parameters.
type Config struct {
	TID           int64
	Side          model.Side
	Shard         int
	BatchNbr      int
	FetchSize     int
	ProgressEvery int
	Query         string
}

// Progress is emitted on the optional progress channel every
// ProgressEvery rows (spec §4.4).
type Progress struct {
	TID   int64
	Side  model.Side
	Shard int
	Rows  int64
}

// Run streams rows for one shard: it executes cfg.Query, scans
// (pk_json, pk_hash, column_hash) from each row, batches them into
// groups of cfg.FetchSize, and Puts each batch onto q. It returns the
// total row count or the first error encountered — a query/scan error
// is wrapped as errkind.Extract so the Reconciler can abort just this
// table rather than the whole run.
func Run(ctx context.Context, db Source, cfg Config, q *queue.Queue, progress chan<- Progress) (int64, error) {
	rows, err := db.QueryContext(ctx, cfg.Query)
	if err != nil {
		return 0, errkind.New(errkind.Extract, "failed to run extract query", err)
	}
	defer rows.Close()

	var total int64
	var pending []model.RowFingerprint
	flush := func() bool {
		if len(pending) == 0 {
			return true
		}
		ok := q.Put(ctx.Done(), queue.Batch{TID: cfg.TID, Side: cfg.Side, BatchNbr: cfg.BatchNbr, Rows: pending})
		pending = nil
		return ok
	}

	for rows.Next() {
		var fp model.RowFingerprint
		fp.TID, fp.BatchNbr = cfg.TID, cfg.BatchNbr
		if err := rows.Scan(&fp.PK, &fp.PKHash, &fp.ColumnHash); err != nil {
			return total, errkind.New(errkind.Extract, "failed to scan extracted row", err)
		}
		pending = append(pending, fp)
		total++

		if len(pending) >= cfg.FetchSize {
			if !flush() {
				return total, errkind.New(errkind.Cancel, "extraction canceled", ctx.Err())
			}
		}
		if progress != nil && cfg.ProgressEvery > 0 && total%int64(cfg.ProgressEvery) == 0 {
			select {
			case progress <- Progress{TID: cfg.TID, Side: cfg.Side, Shard: cfg.Shard, Rows: total}:
			default:
			}
		}
	}
	if err := rows.Err(); err != nil {
		return total, errkind.New(errkind.Extract, "row iteration failed", err)
	}
	if !flush() {
		return total, errkind.New(errkind.Cancel, "extraction canceled", ctx.Err())
	}
	return total, nil
}
