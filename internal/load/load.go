// Package load implements the Loader (C6): it drains batches from the
// bounded queue and persists them into the repository's staging
// tables, the mirror image of the teacher's pumper.go insert workers
// but pulling from a queue instead of a fan-out channel, and writing
// through internal/repo instead of raw prepared statements.
package load

import (
	"context"

	"go.uber.org/zap"

	"pgcompare/internal/model"
	"pgcompare/internal/queue"
)

// Staging is the subset of *repo.Repo a loader needs, kept narrow so
// tests can substitute a stub instead of a live Postgres connection.
type Staging interface {
	InsertBatch(ctx context.Context, side model.Side, rows []model.RowFingerprint) error
}

// Done reports whether every extractor feeding this side has finished,
// so Run knows a Poll timeout with an empty queue means completion
// rather than a lull.
type Done func() bool

// Run drains q until every extractor for this (tid, side) pair has
// finished and the queue is empty; the other side's extractors are not
// consulted, since each side has its own queue. It commits
// each batch as it arrives. A batch insert error is logged and the
// batch dropped; loading continues, since the compare step will simply
// report the dropped rows as missing and a rerun resolves it (spec
// §4.6/§7: LoadError is not fatal the way ExtractError is). Only
// context cancellation aborts the loop.
func Run(ctx context.Context, staging Staging, q *queue.Queue, extractionDone Done, log *zap.Logger) (rowsLoaded int64, err error) {
	for {
		batch, ok := q.Poll()
		if ok {
			if insertErr := staging.InsertBatch(ctx, batch.Side, batch.Rows); insertErr != nil {
				log.Error("staging insert failed, batch dropped", zap.Int64("tid", batch.TID), zap.Int("batch_nbr", batch.BatchNbr), zap.Error(insertErr))
				continue
			}
			rowsLoaded += int64(len(batch.Rows))
			continue
		}
		if extractionDone() && q.Len() == 0 {
			return rowsLoaded, nil
		}
		select {
		case <-ctx.Done():
			return rowsLoaded, ctx.Err()
		default:
		}
	}
}
