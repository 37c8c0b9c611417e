package repo

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"pgcompare/internal/errkind"
	"pgcompare/internal/model"
)

func stagingTable(side model.Side) string {
	if side == model.SourceSide {
		return "dc_source"
	}
	return "dc_target"
}

func findingsTable(side model.Side) string {
	if side == model.SourceSide {
		return "dc_source_findings"
	}
	return "dc_target_findings"
}

// TruncateStaging clears one side's staged fingerprints for tid ahead
// of a fresh extract (spec §4.7 step 2); check mode skips this call so
// its compare re-runs over the previous run's staging.
func (r *Repo) TruncateStaging(ctx context.Context, tid int64, side model.Side) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE tid = $1`, stagingTable(side)), tid)
	if err != nil {
		return errkind.New(errkind.Load, "failed to clear staging", err)
	}
	return nil
}

// InsertBatch bulk-inserts one Loader batch via lib/pq's COPY protocol,
// the session setting the repo connection applies (synchronous_commit
// off, autocommit per-batch) per spec §4.6.
func (r *Repo) InsertBatch(ctx context.Context, side model.Side, rows []model.RowFingerprint) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errkind.New(errkind.Load, "failed to begin staging batch", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = off`); err != nil {
		return errkind.New(errkind.Load, "failed to set synchronous_commit", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(stagingTable(side), "tid", "batch_nbr", "pk_hash", "column_hash", "pk"))
	if err != nil {
		return errkind.New(errkind.Load, "failed to prepare staging copy", err)
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.TID, row.BatchNbr, row.PKHash, row.ColumnHash, row.PK); err != nil {
			stmt.Close()
			return errkind.New(errkind.Load, "failed to stage row batch", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return errkind.New(errkind.Load, "failed to flush staging copy", err)
	}
	if err := stmt.Close(); err != nil {
		return errkind.New(errkind.Load, "failed to close staging copy", err)
	}
	if err := tx.Commit(); err != nil {
		return errkind.New(errkind.Load, "failed to commit staging batch", err)
	}
	return nil
}

// StagedCount reports how many rows are currently staged for tid/side,
// used by the Observer (C9) to decide whether to throttle extraction.
func (r *Repo) StagedCount(ctx context.Context, tid int64, side model.Side) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s WHERE tid = $1`, stagingTable(side)), tid).Scan(&n)
	if err != nil {
		return 0, errkind.New(errkind.Load, "failed to count staged rows", err)
	}
	return n, nil
}

// Vacuum runs VACUUM on a staging table, honoring observer-vacuum.
func (r *Repo) Vacuum(ctx context.Context, side model.Side) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf("VACUUM %s", stagingTable(side)))
	if err != nil {
		return errkind.New(errkind.Load, "failed to vacuum staging table", err)
	}
	return nil
}

// Compare runs the set-difference classification described in spec
// §4.7 step 5: rows whose pk_hash exists on both sides but whose
// column_hash differs are not_equal; rows whose pk_hash exists on only
// one side are missing from the other. Findings are written to
// dc_source_findings/dc_target_findings and RunCounts summarizes them.
func (r *Repo) Compare(ctx context.Context, tid int64, batchNbr int) (model.RunCounts, error) {
	var counts model.RunCounts

	row := r.db.QueryRowContext(ctx, `
SELECT count(*) FROM dc_source s JOIN dc_target t
    ON s.tid = t.tid AND s.pk_hash = t.pk_hash
WHERE s.tid = $1 AND s.column_hash = t.column_hash`, tid)
	if err := row.Scan(&counts.Equal); err != nil {
		return counts, errkind.New(errkind.Load, "failed to count equal rows", err)
	}

	notEqual, err := r.writeFindings(ctx, tid, batchNbr, `
SELECT s.pk FROM dc_source s JOIN dc_target t
    ON s.tid = t.tid AND s.pk_hash = t.pk_hash
WHERE s.tid = $1 AND s.column_hash <> t.column_hash`, model.StatusNotEqual)
	if err != nil {
		return counts, err
	}
	counts.NotEqual = notEqual

	missingTarget, err := r.writeFindingsSide(ctx, tid, batchNbr, model.SourceSide, `
SELECT s.pk FROM dc_source s
WHERE s.tid = $1 AND NOT EXISTS (SELECT 1 FROM dc_target t WHERE t.tid = s.tid AND t.pk_hash = s.pk_hash)`, model.StatusMissing)
	if err != nil {
		return counts, err
	}
	counts.MissingTarget = missingTarget

	missingSource, err := r.writeFindingsSide(ctx, tid, batchNbr, model.TargetSide, `
SELECT t.pk FROM dc_target t
WHERE t.tid = $1 AND NOT EXISTS (SELECT 1 FROM dc_source s WHERE s.tid = t.tid AND s.pk_hash = t.pk_hash)`, model.StatusMissing)
	if err != nil {
		return counts, err
	}
	counts.MissingSource = missingSource

	return counts, nil
}

// writeFindings records a not_equal finding on both sides (the row
// exists on both, just disagrees).
func (r *Repo) writeFindings(ctx context.Context, tid int64, batchNbr int, query string, status model.FindingStatus) (int, error) {
	count, err := r.writeFindingsSide(ctx, tid, batchNbr, model.SourceSide, query, status)
	if err != nil {
		return 0, err
	}
	if _, err := r.writeFindingsSide(ctx, tid, batchNbr, model.TargetSide, query, status); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repo) writeFindingsSide(ctx context.Context, tid int64, batchNbr int, side model.Side, query string, status model.FindingStatus) (int, error) {
	rows, err := r.db.QueryContext(ctx, query, tid)
	if err != nil {
		return 0, errkind.New(errkind.Load, "failed to select findings", err)
	}
	defer rows.Close()

	var count int
	table := findingsTable(side)
	for rows.Next() {
		var pk string
		if err := rows.Scan(&pk); err != nil {
			return count, errkind.New(errkind.Load, "failed to scan finding pk", err)
		}
		if _, err := r.db.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (tid, batch_nbr, pk, status) VALUES ($1, $2, $3, $4)`, table),
			tid, batchNbr, pk, string(status)); err != nil {
			return count, errkind.New(errkind.Load, "failed to write finding", err)
		}
		count++
	}
	return count, nil
}

// Findings returns the unresolved findings for tid/side, for the
// Rechecker to re-verify.
func (r *Repo) Findings(ctx context.Context, tid int64, side model.Side) ([]model.Finding, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT batch_nbr, pk, status FROM %s WHERE tid = $1 AND recheck_outcome = ''`, findingsTable(side)), tid)
	if err != nil {
		return nil, errkind.New(errkind.Load, "failed to read findings", err)
	}
	defer rows.Close()
	var out []model.Finding
	for rows.Next() {
		var f model.Finding
		f.TID, f.Side = tid, side
		if err := rows.Scan(&f.BatchNbr, &f.PK, &f.Status); err != nil {
			return nil, errkind.New(errkind.Load, "failed to scan finding", err)
		}
		out = append(out, f)
	}
	return out, nil
}

// RecordRecheckOutcome writes the Rechecker's verdict for one finding.
func (r *Repo) RecordRecheckOutcome(ctx context.Context, f model.Finding) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET recheck_outcome = $1 WHERE tid = $2 AND batch_nbr = $3 AND pk = $4`, findingsTable(f.Side)),
		string(f.RecheckOutcome), f.TID, f.BatchNbr, f.PK)
	if err != nil {
		return errkind.New(errkind.Load, "failed to record recheck outcome", err)
	}
	return nil
}

// StartRun inserts a new dc_table_history row in "running" status.
func (r *Repo) StartRun(ctx context.Context, h model.RunHistory) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO dc_table_history (tid, run_id, action, batch_nbr, start_ts, status)
VALUES ($1, $2, $3, $4, $5, $6)`,
		h.TID, h.RunID, h.Action, h.BatchNbr, h.StartTS, string(h.Status))
	if err != nil {
		return errkind.New(errkind.Load, "failed to start run history", err)
	}
	return nil
}

// FinishRun records a run's terminal status and counts.
func (r *Repo) FinishRun(ctx context.Context, h model.RunHistory) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE dc_table_history SET
    end_ts = $1, status = $2,
    equal_count = $3, not_equal_count = $4, missing_source_count = $5, missing_target_count = $6
WHERE tid = $7 AND run_id = $8`,
		h.EndTS, string(h.Status), h.Counts.Equal, h.Counts.NotEqual, h.Counts.MissingSource, h.Counts.MissingTarget,
		h.TID, h.RunID)
	if err != nil {
		return errkind.New(errkind.Load, "failed to finish run history", err)
	}
	return nil
}
