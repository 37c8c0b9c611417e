// Package recheck implements the Rechecker (C8): for each outstanding
// Finding it re-reads the live row by primary key on both sides,
// re-canonicalizes every mapped column through internal/cast's Go-side
// rules, and reclassifies the finding as confirmed, resolved, or
// still_missing (spec §4.8). Unlike the Reconciler's bulk path, this
// runs entirely in-process — no SQL cast expressions, no staging — so
// its canonicalization must byte-for-byte match what internal/cast's
// SQL expressions would have produced for the same raw value.
package recheck

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"pgcompare/internal/cast"
	"pgcompare/internal/model"
)

// RowReader re-reads one row by its primary-key JSON, returning the
// raw Go values for every mapped column in alias order, or found=false
// if no row matches.
type RowReader interface {
	ReadRow(ctx context.Context, tid int64, pkJSON string, aliases []string) (values map[string]any, found bool, err error)
}

// Repository is the subset of *repo.Repo the Rechecker needs.
type Repository interface {
	Findings(ctx context.Context, tid int64, side model.Side) ([]model.Finding, error)
	RecordRecheckOutcome(ctx context.Context, f model.Finding) error
}

// Run re-verifies every outstanding finding for tid on both sides and
// records the outcome. It returns the number of findings processed.
func Run(ctx context.Context, repo Repository, columns []*model.ColumnMap, source, target RowReader, castMode cast.Mode, numberCast string, tid int64) (int, error) {
	count := 0
	for _, side := range []model.Side{model.SourceSide, model.TargetSide} {
		findings, err := repo.Findings(ctx, tid, side)
		if err != nil {
			return count, err
		}
		for _, f := range findings {
			outcome, err := recheckOne(ctx, f, columns, source, target, castMode, numberCast, tid)
			if err != nil {
				return count, err
			}
			f.RecheckOutcome = outcome
			if err := repo.RecordRecheckOutcome(ctx, f); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func recheckOne(ctx context.Context, f model.Finding, columns []*model.ColumnMap, source, target RowReader, castMode cast.Mode, numberCast string, tid int64) (model.RecheckOutcome, error) {
	// Primary-key columns are excluded: column_hash (and so this
	// in-process reconstruction of it) is only ever taken over the
	// non-pk columns, matching internal/columnmap.BuildRowExprs.
	aliases := make([]string, 0, len(columns))
	for _, cm := range columns {
		if cm.HasBothSides() && !cm.Source.PrimaryKey {
			aliases = append(aliases, cm.ColumnAlias)
		}
	}

	sourceValues, sourceFound, err := source.ReadRow(ctx, tid, f.PK, aliases)
	if err != nil {
		return "", err
	}
	targetValues, targetFound, err := target.ReadRow(ctx, tid, f.PK, aliases)
	if err != nil {
		return "", err
	}

	if !sourceFound && !targetFound {
		return model.RecheckStillMissing, nil
	}
	if sourceFound != targetFound {
		return model.RecheckStillMissing, nil
	}

	sourceHash := hashRow(columns, aliases, sourceValues, model.SourceSide, castMode, numberCast)
	targetHash := hashRow(columns, aliases, targetValues, model.TargetSide, castMode, numberCast)
	if sourceHash == targetHash {
		return model.RecheckResolved, nil
	}
	return model.RecheckConfirmed, nil
}

// hashRow rebuilds the same MD5(COALESCE(v1,'') || COALESCE(v2,'') ...)
// shape the bulk column-hash SQL expression computes, but over Go
// values canonicalized via internal/cast instead of compiled SQL.
func hashRow(columns []*model.ColumnMap, aliases []string, values map[string]any, side model.Side, castMode cast.Mode, numberCast string) string {
	h := md5.New()
	byAlias := make(map[string]*model.ColumnMap, len(columns))
	for _, cm := range columns {
		byAlias[cm.ColumnAlias] = cm
	}
	for _, alias := range aliases {
		cm := byAlias[alias]
		if cm == nil {
			continue
		}
		cs := cm.Source
		if side == model.TargetSide {
			cs = cm.Target
		}
		if cs == nil || !cs.Supported || cs.PrimaryKey {
			continue
		}
		family := cast.Classify(cs.DataType)
		ts := cast.TimeInfo{HasZone: cast.HasTimeZone(cs.DataType), Precision: cs.DataScale}
		h.Write([]byte(cast.Canonicalize(values[alias], family, castMode, numberCast, ts)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// decodePK parses the stored pk JSON literal into a map, used by
// RowReader implementations to build the WHERE clause for the re-read.
func decodePK(pkJSON string) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(pkJSON), &m); err != nil {
		return nil, err
	}
	return m, nil
}
