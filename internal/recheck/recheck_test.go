package recheck

import (
	"context"
	"testing"

	"pgcompare/internal/cast"
	"pgcompare/internal/model"
)

func testColumns() []*model.ColumnMap {
	return []*model.ColumnMap{
		{
			ColumnAlias: "id",
			Source:      &model.ColumnSide{ColumnName: "id", DataType: "integer", PrimaryKey: true, Supported: true},
			Target:      &model.ColumnSide{ColumnName: "id", DataType: "int", PrimaryKey: true, Supported: true},
		},
		{
			ColumnAlias: "name",
			Source:      &model.ColumnSide{ColumnName: "name", DataType: "varchar", Supported: true},
			Target:      &model.ColumnSide{ColumnName: "name", DataType: "varchar", Supported: true},
		},
	}
}

func TestHashRowMatchesAcrossSides(t *testing.T) {
	cols := testColumns()
	aliases := []string{"id", "name"}
	values := map[string]any{"id": int64(1), "name": "Ada"}

	sourceHash := hashRow(cols, aliases, values, model.SourceSide, cast.ModeNormalized, "standard")
	targetHash := hashRow(cols, aliases, values, model.TargetSide, cast.ModeNormalized, "standard")
	if sourceHash != targetHash {
		t.Fatalf("identical values on both sides should hash identically: %q vs %q", sourceHash, targetHash)
	}
}

func TestHashRowExcludesPrimaryKeyColumns(t *testing.T) {
	cols := testColumns()
	aliases := []string{"id", "name"}
	a := hashRow(cols, aliases, map[string]any{"id": int64(1), "name": "Ada"}, model.SourceSide, cast.ModeNormalized, "standard")
	b := hashRow(cols, aliases, map[string]any{"id": int64(2), "name": "Ada"}, model.SourceSide, cast.ModeNormalized, "standard")
	if a != b {
		t.Fatalf("pk-only value change must not affect column_hash: %q vs %q", a, b)
	}
}

func TestHashRowDiffersOnValueChange(t *testing.T) {
	cols := testColumns()
	aliases := []string{"id", "name"}
	a := hashRow(cols, aliases, map[string]any{"id": int64(1), "name": "Ada"}, model.SourceSide, cast.ModeNormalized, "standard")
	b := hashRow(cols, aliases, map[string]any{"id": int64(1), "name": "Grace"}, model.SourceSide, cast.ModeNormalized, "standard")
	if a == b {
		t.Fatalf("different values should not hash the same")
	}
}

type stubReader struct {
	values map[string]any
	found  bool
}

func (s stubReader) ReadRow(ctx context.Context, tid int64, pkJSON string, aliases []string) (map[string]any, bool, error) {
	return s.values, s.found, nil
}

func TestRecheckOneResolvedWhenValuesNowMatch(t *testing.T) {
	cols := testColumns()
	finding := model.Finding{PK: `{"id": "1"}`, Status: model.StatusNotEqual}
	source := stubReader{values: map[string]any{"id": int64(1), "name": "Ada"}, found: true}
	target := stubReader{values: map[string]any{"id": int64(1), "name": "Ada"}, found: true}

	outcome, err := recheckOne(context.Background(), finding, cols, source, target, cast.ModeNormalized, "standard", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != model.RecheckResolved {
		t.Fatalf("expected resolved, got %s", outcome)
	}
}

func TestRecheckOneConfirmedWhenStillDiffers(t *testing.T) {
	cols := testColumns()
	finding := model.Finding{PK: `{"id": "1"}`, Status: model.StatusNotEqual}
	source := stubReader{values: map[string]any{"id": int64(1), "name": "Ada"}, found: true}
	target := stubReader{values: map[string]any{"id": int64(1), "name": "Grace"}, found: true}

	outcome, err := recheckOne(context.Background(), finding, cols, source, target, cast.ModeNormalized, "standard", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != model.RecheckConfirmed {
		t.Fatalf("expected confirmed, got %s", outcome)
	}
}

func TestRecheckOneStillMissingWhenBothAbsent(t *testing.T) {
	cols := testColumns()
	finding := model.Finding{PK: `{"id": "1"}`, Status: model.StatusMissing}
	source := stubReader{found: false}
	target := stubReader{found: false}

	outcome, err := recheckOne(context.Background(), finding, cols, source, target, cast.ModeNormalized, "standard", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != model.RecheckStillMissing {
		t.Fatalf("expected still_missing, got %s", outcome)
	}
}
