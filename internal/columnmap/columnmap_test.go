package columnmap

import (
	"strings"
	"testing"

	"pgcompare/internal/cast"
	"pgcompare/internal/dialect"
	"pgcompare/internal/model"
)

func TestCompilePairsByAlias(t *testing.T) {
	src := []dialect.ColumnInfo{
		{ColumnName: "ID", DataType: "integer", PrimaryKey: true},
		{ColumnName: "NAME", DataType: "varchar"},
		{ColumnName: "ONLY_SOURCE", DataType: "varchar"},
	}
	tgt := []dialect.ColumnInfo{
		{ColumnName: "id", DataType: "int"},
		{ColumnName: "name", DataType: "varchar"},
		{ColumnName: "only_target", DataType: "varchar"},
	}

	res := Compile(Input{
		TID:           1,
		SourceDialect: &dialect.PostgresDialect{},
		TargetDialect: &dialect.MysqlDialect{},
		SourceColumns: src,
		TargetColumns: tgt,
		CastMode:      cast.ModeNormalized,
		NumberCast:    "standard",
		FloatCast:     "standard",
	})

	if len(res.Columns) != 4 {
		t.Fatalf("expected 4 aliases (id, name, only_source, only_target), got %d", len(res.Columns))
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 one-sided-column warnings, got %d: %v", len(res.Warnings), res.Warnings)
	}

	var idMap *model.ColumnMap
	for _, cm := range res.Columns {
		if cm.ColumnAlias == "id" {
			idMap = cm
		}
	}
	if idMap == nil || !idMap.HasBothSides() {
		t.Fatalf("expected a fully paired id column")
	}
	if idMap.Source.ValueExpression == "" || idMap.Target.ValueExpression == "" {
		t.Fatalf("expected both sides to get a compiled value expression")
	}
}

func TestBuildRowExprsOnlyUsesPairedSupportedColumns(t *testing.T) {
	columns := []*model.ColumnMap{
		{
			ColumnAlias: "id",
			Source:      &model.ColumnSide{ColumnName: "id", PrimaryKey: true, Supported: true, ValueExpression: `CAST("id" AS VARCHAR(4000))`},
			Target:      &model.ColumnSide{ColumnName: "id", PrimaryKey: true, Supported: true, ValueExpression: "CAST(`id` AS CHAR)"},
		},
		{
			ColumnAlias: "name",
			Source:      &model.ColumnSide{ColumnName: "name", Supported: true, ValueExpression: `CAST("name" AS VARCHAR(4000))`},
			Target:      &model.ColumnSide{ColumnName: "name", Supported: true, ValueExpression: "CAST(`name` AS CHAR)"},
		},
		{
			ColumnAlias: "orphan",
			Source:      &model.ColumnSide{ColumnName: "orphan", Supported: true, ValueExpression: `CAST("orphan" AS VARCHAR(4000))`},
		},
	}
	columns[0].TID, columns[1].TID, columns[2].TID = 1, 1, 1

	exprs := BuildRowExprs("postgres", columns, model.SourceSide)
	if !strings.HasPrefix(exprs.PKHashExpr, "MD5(") {
		t.Fatalf("expected pk hash expr to be MD5-wrapped, got %q", exprs.PKHashExpr)
	}
	if !strings.Contains(exprs.PKJSONExpr, `"id"`) {
		t.Fatalf("expected pk json expr to reference alias id, got %q", exprs.PKJSONExpr)
	}
	if len(exprs.PKColumns) != 1 || exprs.PKColumns[0] != "id" {
		t.Fatalf("expected exactly one pk column (id), got %v", exprs.PKColumns)
	}
	if strings.Contains(exprs.ColumnHashExpr, "orphan") {
		t.Fatalf("orphan column without both sides must be excluded from the hash expr, got %q", exprs.ColumnHashExpr)
	}
	if !strings.Contains(exprs.ColumnHashExpr, `"name"`) {
		t.Fatalf("expected non-pk paired column name in the column hash expr, got %q", exprs.ColumnHashExpr)
	}
	if strings.Contains(exprs.ColumnHashExpr, `"id"`) {
		t.Fatalf("pk column id must be excluded from column_hash (spec: non-pk columns only), got %q", exprs.ColumnHashExpr)
	}
}

func TestBuildRowExprsMySQLUsesConcat(t *testing.T) {
	columns := []*model.ColumnMap{
		{
			ColumnAlias: "id",
			Source:      &model.ColumnSide{ColumnName: "id", PrimaryKey: true, Supported: true, ValueExpression: "CAST(`id` AS CHAR)"},
			Target:      &model.ColumnSide{ColumnName: "id", PrimaryKey: true, Supported: true, ValueExpression: `CAST("id" AS VARCHAR(4000))`},
		},
	}
	exprs := BuildRowExprs("mysql", columns, model.TargetSide)
	if !strings.Contains(exprs.PKJSONExpr, "CONCAT(") {
		t.Fatalf("expected mysql concat syntax in pk json expr, got %q", exprs.PKJSONExpr)
	}
}
