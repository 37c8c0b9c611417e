// Package columnmap implements the column-map compiler (spec C3): it
// pairs source and target columns by alias, classifies each pair's
// cast family, and compiles the three SQL expressions the extractor
// (C4) needs per side — a JSON pk literal, an MD5 pk hash, and an MD5
// column hash — from the per-column value expressions internal/cast
// produces.
package columnmap

import (
	"fmt"
	"sort"
	"strings"

	"pgcompare/internal/cast"
	"pgcompare/internal/dialect"
	"pgcompare/internal/model"
)

// Input is everything the compiler needs for one table pair.
type Input struct {
	TID           int64
	SourceDialect dialect.Dialect
	TargetDialect dialect.Dialect
	SourceTable   model.TableMap
	TargetTable   model.TableMap
	SourceColumns []dialect.ColumnInfo
	TargetColumns []dialect.ColumnInfo
	// AliasOverride maps a column name (lowercased), on either side, to
	// the alias it should be paired under, for columns renamed between
	// engines.
	AliasOverride map[string]string
	FloatCast     string
	NumberCast    string
	CastMode      cast.Mode
}

// Result is the compiled column map plus anything worth surfacing to
// the operator.
type Result struct {
	Columns  []*model.ColumnMap
	Warnings []string
}

// Compile pairs columns by alias and fills in each side's DataClass,
// Supported flag, and ValueExpression. Columns present on only one side
// are still returned (with the missing side nil) so discovery can
// persist them, but HasBothSides()==false excludes them from the hash
// expressions built by BuildRowExprs.
func Compile(in Input) Result {
	byAlias := map[string]*model.ColumnMap{}
	var order []string

	addSide := func(side model.Side, cols []dialect.ColumnInfo, preserveCase bool) {
		for _, c := range cols {
			alias := strings.ToLower(c.ColumnName)
			if in.AliasOverride != nil {
				if override, ok := in.AliasOverride[strings.ToLower(c.ColumnName)]; ok {
					alias = strings.ToLower(override)
				}
			}
			cm, ok := byAlias[alias]
			if !ok {
				cm = &model.ColumnMap{TID: in.TID, ColumnAlias: alias}
				byAlias[alias] = cm
				order = append(order, alias)
			}
			family := cast.Classify(c.DataType)
			cs := &model.ColumnSide{
				ColumnName:    c.ColumnName,
				DataType:      c.DataType,
				DataLength:    c.DataLength,
				DataPrecision: c.DataPrecision,
				DataScale:     c.DataScale,
				Nullable:      c.Nullable,
				PrimaryKey:    c.PrimaryKey,
				DataClass:     cast.DataClass(family),
				PreserveCase:  preserveCase,
				Supported:     family != cast.Unsupported,
			}
			switch side {
			case model.SourceSide:
				cm.Source = cs
			case model.TargetSide:
				cm.Target = cs
			}
		}
	}

	addSide(model.SourceSide, in.SourceColumns, in.SourceTable.PreserveCaseTable)
	addSide(model.TargetSide, in.TargetColumns, in.TargetTable.PreserveCaseTable)

	sort.Strings(order)

	var warnings []string
	columns := make([]*model.ColumnMap, 0, len(order))
	for _, alias := range order {
		cm := byAlias[alias]
		if !cm.HasBothSides() {
			warnings = append(warnings, fmt.Sprintf("column %q present on only one side; excluded from hash", alias))
			columns = append(columns, cm)
			continue
		}
		if !cm.Source.Supported || !cm.Target.Supported {
			cm.Source.Supported = false
			cm.Target.Supported = false
			warnings = append(warnings, fmt.Sprintf("column %q has an unsupported type (%s/%s); excluded from hash",
				alias, cm.Source.DataType, cm.Target.DataType))
			columns = append(columns, cm)
			continue
		}
		family := cast.Classify(cm.Source.DataType)
		sourceTS := cast.TimeInfo{HasZone: cast.HasTimeZone(cm.Source.DataType), Precision: cm.Source.DataScale}
		targetTS := cast.TimeInfo{HasZone: cast.HasTimeZone(cm.Target.DataType), Precision: cm.Target.DataScale}
		cm.Source.ValueExpression = cast.SQLExpr(in.SourceDialect.Name(),
			in.SourceDialect.Quote(cm.Source.ColumnName, cm.Source.PreserveCase), family, in.CastMode, in.FloatCast, in.NumberCast, sourceTS)
		cm.Target.ValueExpression = cast.SQLExpr(in.TargetDialect.Name(),
			in.TargetDialect.Quote(cm.Target.ColumnName, cm.Target.PreserveCase), family, in.CastMode, in.FloatCast, in.NumberCast, targetTS)
		columns = append(columns, cm)
	}

	return Result{Columns: columns, Warnings: warnings}
}

// RowExprs holds the three compiled expressions SelectRowsQuery needs
// for one side of a table.
type RowExprs struct {
	PKJSONExpr     string
	PKHashExpr     string
	ColumnHashExpr string
	PKColumns      []string
}

// BuildRowExprs assembles the JSON pk literal and the two MD5 hash
// expressions for one side, from an already-compiled, alias-ordered
// Result. Only columns with HasBothSides() participate; within those,
// primary-key columns feed only the pk projection and non-pk supported
// columns feed only the column projection — column_hash is deterministic
// over the ordered concatenation of non-pk canonicalized values alone
// (spec §3).
func BuildRowExprs(dialectName string, columns []*model.ColumnMap, side model.Side) RowExprs {
	var pkParts []string
	var pkLiteralParts []string
	var colParts []string
	var pkCols []string

	for _, cm := range columns {
		if !cm.HasBothSides() {
			continue
		}
		var cs *model.ColumnSide
		switch side {
		case model.SourceSide:
			cs = cm.Source
		case model.TargetSide:
			cs = cm.Target
		}
		if cs == nil || !cs.Supported {
			continue
		}
		if cs.PrimaryKey {
			pkParts = append(pkParts, cs.ValueExpression)
			pkLiteralParts = append(pkLiteralParts, fmt.Sprintf("'\"%s\": \"'", cm.ColumnAlias), fmt.Sprintf("COALESCE(%s, '')", cs.ValueExpression), "'\"'")
			pkCols = append(pkCols, cs.ColumnName)
			continue
		}
		colParts = append(colParts, cs.ValueExpression)
	}

	return RowExprs{
		PKJSONExpr:     buildJSONExpr(dialectName, pkLiteralParts),
		PKHashExpr:     buildMD5Expr(dialectName, pkParts),
		ColumnHashExpr: buildMD5Expr(dialectName, colParts),
		PKColumns:      pkCols,
	}
}

// concat joins SQL text fragments using the engine's concatenation
// syntax: the ANSI || operator for postgres/oracle/db2, CONCAT() for
// mysql and sqlserver.
func concat(dialectName string, parts []string) string {
	switch dialectName {
	case "mysql", "sqlserver":
		return fmt.Sprintf("CONCAT(%s)", strings.Join(parts, ", "))
	default:
		return strings.Join(parts, " || ")
	}
}

// buildMD5Expr concatenates value expressions with CONCAT_WS-style
// semantics (NULL arguments become empty string, never skipped) and
// wraps the result in MD5(), producing a 32-char lowercase hex digest
// in every dialect the package targets.
func buildMD5Expr(dialectName string, parts []string) string {
	if len(parts) == 0 {
		return "MD5('')"
	}
	wrapped := make([]string, len(parts))
	for i, p := range parts {
		wrapped[i] = fmt.Sprintf("COALESCE(%s, '')", p)
	}
	return fmt.Sprintf("MD5(%s)", concat(dialectName, wrapped))
}

// buildJSONExpr assembles a JSON object literal text ({"alias":
// "value", ...}) by string concatenation rather than a dialect JSON
// function, so the literal's shape is identical across engines. parts
// is a flat, already-interleaved list of literal and value fragments.
func buildJSONExpr(dialectName string, parts []string) string {
	if len(parts) == 0 {
		return "'{}'"
	}
	separated := make([]string, 0, len(parts)+2)
	separated = append(separated, "'{'")
	for i, p := range parts {
		if i > 0 && i%3 == 0 {
			separated = append(separated, "', '")
		}
		separated = append(separated, p)
	}
	separated = append(separated, "'}'")
	return concat(dialectName, separated)
}
