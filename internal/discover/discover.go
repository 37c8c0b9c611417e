// Package discover implements the Discoverer (C12): it crawls both
// sides' metadata catalogs through the Dialect interface the way the
// teacher's internal/schema.Analyzer crawled Postgres's catalog for FK
// ordering, but fans out across any of the five dialects and writes
// straight into the repository's dc_table_map/dc_table_column_map
// rows instead of building an in-memory dependency graph — table
// ordering by FK dependency has no role in reconciliation, where every
// table compares independently.
package discover

import (
	"context"
	"database/sql"
	"strings"

	"pgcompare/internal/cast"
	"pgcompare/internal/columnmap"
	"pgcompare/internal/dialect"
	"pgcompare/internal/errkind"
	"pgcompare/internal/model"
)

// Repository is the subset of *repo.Repo the discoverer writes through.
type Repository interface {
	UpsertTable(ctx context.Context, e model.TableEntry) (int64, error)
	UpsertTableMap(ctx context.Context, tm model.TableMap) error
	UpsertColumnMap(ctx context.Context, cm *model.ColumnMap) error
}

// Side bundles one side's live connection and dialect.
type Side struct {
	DB      *sql.DB
	Dialect dialect.Dialect
	Schema  string
	Filter  string // optional TABLE_NAME filter prefix, empty means all
}

// Options configures one discovery pass.
type Options struct {
	Project    int64
	Source     Side
	Target     Side
	FloatCast  string
	NumberCast string
	CastMode   cast.Mode
}

// Run crawls every table present on the source side, pairs it with a
// same-named table on the target side (case-insensitive), registers
// both, and compiles+persists the column map (spec §4.1, §4.12).
// Tables present only on one side are logged and skipped — that
// asymmetry is a discovery-time configuration problem, not a row-level
// finding.
func Run(ctx context.Context, repo Repository, opt Options) ([]string, error) {
	sourceTables, err := listTables(ctx, opt.Source)
	if err != nil {
		return nil, err
	}
	targetTables, err := listTables(ctx, opt.Target)
	if err != nil {
		return nil, err
	}
	targetByName := map[string]dialect.TableInfo{}
	for _, t := range targetTables {
		targetByName[strings.ToLower(t.TableName)] = t
	}

	var warnings []string
	for _, st := range sourceTables {
		alias := strings.ToLower(st.TableName)
		tt, ok := targetByName[alias]
		if !ok {
			warnings = append(warnings, "table "+alias+" has no matching target table; skipped")
			continue
		}

		entry := model.TableEntry{Project: opt.Project, Alias: alias, Enabled: true, BatchNbr: 1, ParallelDegree: 1}
		tid, err := repo.UpsertTable(ctx, entry)
		if err != nil {
			return warnings, err
		}

		sourceCols, err := listColumns(ctx, opt.Source, st)
		if err != nil {
			return warnings, err
		}
		targetCols, err := listColumns(ctx, opt.Target, tt)
		if err != nil {
			return warnings, err
		}

		if err := repo.UpsertTableMap(ctx, model.TableMap{
			TID: tid, Origin: model.SourceSide, SchemaName: st.Owner, TableName: st.TableName, ModColumn: primaryModColumn(sourceCols),
		}); err != nil {
			return warnings, err
		}
		if err := repo.UpsertTableMap(ctx, model.TableMap{
			TID: tid, Origin: model.TargetSide, SchemaName: tt.Owner, TableName: tt.TableName, ModColumn: primaryModColumn(targetCols),
		}); err != nil {
			return warnings, err
		}

		result := columnmap.Compile(columnmap.Input{
			TID: tid, SourceDialect: opt.Source.Dialect, TargetDialect: opt.Target.Dialect,
			SourceColumns: sourceCols, TargetColumns: targetCols,
			CastMode: opt.CastMode, FloatCast: opt.FloatCast, NumberCast: opt.NumberCast,
		})
		warnings = append(warnings, result.Warnings...)
		for _, cm := range result.Columns {
			if err := repo.UpsertColumnMap(ctx, cm); err != nil {
				return warnings, err
			}
		}
	}
	return warnings, nil
}

func listTables(ctx context.Context, side Side) ([]dialect.TableInfo, error) {
	query, args := side.Dialect.SelectTables(side.Schema)
	rows, err := side.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errkind.New(errkind.Connect, "failed to list tables", err)
	}
	defer rows.Close()
	var out []dialect.TableInfo
	for rows.Next() {
		var t dialect.TableInfo
		if err := rows.Scan(&t.Owner, &t.TableName); err != nil {
			return nil, errkind.New(errkind.Connect, "failed to scan table row", err)
		}
		if side.Filter != "" && !strings.HasPrefix(strings.ToLower(t.TableName), strings.ToLower(side.Filter)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func listColumns(ctx context.Context, side Side, table dialect.TableInfo) ([]dialect.ColumnInfo, error) {
	query, args := side.Dialect.SelectColumns(table.Owner, table.TableName)
	rows, err := side.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errkind.New(errkind.Connect, "failed to list columns", err)
	}
	defer rows.Close()
	var out []dialect.ColumnInfo
	for rows.Next() {
		var c dialect.ColumnInfo
		if err := rows.Scan(&c.Owner, &c.TableName, &c.ColumnName, &c.DataType, &c.DataLength, &c.DataPrecision, &c.DataScale, &c.Nullable, &c.PrimaryKey); err != nil {
			return nil, errkind.New(errkind.Connect, "failed to scan column row", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// primaryModColumn picks the first primary-key column as the default
// shard key; operators can override mod_column later via the repo.
func primaryModColumn(cols []dialect.ColumnInfo) string {
	for _, c := range cols {
		if c.PrimaryKey {
			return c.ColumnName
		}
	}
	if len(cols) > 0 {
		return cols[0].ColumnName
	}
	return ""
}
