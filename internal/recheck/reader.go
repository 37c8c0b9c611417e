package recheck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pgcompare/internal/dialect"
	"pgcompare/internal/errkind"
	"pgcompare/internal/model"
)

// SQLRowReader is the concrete RowReader backing production rechecks:
// it decodes the stored pk JSON literal, builds a one-row SELECT
// against the live table using the dialect's quoting and placeholder
// syntax, and scans every mapped column into a map keyed by alias.
type SQLRowReader struct {
	DB      *sql.DB
	Dialect dialect.Dialect
	Table   model.TableMap
	Columns []*model.ColumnMap
	Side    model.Side
}

func (r *SQLRowReader) ReadRow(ctx context.Context, tid int64, pkJSON string, aliases []string) (map[string]any, bool, error) {
	pk, err := decodePK(pkJSON)
	if err != nil {
		return nil, false, errkind.New(errkind.Extract, "failed to decode stored pk", err)
	}

	byAlias := make(map[string]*model.ColumnSide, len(r.Columns))
	for _, cm := range r.Columns {
		cs := cm.Source
		if r.Side == model.TargetSide {
			cs = cm.Target
		}
		if cs != nil {
			byAlias[cm.ColumnAlias] = cs
		}
	}

	selectCols := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		if cs, ok := byAlias[alias]; ok {
			selectCols = append(selectCols, r.Dialect.Quote(cs.ColumnName, cs.PreserveCase))
		}
	}

	var where []string
	var args []any
	ordinal := 0
	for alias, val := range pk {
		cs, ok := byAlias[alias]
		if !ok {
			continue
		}
		where = append(where, fmt.Sprintf("%s = %s", r.Dialect.Quote(cs.ColumnName, cs.PreserveCase), r.Dialect.Placeholder(ordinal)))
		args = append(args, val)
		ordinal++
	}

	table := fmt.Sprintf("%s.%s", r.Dialect.Quote(r.Table.SchemaName, r.Table.PreserveCaseOwner), r.Dialect.Quote(r.Table.TableName, r.Table.PreserveCaseTable))
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(selectCols, ", "), table, strings.Join(where, " AND "))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, errkind.New(errkind.Extract, "recheck row read failed", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, nil
	}
	scanned := make([]any, len(aliases))
	scanPtrs := make([]any, len(aliases))
	for i := range scanned {
		scanPtrs[i] = &scanned[i]
	}
	if err := rows.Scan(scanPtrs...); err != nil {
		return nil, false, errkind.New(errkind.Extract, "recheck row scan failed", err)
	}

	values := make(map[string]any, len(aliases))
	for i, alias := range aliases {
		values[alias] = scanned[i]
	}
	return values, true, nil
}
