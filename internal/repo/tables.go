package repo

import (
	"context"
	"database/sql"

	"pgcompare/internal/errkind"
	"pgcompare/internal/model"
)

// EnsureProject inserts the named project if absent and returns its id.
func (r *Repo) EnsureProject(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO dc_project (project_name) VALUES ($1)
ON CONFLICT (project_name) DO UPDATE SET project_name = EXCLUDED.project_name
RETURNING project_id`, name).Scan(&id)
	if err != nil {
		return 0, errkind.New(errkind.Config, "failed to register project", err)
	}
	return id, nil
}

// UpsertTable registers or updates a TableEntry and returns its tid.
func (r *Repo) UpsertTable(ctx context.Context, e model.TableEntry) (int64, error) {
	var tid int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO dc_table (project_id, alias, enabled, batch_nbr, parallel_degree)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (project_id, alias) DO UPDATE SET
    enabled = EXCLUDED.enabled,
    batch_nbr = EXCLUDED.batch_nbr,
    parallel_degree = EXCLUDED.parallel_degree
RETURNING tid`, e.Project, e.Alias, e.Enabled, e.BatchNbr, e.ParallelDegree).Scan(&tid)
	if err != nil {
		return 0, errkind.New(errkind.Config, "failed to register table "+e.Alias, err)
	}
	return tid, nil
}

// UpsertTableMap writes one side's physical location for tid.
func (r *Repo) UpsertTableMap(ctx context.Context, tm model.TableMap) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO dc_table_map (tid, origin, schema_name, table_name, mod_column, table_filter, preserve_case_owner, preserve_case_table)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (tid, origin) DO UPDATE SET
    schema_name = EXCLUDED.schema_name,
    table_name = EXCLUDED.table_name,
    mod_column = EXCLUDED.mod_column,
    table_filter = EXCLUDED.table_filter,
    preserve_case_owner = EXCLUDED.preserve_case_owner,
    preserve_case_table = EXCLUDED.preserve_case_table`,
		tm.TID, tm.Origin, tm.SchemaName, tm.TableName, tm.ModColumn, tm.TableFilter, tm.PreserveCaseOwner, tm.PreserveCaseTable)
	if err != nil {
		return errkind.New(errkind.Config, "failed to write table map", err)
	}
	return nil
}

// TableMaps returns both sides' TableMap rows for tid.
func (r *Repo) TableMaps(ctx context.Context, tid int64) (source, target model.TableMap, err error) {
	rows, qerr := r.db.QueryContext(ctx, `
SELECT origin, schema_name, table_name, mod_column, table_filter, preserve_case_owner, preserve_case_table
FROM dc_table_map WHERE tid = $1`, tid)
	if qerr != nil {
		return source, target, errkind.New(errkind.Config, "failed to read table map", qerr)
	}
	defer rows.Close()
	for rows.Next() {
		var tm model.TableMap
		var origin string
		if scanErr := rows.Scan(&origin, &tm.SchemaName, &tm.TableName, &tm.ModColumn, &tm.TableFilter, &tm.PreserveCaseOwner, &tm.PreserveCaseTable); scanErr != nil {
			return source, target, errkind.New(errkind.Config, "failed to scan table map", scanErr)
		}
		tm.TID = tid
		tm.Origin = model.Side(origin)
		if tm.Origin == model.SourceSide {
			source = tm
		} else {
			target = tm
		}
	}
	return source, target, nil
}

// EnabledTables lists registered tables, optionally filtered to one
// alias (spec §6 "table" option).
func (r *Repo) EnabledTables(ctx context.Context, projectID int64, alias string) ([]model.TableEntry, error) {
	query := `SELECT tid, project_id, alias, enabled, batch_nbr, parallel_degree FROM dc_table WHERE project_id = $1 AND enabled`
	args := []any{projectID}
	if alias != "" {
		query += " AND alias = $2"
		args = append(args, alias)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errkind.New(errkind.Config, "failed to list tables", err)
	}
	defer rows.Close()
	var out []model.TableEntry
	for rows.Next() {
		var e model.TableEntry
		if err := rows.Scan(&e.TID, &e.Project, &e.Alias, &e.Enabled, &e.BatchNbr, &e.ParallelDegree); err != nil {
			return nil, errkind.New(errkind.Config, "failed to scan table", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// UpsertColumnMap persists each alias's column names, data types,
// supported flags and data class from the compiled column map (spec
// C3's output). Value expressions are not stored; the Reconciler and
// the recheck command recompile the map on every run.
func (r *Repo) UpsertColumnMap(ctx context.Context, cm *model.ColumnMap) error {
	var srcCol, srcType, tgtCol, tgtType sql.NullString
	var srcSupported, tgtSupported bool
	dataClass := model.ClassChar
	if cm.Source != nil {
		srcCol, srcType = sql.NullString{String: cm.Source.ColumnName, Valid: true}, sql.NullString{String: cm.Source.DataType, Valid: true}
		srcSupported = cm.Source.Supported
		dataClass = cm.Source.DataClass
	}
	if cm.Target != nil {
		tgtCol, tgtType = sql.NullString{String: cm.Target.ColumnName, Valid: true}, sql.NullString{String: cm.Target.DataType, Valid: true}
		tgtSupported = cm.Target.Supported
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO dc_table_column_map (tid, column_alias, source_column, source_data_type, source_supported, target_column, target_data_type, target_supported, data_class)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (tid, column_alias) DO UPDATE SET
    source_column = EXCLUDED.source_column,
    source_data_type = EXCLUDED.source_data_type,
    source_supported = EXCLUDED.source_supported,
    target_column = EXCLUDED.target_column,
    target_data_type = EXCLUDED.target_data_type,
    target_supported = EXCLUDED.target_supported,
    data_class = EXCLUDED.data_class`,
		cm.TID, cm.ColumnAlias, srcCol, srcType, srcSupported, tgtCol, tgtType, tgtSupported, string(dataClass))
	if err != nil {
		return errkind.New(errkind.Map, "failed to persist column map for "+cm.ColumnAlias, err)
	}
	return nil
}
