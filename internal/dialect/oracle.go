package dialect

import "fmt"

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) SelectTables(schema string) (string, []any) {
	// Oracle's USER_TABLES lists tables owned by the connected user; the
	// schema argument is accepted for interface uniformity but Oracle
	// access here is always scoped to the current session's owner.
	return `SELECT :1 AS OWNER, TABLE_NAME FROM USER_TABLES WHERE :1 IS NOT NULL`, []any{schema}
}

func (d *OracleDialect) SelectColumns(schema, table string) (string, []any) {
	return `
SELECT
    :1 AS OWNER,
    t.TABLE_NAME,
    t.COLUMN_NAME,
    t.DATA_TYPE,
    COALESCE(t.DATA_LENGTH, 0),
    COALESCE(t.DATA_PRECISION, 0),
    COALESCE(t.DATA_SCALE, 0),
    CASE WHEN t.NULLABLE = 'Y' THEN 1 ELSE 0 END,
    CASE WHEN p.CONSTRAINT_NAME IS NOT NULL THEN 1 ELSE 0 END
FROM USER_TAB_COLUMNS t
LEFT JOIN (
    SELECT cc.TABLE_NAME, cc.COLUMN_NAME, cc.CONSTRAINT_NAME
    FROM USER_CONS_COLUMNS cc
    JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
    WHERE uc.CONSTRAINT_TYPE = 'P'
) p ON t.TABLE_NAME = p.TABLE_NAME AND t.COLUMN_NAME = p.COLUMN_NAME
WHERE t.TABLE_NAME = :2
ORDER BY t.COLUMN_ID`, []any{schema, table}
}

func (d *OracleDialect) Quote(identifier string, preserveCase bool) string {
	if preserveCase {
		return `"` + identifier + `"`
	}
	return FoldCase(identifier, d.NativeCase())
}

func (d *OracleDialect) NativeCase() CaseFold { return Upper }

func (d *OracleDialect) Placeholder(ordinal int) string {
	// Oracle uses :1, :2, etc. (1-based)
	return fmt.Sprintf(":%d", ordinal+1)
}

func (d *OracleDialect) ShardPredicate(modColumn string, shard, shardCount int) string {
	if shardCount <= 1 {
		return "1=1"
	}
	return fmt.Sprintf("MOD(ORA_HASH(%s), %d) = %d", modColumn, shardCount, shard)
}

func (d *OracleDialect) SelectRowsQuery(schema, table, filter, pkJSONExpr, pkHashExpr, columnHashExpr, modColumn string, shard, shardCount int, sortByPK bool, pkCols []string) string {
	// Oracle has no schema-qualified owner concept beyond the connected
	// user for USER_* views; table references are unqualified.
	full := d.Quote(table, false)
	return fmt.Sprintf(
		"SELECT %s AS pk_json, %s AS pk_hash, %s AS column_hash FROM %s WHERE %s%s%s",
		pkJSONExpr, pkHashExpr, columnHashExpr, full,
		d.ShardPredicate(modColumn, shard, shardCount),
		filterClause(filter),
		orderByPK(pkCols, sortByPK),
	)
}
