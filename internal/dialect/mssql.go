package dialect

import (
	"fmt"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver
)

type MSSQLDialect struct{}

// MSSQL prefers @p1, @p2 named parameters over ? for bound queries.

func (d *MSSQLDialect) Name() string { return "sqlserver" }

func (d *MSSQLDialect) SelectTables(schema string) (string, []any) {
	return `SELECT TABLE_SCHEMA, TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'`,
		[]any{schema}
}

func (d *MSSQLDialect) SelectColumns(schema, table string) (string, []any) {
	return `
SELECT
    c.TABLE_SCHEMA,
    c.TABLE_NAME,
    c.COLUMN_NAME,
    c.DATA_TYPE,
    COALESCE(c.CHARACTER_MAXIMUM_LENGTH, 0),
    COALESCE(c.NUMERIC_PRECISION, 0),
    COALESCE(c.NUMERIC_SCALE, c.DATETIME_PRECISION, 0),
    CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END,
    CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN (
    SELECT kcu.TABLE_NAME, kcu.COLUMN_NAME
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
        ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @p1
) pk ON c.TABLE_NAME = pk.TABLE_NAME AND c.COLUMN_NAME = pk.COLUMN_NAME
WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
ORDER BY c.ORDINAL_POSITION`, []any{schema, table}
}

func (d *MSSQLDialect) Quote(identifier string, preserveCase bool) string {
	if preserveCase {
		return "[" + identifier + "]"
	}
	return FoldCase(identifier, d.NativeCase())
}

func (d *MSSQLDialect) NativeCase() CaseFold { return Upper }

func (d *MSSQLDialect) Placeholder(ordinal int) string {
	return fmt.Sprintf("@p%d", ordinal+1)
}

func (d *MSSQLDialect) ShardPredicate(modColumn string, shard, shardCount int) string {
	if shardCount <= 1 {
		return "1=1"
	}
	return fmt.Sprintf("ABS(CHECKSUM(%s)) %% %d = %d", modColumn, shardCount, shard)
}

func (d *MSSQLDialect) SelectRowsQuery(schema, table, filter, pkJSONExpr, pkHashExpr, columnHashExpr, modColumn string, shard, shardCount int, sortByPK bool, pkCols []string) string {
	full := fmt.Sprintf("%s.%s", d.Quote(schema, false), d.Quote(table, false))
	return fmt.Sprintf(
		"SELECT %s AS pk_json, %s AS pk_hash, %s AS column_hash FROM %s WHERE %s%s%s",
		pkJSONExpr, pkHashExpr, columnHashExpr, full,
		d.ShardPredicate(modColumn, shard, shardCount),
		filterClause(filter),
		orderByPK(pkCols, sortByPK),
	)
}
