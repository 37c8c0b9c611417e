package dialect

import "fmt"

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) SelectTables(schema string) (string, []any) {
	return `SELECT TABLE_SCHEMA, TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'`,
		[]any{schema}
}

func (d *MysqlDialect) SelectColumns(schema, table string) (string, []any) {
	return `SELECT
    TABLE_SCHEMA,
    TABLE_NAME,
    COLUMN_NAME,
    DATA_TYPE,
    COALESCE(CHARACTER_MAXIMUM_LENGTH, 0),
    COALESCE(NUMERIC_PRECISION, 0),
    COALESCE(NUMERIC_SCALE, DATETIME_PRECISION, 0),
    IS_NULLABLE = 'YES',
    COLUMN_KEY = 'PRI'
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`, []any{schema, table}
}

func (d *MysqlDialect) Quote(identifier string, preserveCase bool) string {
	if preserveCase {
		return "`" + identifier + "`"
	}
	return FoldCase(identifier, d.NativeCase())
}

func (d *MysqlDialect) NativeCase() CaseFold { return Lower }

func (d *MysqlDialect) Placeholder(ordinal int) string { return "?" }

func (d *MysqlDialect) ShardPredicate(modColumn string, shard, shardCount int) string {
	if shardCount <= 1 {
		return "1=1"
	}
	return fmt.Sprintf("MOD(CRC32(%s), %d) = %d", modColumn, shardCount, shard)
}

func (d *MysqlDialect) SelectRowsQuery(schema, table, filter, pkJSONExpr, pkHashExpr, columnHashExpr, modColumn string, shard, shardCount int, sortByPK bool, pkCols []string) string {
	full := fmt.Sprintf("%s.%s", d.Quote(schema, false), d.Quote(table, false))
	return fmt.Sprintf(
		"SELECT %s AS pk_json, %s AS pk_hash, %s AS column_hash FROM %s WHERE %s%s%s",
		pkJSONExpr, pkHashExpr, columnHashExpr, full,
		d.ShardPredicate(modColumn, shard, shardCount),
		filterClause(filter),
		orderByPK(pkCols, sortByPK),
	)
}
