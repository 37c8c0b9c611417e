package dialect

import (
	"fmt"

	_ "github.com/ibmdb/go_ibm_db" // DB2 CLI driver
)

// DB2Dialect covers IBM DB2 LUW, driven through the CGO-based CLI
// driver used elsewhere in the retrieval pack for DB2 connectivity
// (tanadee-generateJavaEntity). The teacher's four dialects don't cover
// DB2 at all; this fills the fifth engine spec §1 names.
type DB2Dialect struct{}

func (d *DB2Dialect) Name() string { return "db2" }

func (d *DB2Dialect) SelectTables(schema string) (string, []any) {
	return `SELECT TABSCHEMA, TABNAME FROM SYSCAT.TABLES WHERE TABSCHEMA = ? AND TYPE = 'T'`,
		[]any{schema}
}

func (d *DB2Dialect) SelectColumns(schema, table string) (string, []any) {
	return `
SELECT
    c.TABSCHEMA,
    c.TABNAME,
    c.COLNAME,
    c.TYPENAME,
    COALESCE(c.LENGTH, 0),
    COALESCE(c.LENGTH, 0),
    COALESCE(c.SCALE, 0),
    CASE WHEN c.NULLS = 'Y' THEN 1 ELSE 0 END,
    CASE WHEN c.KEYSEQ IS NOT NULL THEN 1 ELSE 0 END
FROM SYSCAT.COLUMNS c
WHERE c.TABSCHEMA = ? AND c.TABNAME = ?
ORDER BY c.COLNO`, []any{schema, table}
}

func (d *DB2Dialect) Quote(identifier string, preserveCase bool) string {
	if preserveCase {
		return `"` + identifier + `"`
	}
	return FoldCase(identifier, d.NativeCase())
}

func (d *DB2Dialect) NativeCase() CaseFold { return Upper }

func (d *DB2Dialect) Placeholder(ordinal int) string { return "?" }

func (d *DB2Dialect) ShardPredicate(modColumn string, shard, shardCount int) string {
	if shardCount <= 1 {
		return "1=1"
	}
	return fmt.Sprintf("MOD(ABS(HASH(%s, 2)), %d) = %d", modColumn, shardCount, shard)
}

func (d *DB2Dialect) SelectRowsQuery(schema, table, filter, pkJSONExpr, pkHashExpr, columnHashExpr, modColumn string, shard, shardCount int, sortByPK bool, pkCols []string) string {
	full := fmt.Sprintf("%s.%s", d.Quote(schema, false), d.Quote(table, false))
	return fmt.Sprintf(
		"SELECT %s AS pk_json, %s AS pk_hash, %s AS column_hash FROM %s WHERE %s%s%s",
		pkJSONExpr, pkHashExpr, columnHashExpr, full,
		d.ShardPredicate(modColumn, shard, shardCount),
		filterClause(filter),
		orderByPK(pkCols, sortByPK),
	)
}
