package dialect

import (
	"fmt"
)

// PostgresDialect is also the repository's own dialect (C11 always
// speaks Postgres), so Quote/Placeholder here double as the repository
// layer's identifier quoting.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) getSchema(schema string) string {
	if schema == "" {
		return "public"
	}
	return schema
}

func (d *PostgresDialect) SelectTables(schema string) (string, []any) {
	return `SELECT table_schema, table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE'`,
		[]any{d.getSchema(schema)}
}

func (d *PostgresDialect) SelectColumns(schema, table string) (string, []any) {
	return `SELECT
    c.table_schema,
    c.table_name,
    c.column_name,
    c.udt_name,
    COALESCE(c.character_maximum_length, 0),
    COALESCE(c.numeric_precision, 0),
    COALESCE(c.numeric_scale, c.datetime_precision, 0),
    c.is_nullable = 'YES',
    EXISTS (
        SELECT 1 FROM information_schema.table_constraints tc
        JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
            AND tc.table_schema = kcu.table_schema
        WHERE tc.constraint_type = 'PRIMARY KEY'
          AND kcu.table_schema = c.table_schema AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name
    ) AS is_pk
FROM information_schema.columns c
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`, []any{d.getSchema(schema), table}
}

func (d *PostgresDialect) Quote(identifier string, preserveCase bool) string {
	return quoteWith(identifier, preserveCase, d.NativeCase(), `"`, `"`)
}

func (d *PostgresDialect) NativeCase() CaseFold { return Lower }

func (d *PostgresDialect) Placeholder(ordinal int) string {
	return fmt.Sprintf("$%d", ordinal+1)
}

func (d *PostgresDialect) ShardPredicate(modColumn string, shard, shardCount int) string {
	if shardCount <= 1 {
		return "1=1"
	}
	return fmt.Sprintf("mod(abs(hashtext(%s::text)), %d) = %d", modColumn, shardCount, shard)
}

func (d *PostgresDialect) SelectRowsQuery(schema, table, filter, pkJSONExpr, pkHashExpr, columnHashExpr, modColumn string, shard, shardCount int, sortByPK bool, pkCols []string) string {
	full := fmt.Sprintf("%s.%s", d.Quote(schema, false), d.Quote(table, false))
	return fmt.Sprintf(
		"SELECT %s AS pk_json, %s AS pk_hash, %s AS column_hash FROM %s WHERE %s%s%s",
		pkJSONExpr, pkHashExpr, columnHashExpr, full,
		d.ShardPredicate(modColumn, shard, shardCount),
		filterClause(filter),
		orderByPK(pkCols, sortByPK),
	)
}
