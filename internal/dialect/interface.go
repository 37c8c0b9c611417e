// Package dialect abstracts the per-engine SQL needed by discovery and
// extraction: metadata introspection queries, identifier quoting/case
// folding, and the shard predicate the extractor filters rows with
// (spec C1). It generalizes the teacher's pump-oriented dialect package
// (which only needed INSERT/TRUNCATE templates) to reconciliation's
// wider surface: column metadata with precision/scale, a shard
// predicate, and quoting that can preserve case per table/column.
package dialect

// ColumnInfo is the uniform projection every dialect's SelectColumns
// returns, regardless of the engine's native catalog shape (spec §4.1).
type ColumnInfo struct {
	Owner         string
	TableName     string
	ColumnName    string
	DataType      string
	DataLength    int
	DataPrecision int
	DataScale     int
	Nullable      bool
	PrimaryKey    bool
}

// TableInfo is the uniform projection for SelectTables.
type TableInfo struct {
	Owner     string
	TableName string
}

// CaseFold is the dialect's native identifier case convention.
type CaseFold int

const (
	Upper CaseFold = iota
	Lower
)

// Dialect is the per-engine adapter consumed by discovery (C12) and the
// extractor (C4); the column-map compiler (C3) calls into it only for
// its name and quoting, never for cast SQL — cast text is
// produced entirely in Go by internal/cast so the same byte-identical
// rules apply regardless of engine.
type Dialect interface {
	// Name is the short identifier internal/cast dispatches on
	// ("postgres", "mysql", "sqlserver", "oracle", "db2"). cmd maps the
	// configured driver to sql.Open's driver name separately.
	Name() string

	// Metadata introspection (spec §4.1): a fixed SELECT against the
	// engine's metadata catalog, returning query text plus positional
	// args to bind.
	SelectTables(schema string) (query string, args []any)
	SelectColumns(schema, table string) (query string, args []any)

	// Quote renders an identifier per the engine's quoting rules.
	// preserveCase=true forces quoting and prevents case folding;
	// otherwise the identifier is rendered in NativeCase().
	Quote(identifier string, preserveCase bool) string
	NativeCase() CaseFold

	// Placeholder returns the engine's bind-parameter syntax for the
	// given zero-based ordinal (?, $1, :1, @p1, ...).
	Placeholder(ordinal int) string

	// ShardPredicate returns a SQL boolean expression selecting shard s
	// of shardCount using modColumn as the shard key (spec §4.4).
	ShardPredicate(modColumn string, shard, shardCount int) string

	// SelectRowsQuery builds the extractor's streaming SELECT. pkJSONExpr,
	// pkHashExpr and columnHashExpr are the three compiled expressions
	// from the column-map compiler (C3): the JSON object literal for the
	// RowFingerprint's pk field, the MD5 hash over the pk projection, and
	// the MD5 hash over the non-pk column projection. schema/table/
	// filter/modColumn come from the TableMap; sortByPK requests an
	// ORDER BY when database-sort is enabled.
	SelectRowsQuery(schema, table, filter, pkJSONExpr, pkHashExpr, columnHashExpr, modColumn string, shard, shardCount int, sortByPK bool, pkCols []string) string
}
