// Package cast implements the type classifier and cast compiler (spec
// C2): classifying a column's declared type into one of the canonical
// families, and producing both the dialect-specific SQL expression that
// renders a value as canonical text (for the bulk extractor path) and
// the equivalent Go-side canonicalization (for the Rechecker's
// in-process re-fingerprinting, spec C8) — the two must agree byte for
// byte (spec §8 invariant 1).
package cast

import (
	"strings"

	"pgcompare/internal/model"
)

// Family is the full type classification before collapsing into
// model.DataClass (spec §4.2).
type Family string

const (
	Boolean     Family = "boolean"
	String      Family = "string"
	Numeric     Family = "numeric"
	Timestamp   Family = "timestamp"
	Binary      Family = "binary"
	Unsupported Family = "unsupported"
)

var booleanTypes = set("bool", "boolean")

var stringTypes = set(
	"bpchar", "char", "character", "clob", "enum", "json", "jsonb",
	"nchar", "nclob", "ntext", "nvarchar", "nvarchar2", "text", "varchar", "varchar2", "xml",
)

var numericTypes = set(
	"bigint", "bigserial", "binary_double", "binary_float", "dec", "decimal",
	"double", "double precision", "fixed", "float", "float4", "float8",
	"int", "integer", "int2", "int4", "int8", "money", "number", "numeric",
	"real", "serial", "smallint", "smallmoney", "smallserial", "tinyint",
)

var timestampTypes = set(
	"date", "datetime", "datetimeoffset", "datetime2", "smalldatetime",
	"time", "timestamp", "timestamptz", "year",
)

var binaryTypes = set("bytea", "binary", "blob", "raw", "varbinary")

var unsupportedTypes = set(
	"bfile", "bit", "cursor", "hierarchyid", "image", "rowid", "rowversion",
	"set", "sql_variant", "uniqueidentifier", "long", "long raw",
)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// normalize lowercases and strips a trailing parenthesized length/scale
// and "with time zone" qualifier, so "timestamp(3) with time zone" and
// "TIMESTAMP" both match the TIMESTAMP family, and "NUMBER(10,2)"
// matches NUMERIC.
func normalize(sqlType string) string {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	t = strings.TrimSuffix(t, " with time zone")
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// Classify returns the full Family for a declared SQL type name.
func Classify(sqlType string) Family {
	t := normalize(sqlType)
	if _, ok := booleanTypes[t]; ok {
		return Boolean
	}
	if _, ok := stringTypes[t]; ok {
		return String
	}
	if _, ok := numericTypes[t]; ok {
		return Numeric
	}
	if _, ok := timestampTypes[t]; ok {
		return Timestamp
	}
	if _, ok := binaryTypes[t]; ok {
		return Binary
	}
	if _, ok := unsupportedTypes[t]; ok {
		return Unsupported
	}
	return Unsupported
}

// HasTimeZone reports whether a declared SQL type carries zone
// information (spec §4.2: the canonical timestamp form only gets a
// ±HH:MM offset for these types). It looks at the raw declared type,
// before normalize's "with time zone" suffix is stripped away.
func HasTimeZone(sqlType string) bool {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if strings.HasSuffix(t, "with time zone") {
		return true
	}
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "timestamptz", "datetimeoffset":
		return true
	}
	return false
}

// DataClass collapses a Family into the three-way model.DataClass used
// by ColumnMap (timestamp/string/binary all fold into "char").
func DataClass(f Family) model.DataClass {
	switch f {
	case Boolean:
		return model.ClassBoolean
	case Numeric:
		return model.ClassNumeric
	default:
		return model.ClassChar
	}
}
