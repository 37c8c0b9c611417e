package cast

import (
	"fmt"
	"strings"
)

// Mode selects between the raw passthrough and the normalized
// canonicalization rules (spec §4.2's cast modes).
type Mode string

const (
	ModeRaw        Mode = "raw"
	ModeNormalized Mode = "normalized"
)

// NumberNotation controls how the normalized numeric cast renders very
// large magnitudes (see DESIGN.md's Open Question decisions:
// |x| >= 1e15 switches to scientific notation under "notation").
type NumberNotation string

const (
	NotationStandard NumberNotation = "standard"
	NotationScience  NumberNotation = "notation"
)

// TimeInfo carries the declared-type facts a timestamp cast needs that
// Family alone doesn't capture: whether the column's type carries zone
// information, and how many fractional-second digits it was declared
// with (spec §4.2). It is the zero value (no zone, no fractional
// digits) for every other family, where it is simply ignored.
type TimeInfo struct {
	HasZone   bool
	Precision int
}

// SQLExpr compiles the dialect-specific SQL fragment that renders col's
// quoted reference as canonical text, for the given family/mode. The
// returned expression always yields either a SQL text value or NULL —
// NULL-handling into empty string happens one level up, in the
// concatenation built by internal/columnmap, which wraps each argument
// in COALESCE(..., '').
func SQLExpr(dialectName, colRef string, family Family, mode Mode, floatCast, numberCast string, ts TimeInfo) string {
	if mode == ModeRaw {
		return fmt.Sprintf("CAST(%s AS VARCHAR(4000))", colRef)
	}
	switch family {
	case Boolean:
		return booleanExpr(dialectName, colRef)
	case Numeric:
		return numericExpr(dialectName, colRef, floatCast, numberCast)
	case Timestamp:
		return timestampExpr(dialectName, colRef, ts)
	case Binary:
		return binaryExpr(dialectName, colRef)
	default: // String
		return stringExpr(dialectName, colRef)
	}
}

// sqlConcat joins SQL fragments with the engine's concatenation syntax
// (CONCAT() for mysql/sqlserver, the ANSI || operator otherwise),
// dropping any empty fragment rather than concatenating a no-op literal.
func sqlConcat(dialectName string, parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return "''"
	}
	switch dialectName {
	case "mysql", "sqlserver":
		return fmt.Sprintf("CONCAT(%s)", strings.Join(nonEmpty, ", "))
	default:
		return strings.Join(nonEmpty, " || ")
	}
}

func booleanExpr(dialectName, colRef string) string {
	switch dialectName {
	case "postgres":
		return fmt.Sprintf("(CASE WHEN %s THEN 'true' WHEN %s IS NULL THEN NULL ELSE 'false' END)", colRef, colRef)
	case "mysql":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL WHEN %s <> 0 THEN 'true' ELSE 'false' END)", colRef, colRef)
	default: // sqlserver, oracle, db2 store booleans as a small integer
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL WHEN %s <> 0 THEN 'true' ELSE 'false' END)", colRef, colRef)
	}
}

// numericExpr renders a number with trailing zeroes trimmed and, above
// the 1e15 magnitude threshold, with a normalized mantissa-e-exponent
// form under the "notation" cast, matching the Go-side rules in
// canonicalNumber so the bulk and recheck paths produce identical
// text (spec §8 invariant 1).
func numericExpr(dialectName, colRef, floatCast, numberCast string) string {
	trimmed := trimTrailingZerosExpr(dialectName, colRef)
	if numberCast == string(NotationScience) {
		return scientificNotationExpr(dialectName, colRef, trimmed)
	}
	_ = floatCast // float-cast currently shares the same trimming rule as number-cast
	return trimmed
}

func trimTrailingZerosExpr(dialectName, colRef string) string {
	switch dialectName {
	case "postgres":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE trim_scale(%s)::text END)", colRef, colRef)
	case "mysql":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE TRIM(TRAILING '.' FROM TRIM(TRAILING '0' FROM CAST(%s AS CHAR))) END)", colRef, colRef)
	case "sqlserver":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE CAST(CAST(%s AS FLOAT) AS VARCHAR(60)) END)", colRef, colRef)
	case "oracle":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE TO_CHAR(%s) END)", colRef, colRef)
	case "db2":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE VARCHAR_FORMAT(%s) END)", colRef, colRef)
	default:
		return fmt.Sprintf("CAST(%s AS VARCHAR(60))", colRef)
	}
}

// scientificNotationExpr renders postgres and oracle values in
// engine-native scientific notation once |x| >= 1e15; below that
// threshold, and for every other dialect, it falls back to the
// already-trimmed standard form, matching canonicalNumber.
func scientificNotationExpr(dialectName, colRef, fallback string) string {
	switch dialectName {
	case "postgres":
		return fmt.Sprintf(
			"(CASE WHEN %s IS NULL THEN NULL WHEN abs(%s) >= 1e15 THEN lower(%s::numeric::text) ELSE %s END)",
			colRef, colRef, colRef, fallback)
	case "oracle":
		return fmt.Sprintf(
			"(CASE WHEN %s IS NULL THEN NULL WHEN ABS(%s) >= 1e15 THEN LOWER(TO_CHAR(%s, '9.999999999999999EEEE')) ELSE %s END)",
			colRef, colRef, colRef, fallback)
	default:
		return fallback
	}
}

// timestampExpr renders ISO 8601 text: the date/time body always, a
// fractional-seconds part only when ts.Precision > 0 (trimmed of
// trailing zeros, so a declared precision is a ceiling, not a pad), and
// a ±HH:MM zone offset only when ts.HasZone (spec §4.2). precision is
// capped at 6 digits, the common microsecond ceiling across every
// engine this package targets.
func timestampExpr(dialectName, colRef string, ts TimeInfo) string {
	precision := ts.Precision
	if precision > 6 {
		precision = 6
	}
	if precision < 0 {
		precision = 0
	}
	switch dialectName {
	case "postgres":
		return postgresTimestampExpr(colRef, ts.HasZone, precision)
	case "mysql":
		return mysqlTimestampExpr(colRef, precision)
	case "sqlserver":
		return sqlserverTimestampExpr(colRef, ts.HasZone, precision)
	case "oracle":
		return oracleTimestampExpr(colRef, ts.HasZone, precision)
	case "db2":
		return db2TimestampExpr(colRef, precision)
	default:
		return fmt.Sprintf("CAST(%s AS VARCHAR(40))", colRef)
	}
}

func postgresTimestampExpr(colRef string, hasZone bool, precision int) string {
	body := fmt.Sprintf(`to_char(%s, 'YYYY-MM-DD"T"HH24:MI:SS')`, colRef)
	frac := ""
	if precision > 0 {
		digits := fmt.Sprintf(`substring(to_char(%s, 'US'), 1, %d)`, colRef, precision)
		trimmed := fmt.Sprintf(`rtrim(%s, '0')`, digits)
		frac = fmt.Sprintf(`(CASE WHEN %s = '' THEN '' ELSE '.' || %s END)`, trimmed, trimmed)
	}
	zone := ""
	if hasZone {
		zone = fmt.Sprintf(`to_char(%s, 'TZH:TZM')`, colRef)
	}
	return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", colRef, sqlConcat("postgres", body, frac, zone))
}

func mysqlTimestampExpr(colRef string, precision int) string {
	// MySQL has no zone-carrying timestamp type in this package's type
	// vocabulary (TIMESTAMP is always stored/retrieved in session time
	// zone, never with a stored offset), so no zone branch here.
	body := fmt.Sprintf(`DATE_FORMAT(%s, '%%Y-%%m-%%dT%%H:%%i:%%s')`, colRef)
	frac := ""
	if precision > 0 {
		digits := fmt.Sprintf(`LEFT(DATE_FORMAT(%s, '%%f'), %d)`, colRef, precision)
		trimmed := fmt.Sprintf(`TRIM(TRAILING '0' FROM %s)`, digits)
		frac = fmt.Sprintf(`(CASE WHEN %s = '' THEN '' ELSE CONCAT('.', %s) END)`, trimmed, trimmed)
	}
	return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", colRef, sqlConcat("mysql", body, frac))
}

// sqlserverTimestampExpr uses FORMAT() rather than the CONVERT(...,127)
// style mask, since FORMAT's custom picture syntax ('fffffff', 'zzz')
// lets the fractional digit count and the zone offset be requested
// independently instead of both coming bundled from one native style.
func sqlserverTimestampExpr(colRef string, hasZone bool, precision int) string {
	body := fmt.Sprintf(`FORMAT(%s, 'yyyy-MM-ddTHH:mm:ss')`, colRef)
	frac := ""
	if precision > 0 {
		digits := fmt.Sprintf(`LEFT(FORMAT(%s, 'fffffff'), %d)`, colRef, precision)
		frac = fmt.Sprintf(`(CASE WHEN %s = REPLICATE('0', LEN(%s)) THEN '' ELSE '.' || LEFT(%s, LEN(%s) - PATINDEX('%%[^0]%%', REVERSE(%s)) + 1) END)`,
			digits, digits, digits, digits, digits)
	}
	zone := ""
	if hasZone {
		zone = fmt.Sprintf(`FORMAT(%s, 'zzz')`, colRef)
	}
	return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", colRef, sqlConcat("sqlserver", body, frac, zone))
}

func oracleTimestampExpr(colRef string, hasZone bool, precision int) string {
	body := fmt.Sprintf(`TO_CHAR(%s, 'YYYY-MM-DD"T"HH24:MI:SS')`, colRef)
	frac := ""
	if precision > 0 {
		digits := fmt.Sprintf(`TO_CHAR(%s, 'FF%d')`, colRef, precision)
		trimmed := fmt.Sprintf(`RTRIM(%s, '0')`, digits)
		frac = fmt.Sprintf(`(CASE WHEN %s = '' THEN '' ELSE '.' || %s END)`, trimmed, trimmed)
	}
	zone := ""
	if hasZone {
		zone = fmt.Sprintf(`TO_CHAR(%s, 'TZH:TZM')`, colRef)
	}
	return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", colRef, sqlConcat("oracle", body, frac, zone))
}

func db2TimestampExpr(colRef string, precision int) string {
	// db2's catalog carries no zone-aware timestamp type in this
	// package's classifier (see classify.go), so there is no zone
	// branch to wire here.
	body := fmt.Sprintf(`VARCHAR_FORMAT(%s, 'YYYY-MM-DD"T"HH24:MI:SS')`, colRef)
	frac := ""
	if precision > 0 {
		digits := fmt.Sprintf(`VARCHAR_FORMAT(%s, 'FF%d')`, colRef, precision)
		trimmed := fmt.Sprintf(`RTRIM(%s, '0')`, digits)
		frac = fmt.Sprintf(`(CASE WHEN %s = '' THEN '' ELSE '.' || %s END)`, trimmed, trimmed)
	}
	return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", colRef, sqlConcat("db2", body, frac))
}

func binaryExpr(dialectName, colRef string) string {
	switch dialectName {
	case "postgres":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE lower(encode(%s, 'hex')) END)", colRef, colRef)
	case "mysql":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE LOWER(HEX(%s)) END)", colRef, colRef)
	case "sqlserver":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE LOWER(CONVERT(VARCHAR(MAX), %s, 2)) END)", colRef, colRef)
	case "oracle":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE LOWER(RAWTOHEX(%s)) END)", colRef, colRef)
	case "db2":
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE LOWER(HEX(%s)) END)", colRef, colRef)
	default:
		return fmt.Sprintf("CAST(%s AS VARCHAR(4000))", colRef)
	}
}

func stringExpr(dialectName, colRef string) string {
	// String passthrough never trims — NULL collapses to empty string
	// one level up, in the COALESCE-wrapped concatenation the
	// column-map compiler builds.
	switch dialectName {
	case "sqlserver":
		return fmt.Sprintf("CAST(%s AS NVARCHAR(MAX))", colRef)
	case "oracle":
		return fmt.Sprintf("TO_CHAR(%s)", colRef)
	default:
		return fmt.Sprintf("CAST(%s AS VARCHAR(4000))", colRef)
	}
}
