package cast

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// scientificThreshold is the magnitude above which the normalized
// numeric cast switches to scientific notation under "notation" mode.
const scientificThreshold = 1e15

// Canonicalize renders a Go value scanned from a live row into the same
// text form the SQL expressions in sql.go produce for the bulk extract
// path, so the Rechecker (C8) can re-fingerprint in-process and compare
// byte for byte against the original staged hash (spec §8 invariant 1).
// A nil value always canonicalizes to the empty string. ts is only
// consulted for the Timestamp family; pass the zero value otherwise.
func Canonicalize(v any, family Family, mode Mode, numberCast string, ts TimeInfo) string {
	if v == nil {
		return ""
	}
	if mode == ModeRaw {
		return fmt.Sprintf("%v", v)
	}
	switch family {
	case Boolean:
		return canonicalBool(v)
	case Numeric:
		return canonicalNumber(v, numberCast)
	case Timestamp:
		return canonicalTimestamp(v, ts)
	case Binary:
		return canonicalBinary(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func canonicalBool(v any) string {
	switch b := v.(type) {
	case bool:
		if b {
			return "true"
		}
		return "false"
	case int64:
		if b != 0 {
			return "true"
		}
		return "false"
	default:
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s == "0" || strings.EqualFold(s, "false") || s == "" {
			return "false"
		}
		return "true"
	}
}

// canonicalNumber mirrors numericExpr/trimTrailingZerosExpr: trailing
// zeroes are trimmed via decimal's native canonical form, and above
// scientificThreshold the "notation" mode renders a lowercase
// mantissa-e-exponent string instead.
func canonicalNumber(v any, numberCast string) string {
	d, err := toDecimal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	trimmed := d.String()
	if numberCast != string(NotationScience) {
		return trimmed
	}
	if d.Abs().GreaterThanOrEqual(decimal.NewFromFloat(scientificThreshold)) {
		f, _ := d.Float64()
		return strings.ToLower(fmt.Sprintf("%e", f))
	}
	return trimmed
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case []byte:
		return decimal.NewFromString(string(n))
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Decimal{}, fmt.Errorf("cast: unsupported numeric type %T", v)
	}
}

// canonicalTimestamp renders date-only and time-only values through
// civil unchanged, and full timestamps as ISO 8601: a fractional-seconds
// part only when ts.Precision > 0 (trimmed of trailing zeros, mirroring
// timestampExpr's RTRIM), and a ±HH:MM zone offset only when ts.HasZone
// — driven by the column's declared type, never by the scanned value's
// time.Location, so the two cast paths agree regardless of what zone
// the driver happened to attach to the Go value (spec §8 invariant 1).
func canonicalTimestamp(v any, ts TimeInfo) string {
	switch t := v.(type) {
	case civil.Date:
		return t.String()
	case civil.Time:
		return t.String()
	case civil.DateTime:
		return t.String()
	case time.Time:
		body := t.Format("2006-01-02T15:04:05")
		body += fractionalSeconds(t, ts.Precision)
		if ts.HasZone {
			body += t.Format("-07:00")
		}
		return body
	case string:
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}

// fractionalSeconds renders up to 6 digits of t's sub-second component,
// trimmed of trailing zeros, with the leading dot included only when at
// least one significant digit survives. precision above 6 is capped,
// since none of this package's target engines exceed microsecond
// storage.
func fractionalSeconds(t time.Time, precision int) string {
	if precision <= 0 {
		return ""
	}
	if precision > 6 {
		precision = 6
	}
	micros := t.Nanosecond() / 1000
	digits := strings.TrimRight(fmt.Sprintf("%06d", micros)[:precision], "0")
	if digits == "" {
		return ""
	}
	return "." + digits
}

func canonicalBinary(v any) string {
	switch b := v.(type) {
	case []byte:
		return hex.EncodeToString(b)
	case string:
		return hex.EncodeToString([]byte(b))
	default:
		return fmt.Sprintf("%v", v)
	}
}
