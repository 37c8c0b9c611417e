package cast

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

func TestCanonicalizeNil(t *testing.T) {
	if got := Canonicalize(nil, Numeric, ModeNormalized, "standard", TimeInfo{}); got != "" {
		t.Fatalf("nil should canonicalize to empty string, got %q", got)
	}
}

func TestCanonicalBoolStable(t *testing.T) {
	if got := Canonicalize(true, Boolean, ModeNormalized, "standard", TimeInfo{}); got != "true" {
		t.Fatalf("true canonicalized to %q", got)
	}
	if got := Canonicalize(int64(0), Boolean, ModeNormalized, "standard", TimeInfo{}); got != "false" {
		t.Fatalf("0 canonicalized to %q", got)
	}
}

// TestCanonicalNumberTrimsTrailingZeros exercises a seeded batch of
// fake decimal values (gofakeit) to ensure every result round-trips
// through decimal without trailing zeroes or an exponent below the
// notation threshold.
func TestCanonicalNumberTrimsTrailingZeros(t *testing.T) {
	gofakeit.Seed(42)
	for i := 0; i < 20; i++ {
		f := gofakeit.Price(0, 999999)
		got := Canonicalize(f, Numeric, ModeNormalized, "standard", TimeInfo{})
		d, err := decimal.NewFromString(got)
		if err != nil {
			t.Fatalf("canonical output %q did not parse back as decimal: %v", got, err)
		}
		if d.String() != got {
			t.Errorf("canonical form %q is not decimal-stable (decimal re-renders as %q)", got, d.String())
		}
	}
}

func TestCanonicalNumberNotationThreshold(t *testing.T) {
	below := Canonicalize(float64(999999999999999), Numeric, ModeNormalized, "notation", TimeInfo{})
	if below == "" {
		t.Fatalf("expected non-empty canonicalization below threshold")
	}
	above := Canonicalize(float64(2e16), Numeric, ModeNormalized, "notation", TimeInfo{})
	if above == below {
		t.Fatalf("expected notation mode to differ once magnitude crosses 1e15")
	}
}

func TestCanonicalTimestampDateOnly(t *testing.T) {
	d := civil.Date{Year: 2024, Month: time.March, Day: 7}
	if got := Canonicalize(d, Timestamp, ModeNormalized, "standard", TimeInfo{}); got != "2024-03-07" {
		t.Fatalf("civil.Date canonicalized to %q", got)
	}
}

// TestCanonicalTimestampNoZoneNoFraction covers a plain timestamp
// column (no declared zone, precision 0): no fractional part, no
// offset, regardless of the Location the driver happened to attach to
// the scanned time.Time.
func TestCanonicalTimestampNoZoneNoFraction(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 13, 5, 9, 123000000, time.UTC)
	got := Canonicalize(ts, Timestamp, ModeNormalized, "standard", TimeInfo{HasZone: false, Precision: 0})
	want := "2024-03-07T13:05:09"
	if got != want {
		t.Fatalf("no-zone/no-precision timestamp canonicalized to %q, want %q", got, want)
	}
}

// TestCanonicalTimestampWithPrecision covers a declared fractional
// precision, trimmed of trailing zeros within that many digits.
func TestCanonicalTimestampWithPrecision(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 13, 5, 9, 120000000, time.UTC)
	got := Canonicalize(ts, Timestamp, ModeNormalized, "standard", TimeInfo{Precision: 6})
	want := "2024-03-07T13:05:09.12"
	if got != want {
		t.Fatalf("precision-6 timestamp canonicalized to %q, want %q", got, want)
	}
}

// TestCanonicalTimestampWithZone covers spec §8 S5: a timestamptz value
// must gain an explicit ±HH:MM offset.
func TestCanonicalTimestampWithZone(t *testing.T) {
	ts := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	got := Canonicalize(ts, Timestamp, ModeNormalized, "standard", TimeInfo{HasZone: true})
	want := "2024-01-02T03:04:05+00:00"
	if got != want {
		t.Fatalf("zoned timestamp canonicalized to %q, want %q", got, want)
	}
}

func TestCanonicalBinaryHex(t *testing.T) {
	got := Canonicalize([]byte{0xDE, 0xAD, 0xBE, 0xEF}, Binary, ModeNormalized, "standard", TimeInfo{})
	if got != "deadbeef" {
		t.Fatalf("binary canonicalized to %q, want deadbeef", got)
	}
}

func TestSQLExprRawPassthrough(t *testing.T) {
	got := SQLExpr("postgres", `"col"`, String, ModeRaw, "standard", "standard", TimeInfo{})
	want := `CAST("col" AS VARCHAR(4000))`
	if got != want {
		t.Fatalf("raw SQLExpr = %q, want %q", got, want)
	}
}

func TestSQLExprTimestampZoneEmitsOffsetExpr(t *testing.T) {
	got := SQLExpr("postgres", `"ts"`, Timestamp, ModeNormalized, "standard", "standard", TimeInfo{HasZone: true})
	if !contains(got, "TZH:TZM") {
		t.Fatalf("expected a TZH:TZM offset fragment for a zoned column, got %q", got)
	}
}

func TestSQLExprTimestampNoZoneOmitsOffsetExpr(t *testing.T) {
	got := SQLExpr("postgres", `"ts"`, Timestamp, ModeNormalized, "standard", "standard", TimeInfo{HasZone: false})
	if contains(got, "TZH:TZM") {
		t.Fatalf("did not expect an offset fragment for an unzoned column, got %q", got)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
