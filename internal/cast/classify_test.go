package cast

import "testing"

func TestClassifyFamilies(t *testing.T) {
	cases := map[string]Family{
		"boolean":                  Boolean,
		"BOOL":                     Boolean,
		"varchar(255)":             String,
		"NVARCHAR2(100)":           String,
		"numeric(10,2)":            Numeric,
		"NUMBER(38,0)":             Numeric,
		"double precision":         Numeric,
		"timestamp(3) with time zone": Timestamp,
		"DATE":                     Timestamp,
		"bytea":                    Binary,
		"VARBINARY(16)":            Binary,
		"uniqueidentifier":         Unsupported,
		"sql_variant":              Unsupported,
		"something_unknown":        Unsupported,
	}
	for in, want := range cases {
		if got := Classify(in); got != want {
			t.Errorf("Classify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDataClassCollapse(t *testing.T) {
	if DataClass(Boolean) != "boolean" {
		t.Fatalf("boolean family should collapse to boolean class")
	}
	if DataClass(Numeric) != "numeric" {
		t.Fatalf("numeric family should collapse to numeric class")
	}
	for _, f := range []Family{String, Timestamp, Binary, Unsupported} {
		if DataClass(f) != "char" {
			t.Fatalf("family %q should collapse to char class, got %q", f, DataClass(f))
		}
	}
}

func TestHasTimeZone(t *testing.T) {
	zoned := map[string]bool{
		"timestamptz":                    true,
		"timestamp(3) with time zone":    true,
		"datetimeoffset":                 true,
		"DATETIMEOFFSET(7)":              true,
		"timestamp":                      false,
		"timestamp(3)":                   false,
		"DATE":                           false,
		"datetime2":                      false,
	}
	for in, want := range zoned {
		if got := HasTimeZone(in); got != want {
			t.Errorf("HasTimeZone(%q) = %v, want %v", in, got, want)
		}
	}
}
