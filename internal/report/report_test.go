package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pgcompare/internal/model"
)

func TestRenderIncludesTableAndFindings(t *testing.T) {
	job := Job{
		Project:   1,
		RunID:     "11111111-1111-1111-1111-111111111111",
		StartedAt: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		EndedAt:   time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC),
		Tables: []TableResult{
			{
				Alias:  "customers",
				Status: model.RunCompared,
				Counts: model.RunCounts{Equal: 100, NotEqual: 2},
				Findings: []model.Finding{
					{Side: model.SourceSide, PK: `{"id": "7"}`, Status: model.StatusNotEqual},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := Render(&buf, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "customers") {
		t.Fatalf("expected report to mention table alias")
	}
	if !strings.Contains(out, `{&#34;id&#34;: &#34;7&#34;}`) {
		t.Fatalf("expected report to include the finding's pk")
	}
}
