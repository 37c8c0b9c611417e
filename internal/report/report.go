// Package report implements the Report renderer (C13): an HTML job
// summary plus per-table sections, grounded on the teacher's terminal
// summary in cmd/fill.go (which printed a plain per-table tally after
// a run) but rendered as a static HTML document via html/template
// instead of stdout, since spec §6's "report" option names an output
// file rather than a console stream.
package report

import (
	"html/template"
	"io"
	"time"

	"pgcompare/internal/model"
)

// TableResult is one table's outcome, folded into the job summary.
type TableResult struct {
	Alias    string
	Status   model.RunStatus
	Counts   model.RunCounts
	Findings []model.Finding
	Err      string
}

// Job is the full run being reported.
type Job struct {
	Project   int64
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Tables    []TableResult
}

const tmplText = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Reconciliation report — project {{.Project}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f2f2f2; }
.status-compared { color: #2e7d32; }
.status-failed { color: #c62828; }
.status-skipped { color: #9e9e9e; }
</style>
</head>
<body>
<h1>Reconciliation report</h1>
<p>Project {{.Project}} &middot; run {{.RunID}} &middot; {{.StartedAt.Format "2006-01-02 15:04:05"}} &ndash; {{.EndedAt.Format "15:04:05"}}</p>

<h2>Job summary</h2>
<table>
<tr><th>Table</th><th>Status</th><th>Equal</th><th>Not equal</th><th>Missing source</th><th>Missing target</th></tr>
{{range .Tables}}
<tr>
<td>{{.Alias}}</td>
<td class="status-{{.Status}}">{{.Status}}</td>
<td>{{.Counts.Equal}}</td>
<td>{{.Counts.NotEqual}}</td>
<td>{{.Counts.MissingSource}}</td>
<td>{{.Counts.MissingTarget}}</td>
</tr>
{{end}}
</table>

{{range .Tables}}
{{if .Findings}}
<h3>{{.Alias}} &mdash; findings</h3>
<table>
<tr><th>Side</th><th>Pk</th><th>Status</th><th>Recheck outcome</th></tr>
{{range .Findings}}
<tr><td>{{.Side}}</td><td>{{.PK}}</td><td>{{.Status}}</td><td>{{.RecheckOutcome}}</td></tr>
{{end}}
</table>
{{end}}
{{if .Err}}<p class="status-failed">{{.Alias}}: {{.Err}}</p>{{end}}
{{end}}
</body>
</html>
`

var tmpl = template.Must(template.New("report").Parse(tmplText))

// Render writes the job summary as HTML to w.
func Render(w io.Writer, job Job) error {
	return tmpl.Execute(w, job)
}
