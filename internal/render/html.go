package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/rpggio/batchreport/internal/domain/report"
)

// HTML writes a standalone print-ready page with inline SVG charts.
type HTML struct{}

func (HTML) ContentType() string { return "text/html; charset=utf-8" }
func (HTML) Extension() string   { return "html" }

func (HTML) Render(w io.Writer, tree report.Tree) error {
	if err := htmlTemplate.Execute(w, tree); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	return nil
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"svg": func(data []byte) template.HTML { return template.HTML(data) },
	"timestamp": func(tree report.Tree) string {
		return tree.GeneratedAt.Format("2006-01-02 15:04:05")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; font-size: 10pt; margin: 1.5cm; }
section.break { page-break-before: always; break-before: page; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1em; }
th, td { border: 1px solid #BDBDBD; padding: 2px 6px; text-align: left; }
tr.shaded td { background: #F5F5F5; }
tr.emphasis td { color: #C62828; font-weight: bold; }
dl.fields { display: grid; grid-template-columns: max-content auto; gap: 2px 12px; }
dl.fields dt { font-weight: bold; }
p.placeholder { color: #757575; font-style: italic; }
p.page { color: #757575; font-size: 8pt; }
</style>
</head>
<body>
<header><h1>{{.Title}}</h1><p>Generated {{timestamp .}}</p></header>
{{range .Sections}}<section id="{{.ID}}"{{if .PageBreakBefore}} class="break"{{end}}>
<h2>{{.Title}}</h2>
{{range .Blocks}}{{if eq .Kind "paragraph"}}<p>{{.Text}}</p>
{{else if eq .Kind "placeholder"}}<p class="placeholder">{{.Text}}</p>
{{else if eq .Kind "fields"}}<dl class="fields">{{range .Fields}}<dt>{{.Label}}</dt><dd>{{.Value}}</dd>{{end}}</dl>
{{else if eq .Kind "table"}}{{with .Table}}{{if gt .PageCount 1}}<p class="page">Page {{.Page}} of {{.PageCount}}</p>{{end}}
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}
<tr{{if or .Shaded .Emphasis}} class="{{if .Shaded}}shaded{{end}}{{if and .Shaded .Emphasis}} {{end}}{{if .Emphasis}}emphasis{{end}}"{{end}}>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>{{end}}
</tbody>
</table>{{end}}
{{else if eq .Kind "image"}}{{with .Image}}<figure>{{svg .Data}}<figcaption>{{.Caption}}</figcaption></figure>{{end}}
{{end}}{{end}}</section>
{{end}}</body>
</html>
`))
