package export

import (
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"
	"time"

	"seostrategy-go/pkg/normalizer"
)

type metricRow struct {
	Label string
	Value string
}

type outlineLine struct {
	Depth int
	Title string
}

// report is the flattened view both document templates render.
type report struct {
	Keyword         string
	GeneratedAt     string
	Demo            bool
	Warnings        []string
	Metrics         []metricRow
	Related         []normalizer.KeywordMetric
	HasBlueprint    bool
	Recommendations []string
	Outline         []outlineLine
	Optimization    []normalizer.OptimizationItem
	PeopleAlsoAsk   []normalizer.PAAEntry
	HasPrediction   bool
	Prediction      []metricRow
	Suggestions     []normalizer.Suggestion
}

func newReport(a *normalizer.Analysis, now time.Time) report {
	r := report{
		Keyword:     a.Keyword,
		GeneratedAt: now.UTC().Format(time.RFC1123),
		Demo:        a.IsDemo(),
		Warnings:    a.Warnings,
		Related:     a.Keywords.Related,
	}
	if p := a.Keywords.Primary; p != nil {
		r.Metrics = []metricRow{
			{"Search volume", p.SearchVolume.String()},
			{"Competition", p.Competition.String()},
			{"Competition level", orNA(string(p.CompetitionLevel))},
			{"CPC", p.CPC.String()},
			{"Difficulty", p.Difficulty.String()},
			{"Trend", orNA(string(p.Trend.Direction))},
		}
	}
	if bp := a.Blueprint; bp.Available {
		r.HasBlueprint = true
		r.Recommendations = bp.Recommendations
		flattenOutline(bp.Outline, 0, &r.Outline)
	}
	if a.Optimization.Available {
		r.Optimization = a.Optimization.Items
		r.PeopleAlsoAsk = a.Optimization.PeopleAlsoAsk
	}
	if pp := a.Prediction; pp.Available {
		r.HasPrediction = true
		r.Prediction = []metricRow{
			{"Estimated position", pp.EstimatedPosition.String()},
			{"Estimated CTR", pp.EstimatedCTR.String()},
			{"Estimated traffic", pp.EstimatedTraffic.String()},
			{"Confidence", pp.Confidence.String()},
		}
		r.Suggestions = pp.Suggestions
	}
	return r
}

// flattenOutline walks the heading tree depth first. The root title is
// skipped when empty.
func flattenOutline(n normalizer.HeadingNode, depth int, out *[]outlineLine) {
	next := depth
	if n.Title != "" {
		*out = append(*out, outlineLine{Depth: depth, Title: n.Title})
		next = depth + 1
	}
	for _, sub := range n.Subsections {
		flattenOutline(sub, next, out)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

var funcs = template.FuncMap{
	"indent": func(depth int) string { return strings.Repeat("  ", depth) },
	"cell":   func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
}

var markdownTmpl = template.Must(template.New("md").Funcs(funcs).Parse(`# SEO analysis: {{.Keyword}}

_Generated {{.GeneratedAt}}_
{{if .Demo}}
> **Demo data.** The backend was unreachable; these figures are sample values.
{{end}}{{range .Warnings}}
> {{.}}
{{end}}
## Keyword metrics
{{if .Metrics}}
| Metric | Value |
| --- | --- |
{{range .Metrics}}| {{.Label}} | {{.Value}} |
{{end}}{{else}}
No keyword data.
{{end}}{{if .Related}}
### Related keywords

| Keyword | Volume | CPC |
| --- | --- | --- |
{{range .Related}}| {{cell .Keyword}} | {{.SearchVolume}} | {{.CPC}} |
{{end}}{{end}}{{if .HasBlueprint}}
## Content blueprint
{{range .Recommendations}}
- {{.}}{{end}}
{{if .Outline}}
### Outline
{{range .Outline}}
{{indent .Depth}}- {{.Title}}{{end}}
{{end}}{{end}}{{if .Optimization}}
## Optimization
{{range .Optimization}}
### {{.DisplayName}} ({{.Opportunity}} opportunity)

{{.StatusText}}
{{range .ActionItems}}
- {{.}}{{end}}
{{end}}{{end}}{{if .PeopleAlsoAsk}}
## People also ask
{{range .PeopleAlsoAsk}}
- {{.Question}}{{end}}
{{end}}{{if .HasPrediction}}
## Performance prediction

| Metric | Value |
| --- | --- |
{{range .Prediction}}| {{.Label}} | {{.Value}} |
{{end}}{{range .Suggestions}}
- **{{.Area}}** ({{.Effort}} effort, {{.Impact}} impact): {{.Text}}{{end}}
{{end}}`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Funcs(htmltemplate.FuncMap{
	"indent": func(depth int) int { return depth * 20 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SEO analysis: {{.Keyword}}</title>
</head>
<body>
<h1>SEO analysis: {{.Keyword}}</h1>
<p><em>Generated {{.GeneratedAt}}</em></p>
{{if .Demo}}<p class="demo"><strong>Demo data.</strong> The backend was unreachable; these figures are sample values.</p>
{{end}}{{range .Warnings}}<p class="warning">{{.}}</p>
{{end}}<h2>Keyword metrics</h2>
{{if .Metrics}}<table>
{{range .Metrics}}<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
{{else}}<p>No keyword data.</p>
{{end}}{{if .Related}}<h3>Related keywords</h3>
<table>
<tr><th>Keyword</th><th>Volume</th><th>CPC</th></tr>
{{range .Related}}<tr><td>{{.Keyword}}</td><td>{{.SearchVolume}}</td><td>{{.CPC}}</td></tr>
{{end}}</table>
{{end}}{{if .HasBlueprint}}<h2>Content blueprint</h2>
<ul>
{{range .Recommendations}}<li>{{.}}</li>
{{end}}</ul>
{{if .Outline}}<h3>Outline</h3>
{{range .Outline}}<p style="margin-left: {{indent .Depth}}px">{{.Title}}</p>
{{end}}{{end}}{{end}}{{if .Optimization}}<h2>Optimization</h2>
{{range .Optimization}}<h3>{{.DisplayName}} ({{.Opportunity}} opportunity)</h3>
<p>{{.StatusText}}</p>
<ul>
{{range .ActionItems}}<li>{{.}}</li>
{{end}}</ul>
{{end}}{{end}}{{if .PeopleAlsoAsk}}<h2>People also ask</h2>
<ul>
{{range .PeopleAlsoAsk}}<li>{{.Question}}</li>
{{end}}</ul>
{{end}}{{if .HasPrediction}}<h2>Performance prediction</h2>
<table>
{{range .Prediction}}<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
{{range .Suggestions}}<p><strong>{{.Area}}</strong> ({{.Effort}} effort, {{.Impact}} impact): {{.Text}}</p>
{{end}}{{end}}</body>
</html>
`))

func writeMarkdown(w io.Writer, r report) error {
	return markdownTmpl.Execute(w, r)
}

func writeHTML(w io.Writer, r report) error {
	return htmlTmpl.Execute(w, r)
}
