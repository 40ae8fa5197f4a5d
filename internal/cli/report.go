package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"seostrategy-go/pkg/normalizer"
)

const topRecommendations = 3

// reportWriter renders view-models for a terminal. Styling is dropped
// automatically when w is not a TTY.
type reportWriter struct {
	w       io.Writer
	heading lipgloss.Style
	muted   lipgloss.Style
	warn    lipgloss.Style
}

func newReportWriter(w io.Writer) *reportWriter {
	r := lipgloss.NewRenderer(w)
	return &reportWriter{
		w:       w,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:   r.NewStyle().Faint(true),
		warn:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
	}
}

func (r *reportWriter) section(title string) {
	fmt.Fprintf(r.w, "\n%s\n", r.heading.Render(title))
}

func (r *reportWriter) line(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *reportWriter) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(r.w, t.String())
}

func (r *reportWriter) analysis(a *normalizer.Analysis) error {
	if a.IsDemo() {
		r.line("%s", r.warn.Render("DEMO DATA: the backend could not be reached; figures below are illustrative."))
	}
	r.line("Keyword: %s", a.Keyword)
	r.line("%s", r.muted.Render(fmt.Sprintf("shape=%s provenance=%s", a.Shape, a.Provenance)))

	r.keywords(a.Keywords)
	r.blueprint(&a.Blueprint)
	r.optimization(a.Optimization)
	r.prediction(&a.Prediction)

	if len(a.Warnings) > 0 {
		r.section("Data warnings")
		for _, w := range a.Warnings {
			r.line("  - %s", w)
		}
	}
	return nil
}

func (r *reportWriter) keywords(k normalizer.KeywordResult) {
	r.section("Keyword metrics")
	if k.Primary == nil {
		r.line("  No keyword data.")
		return
	}
	rows := [][]string{metricRow(*k.Primary)}
	for _, rel := range k.Related {
		rows = append(rows, metricRow(rel))
	}
	r.table([]string{"Keyword", "Volume", "Competition", "CPC", "Difficulty", "Opportunity"}, rows)

	p := k.Primary
	trend := string(p.Trend.Direction)
	if trend == "" {
		trend = "N/A"
	}
	if p.Trend.YoYChange != "" {
		trend += " (" + p.Trend.YoYChange + " YoY)"
	}
	r.line("Trend: %s", trend)
	if points := p.TrendPoints(); len(points) > 0 {
		parts := make([]string, 0, len(points))
		for _, pt := range points {
			parts = append(parts, fmt.Sprintf("%s=%d", pt.Month, pt.Volume))
		}
		r.line("Monthly volume: %s", strings.Join(parts, ", "))
	} else {
		r.line("Monthly volume: N/A")
	}
	if len(p.SERPFlags) > 0 {
		flags := make([]string, 0, len(p.SERPFlags))
		for _, f := range p.SERPFlags {
			flags = append(flags, normalizer.FeatureDisplayName(string(f)))
		}
		r.line("SERP features: %s", strings.Join(flags, ", "))
	}
}

func metricRow(m normalizer.KeywordMetric) []string {
	competition := m.Competition.String()
	if m.CompetitionLevel != normalizer.LevelUnknown {
		competition += " (" + string(m.CompetitionLevel) + ")"
	}
	cpc := "N/A"
	if m.CPC.Present {
		cpc = fmt.Sprintf("$%.2f", m.CPC.Value)
	}
	return []string{m.Keyword, m.SearchVolume.String(), competition, cpc, m.Difficulty.String(), m.Opportunity.String()}
}

func (r *reportWriter) blueprint(b *normalizer.ContentBlueprint) {
	r.section("Content blueprint")
	if !b.Available {
		r.line("  No blueprint in this response.")
		return
	}
	if b.BlueprintID != "" {
		r.line("ID: %s  Status: %s", b.BlueprintID, orNA(b.Status))
	}
	if b.GenerationTime.Present {
		r.line("Generated in: %.1fs", b.GenerationTime.Value)
	}
	r.line("Target keyword: %s", b.TargetKeyword)

	if recs := b.ContentRecommendations(topRecommendations); len(recs) > 0 {
		for _, rec := range recs {
			r.line("  %s: %s", rec.Title, rec.Rationale)
		}
	}
	if b.Outline.Title != "" || len(b.Outline.Subsections) > 0 {
		r.line("Outline:")
		r.outline(b.Outline, 1)
	}

	tc := b.TopicClusters
	if len(tc.Primary) > 0 {
		r.line("Primary cluster: %s", strings.Join(tc.Primary, ", "))
	}
	if len(tc.Related) > 0 {
		r.line("Related keywords: %s", strings.Join(tc.Related, ", "))
	}
	names := make([]string, 0, len(tc.Secondary))
	for name := range tc.Secondary {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if len(tc.Secondary[name]) > 0 {
			r.line("  %s: %s", name, strings.Join(tc.Secondary[name], ", "))
		}
	}

	ci := b.CompetitorInsights
	if len(ci.CommonTopics) > 0 {
		r.line("Competitor topics: %s", strings.Join(ci.CommonTopics, ", "))
	}
	if ci.ContentLength.Average.Present {
		r.line("Content length: avg %.0f words (min %s, max %s, n=%s)",
			ci.ContentLength.Average.Value, ci.ContentLength.Min, ci.ContentLength.Max, ci.ContentLength.Count)
	}
	if ci.SentimentTrend != "" {
		r.line("Sentiment: %s", ci.SentimentTrend)
	}
	dq := b.DataQuality
	if dq.CompetitorsAnalyzed.Present {
		r.line("Data quality: %s/%s competitors analyzed, success rate %s%%",
			dq.SuccessfulCompetitors, dq.CompetitorsAnalyzed, dq.SuccessRate)
	}
}

func (r *reportWriter) outline(n normalizer.HeadingNode, depth int) {
	if n.Title != "" {
		r.line("%s- %s", strings.Repeat("  ", depth), n.Title)
		depth++
	}
	for _, child := range n.Subsections {
		r.outline(child, depth)
	}
}

func (r *reportWriter) optimization(o normalizer.OptimizationPlan) {
	r.section("SERP optimization")
	if !o.Available {
		r.line("  No optimization plan in this response.")
		return
	}
	if len(o.Items) > 0 {
		rows := make([][]string, 0, len(o.Items))
		for _, item := range o.Items {
			rows = append(rows, []string{item.DisplayName, orNA(string(item.Presence)), orNA(string(item.Opportunity)), item.StatusText})
		}
		r.table([]string{"Feature", "Presence", "Opportunity", "Status"}, rows)
		for _, item := range o.Items {
			for _, action := range item.ActionItems {
				r.line("  [%s] %s", item.DisplayName, action)
			}
		}
	}
	if len(o.PeopleAlsoAsk) > 0 {
		r.line("People also ask:")
		for _, q := range o.PeopleAlsoAsk {
			r.line("  ? %s", q.Question)
		}
	}
}

func (r *reportWriter) prediction(p *normalizer.PerformancePrediction) {
	r.section("Performance prediction")
	if !p.Available {
		r.line("  No prediction in this response.")
		return
	}
	ctr := "N/A"
	if p.EstimatedCTR.Present {
		ctr = fmt.Sprintf("%.1f%%", p.EstimatedCTR.Value*100)
	}
	r.line("Estimated position: %s  CTR: %s  Monthly traffic: %s  Confidence: %s%%",
		p.EstimatedPosition, ctr, p.EstimatedTraffic, p.Confidence)

	if points := p.RadarPoints(); len(points) > 0 {
		rows := make([][]string, 0, len(points))
		for _, pt := range points {
			rows = append(rows, []string{pt.Factor, fmt.Sprintf("%d", pt.Score)})
		}
		r.table([]string{"Ranking factor", "Score"}, rows)
	}
	for _, s := range p.Suggestions {
		r.line("  - [%s] %s (effort %s, impact %s)", s.Area, s.Text, orNA(string(s.Effort)), orNA(string(s.Impact)))
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
