package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/normalizer"
)

func newTestExporter() *Exporter {
	e := NewExporter(logger.Nop())
	e.now = func() time.Time { return time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC) }
	return e
}

func demo() *normalizer.Analysis {
	return normalizer.New(normalizer.Options{Logger: logger.Nop()}).DemoAnalysis("content strategy")
}

func TestWrite_JSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Write(&buf, demo(), "JSON"))

	var got struct {
		ExportedAt    string `json:"exported_at"`
		FormatVersion int    `json:"format_version"`
		Analysis      struct {
			Keyword    string `json:"keyword"`
			Provenance string `json:"provenance"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2025-04-02T10:00:00Z", got.ExportedAt)
	assert.Equal(t, 1, got.FormatVersion)
	assert.Equal(t, "content strategy", got.Analysis.Keyword)
	assert.Equal(t, "demo", got.Analysis.Provenance)
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Write(&buf, demo(), FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"content strategy", "primary", "17500", "0.65", "Medium", "2.45", "65", "85", "up", "+12%", "2100000"}, rows[1])
	assert.Equal(t, "related", rows[2][1])
	assert.Equal(t, "SEO content strategy", rows[3][0])
}

func TestWrite_CSVAbsentValuesAreEmpty(t *testing.T) {
	a := &normalizer.Analysis{
		Keyword:  "bare",
		Keywords: normalizer.KeywordResult{Primary: &normalizer.KeywordMetric{Keyword: "bare"}},
	}
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Write(&buf, a, FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"bare", "primary", "", "", "", "", "", "", "", "", ""}, rows[1])
}

func TestWrite_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Write(&buf, demo(), FormatMarkdown))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# SEO analysis: content strategy\n"))
	assert.Contains(t, out, "**Demo data.**")
	assert.Contains(t, out, "| Search volume | 17500 |")
	assert.Contains(t, out, "| content marketing strategy | 22100 | 3.2 |")
	assert.Contains(t, out, "- Create comprehensive guide covering all aspects of content strategy")
	assert.Contains(t, out, "- Ultimate Guide to Content Strategy")
	assert.Contains(t, out, "  - Introduction to Content Strategy")
	assert.Contains(t, out, "## Performance prediction")
}

func TestWrite_MarkdownWithoutSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Write(&buf, &normalizer.Analysis{Keyword: "empty"}, FormatMarkdown))
	out := buf.String()

	assert.Contains(t, out, "No keyword data.")
	assert.NotContains(t, out, "Demo data")
	assert.NotContains(t, out, "## Content blueprint")
	assert.NotContains(t, out, "## Performance prediction")
}

func TestWrite_HTMLEscapes(t *testing.T) {
	a := demo()
	a.Keyword = `<script>alert(1)</script>`
	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Write(&buf, a, FormatHTML))
	out := buf.String()

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "<h2>Content blueprint</h2>")
	assert.Contains(t, out, `<p style="margin-left: 20px">Introduction to Content Strategy</p>`)
}

func TestWrite_Unsupported(t *testing.T) {
	err := newTestExporter().Write(&bytes.Buffer{}, demo(), "pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	err = newTestExporter().Write(&bytes.Buffer{}, nil, FormatJSON)
	assert.Error(t, err)
}

func TestExportReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := newTestExporter().ExportReport(context.Background(), demo(), "md", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "content-strategy-20250402.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# SEO analysis: content strategy")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestExportReport_Rejects(t *testing.T) {
	dir := t.TempDir()
	_, err := newTestExporter().ExportReport(context.Background(), demo(), "docx", dir)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newTestExporter().ExportReport(ctx, demo(), "json", dir)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Content Strategy":   "content-strategy",
		"  seo / 2025 tips ": "seo-2025-tips",
		"café menü":          "café-menü",
		"???":                "analysis",
	}
	for in, want := range cases {
		assert.Equal(t, want, slug(in), in)
	}
}
