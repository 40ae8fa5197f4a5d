package normalizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seostrategy-go/pkg/logger"
)

func TestDemoAnalysis(t *testing.T) {
	a := New(Options{Logger: logger.Nop()}).DemoAnalysis(`say "hi"`)

	assert.True(t, a.IsDemo())
	assert.Equal(t, ProvenanceDemo, a.Keywords.Provenance)
	assert.Equal(t, ProvenanceDemo, a.Blueprint.Provenance)
	assert.Equal(t, ShapeLegacy, a.Shape)
	assert.Equal(t, `say "hi"`, a.Keyword)
	assert.Equal(t, `say "hi"`, a.Blueprint.TargetKeyword)
	assert.Empty(t, a.Warnings)

	require.NotNil(t, a.Keywords.Primary)
	assert.Len(t, a.Keywords.Related, 2)
	assert.Len(t, a.Keywords.Primary.TrendPoints(), 6)
	assert.Len(t, a.Optimization.SERPFeatures, 5)
	assert.Len(t, a.Prediction.RadarPoints(), 5)
	assert.Len(t, a.ExportFormats, 6)
}

func TestDemoAnalysis_DefaultKeyword(t *testing.T) {
	a := DemoAnalysis("")
	assert.Equal(t, DefaultDemoKeyword, a.Keyword)
}

func TestContentRecommendations(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcdé"
	}
	bp := &ContentBlueprint{Recommendations: []string{"short", long, "third", "fourth"}}

	got := bp.ContentRecommendations(3)
	require.Len(t, got, 3)
	assert.Equal(t, "Content Recommendation 1", got[0].Title)
	assert.Equal(t, "short", got[0].Rationale)
	assert.Equal(t, 103, len([]rune(got[1].Rationale)))
	assert.Equal(t, long, got[1].Text)

	assert.Empty(t, bp.ContentRecommendations(0))
	var nilBP *ContentBlueprint
	assert.Empty(t, nilBP.ContentRecommendations(3))
}

func TestTrendPoints(t *testing.T) {
	k := &KeywordMetric{Trend: Trend{MonthlySeries: []MonthlyVolume{{Month: "2025-01", Volume: 3}}}}
	want := []TrendPoint{{Month: "2025-01", Volume: 3}}
	if diff := cmp.Diff(want, k.TrendPoints()); diff != "" {
		t.Errorf("trend points mismatch (-want +got):\n%s", diff)
	}
}
