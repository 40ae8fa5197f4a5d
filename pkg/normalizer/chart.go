package normalizer

import (
	"fmt"
	"math"
)

type TrendPoint struct {
	Month  string `json:"month"`
	Volume int64  `json:"volume"`
}

// TrendPoints returns the monthly series as chart points.
func (k *KeywordMetric) TrendPoints() []TrendPoint {
	if k == nil {
		return []TrendPoint{}
	}
	points := make([]TrendPoint, 0, len(k.Trend.MonthlySeries))
	for _, m := range k.Trend.MonthlySeries {
		points = append(points, TrendPoint{Month: m.Month, Volume: m.Volume})
	}
	return points
}

type RadarPoint struct {
	Factor string `json:"factor"`
	Score  int    `json:"score"`
}

// RadarPoints scales ranking factor scores to 0..100. Factors without a
// score are left out.
func (p *PerformancePrediction) RadarPoints() []RadarPoint {
	points := []RadarPoint{}
	if p == nil {
		return points
	}
	for _, f := range p.RankingFactors {
		if !f.Score.Present {
			continue
		}
		points = append(points, RadarPoint{Factor: f.Name, Score: int(math.Round(f.Score.Value * 100))})
	}
	return points
}

type ContentRecommendation struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	Rationale string `json:"rationale"`
}

const rationaleRunes = 100

// ContentRecommendations returns up to n recommendations with a short
// rationale excerpt.
func (b *ContentBlueprint) ContentRecommendations(n int) []ContentRecommendation {
	out := []ContentRecommendation{}
	if b == nil || n <= 0 {
		return out
	}
	for i, rec := range b.Recommendations {
		if i >= n {
			break
		}
		out = append(out, ContentRecommendation{
			Title:     fmt.Sprintf("Content Recommendation %d", i+1),
			Text:      rec,
			Rationale: excerpt(rec, rationaleRunes),
		})
	}
	return out
}

// excerpt cuts s to max runes, marking the cut with "...".
func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
