package normalizer

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// keywordFrom builds a KeywordMetric from one keyword_metrics element.
// Every field is optional; negatives become absent and indexes are clamped.
func keywordFrom(m map[string]interface{}) KeywordMetric {
	k := KeywordMetric{
		Keyword:      stringAt(m, "keyword", "term"),
		SearchVolume: nonNegativeInt(intAt(m, "search_volume", "avg_monthly_searches")),
		Competition:  clampFloat(nonNegativeFloat(floatAt(m, "competition", "competition_index")), 0, 1),
		CPC:          nonNegativeFloat(floatAt(m, "cpc")),
		Difficulty:   clampInt(nonNegativeInt(intAt(m, "difficulty", "keyword_difficulty")), 0, 100),
		Opportunity:  clampInt(nonNegativeInt(intAt(m, "opportunity", "opportunity_score")), 0, 100),
		TotalResults: nonNegativeInt(intAt(m, "total_results")),
	}

	k.CompetitionLevel = parseLevel(stringAt(m, "competition_level"))
	if k.CompetitionLevel == LevelUnknown {
		// Some payloads put the label in competition itself.
		k.CompetitionLevel = parseLevel(stringAt(m, "competition"))
	}
	if k.CompetitionLevel == LevelUnknown && k.Competition.Present {
		k.CompetitionLevel = competitionLevelFor(k.Competition.Value)
	}

	k.Trend = trendFrom(objectAt(m, "trend_data"))
	k.SERPFlags = serpFlagsFrom(m["serp_features"])
	return k
}

func trendFrom(m map[string]interface{}) Trend {
	t := Trend{
		MonthlySeries: monthlySeries(m),
		Direction:     parseDirection(stringAt(m, "trend_direction", "direction")),
	}
	switch v := m["year_over_year_change"].(type) {
	case string:
		t.YoYChange = strings.TrimSpace(v)
	default:
		if f, ok := toFloat(v); ok {
			t.YoYChange = fmt.Sprintf("%+.0f%%", f)
		}
	}
	return t
}

// monthlySeries accepts either {"2025-01": 100, ...} or an array of
// {year, month, searches|volume} objects. The result is never nil.
func monthlySeries(m map[string]interface{}) []MonthlyVolume {
	series := []MonthlyVolume{}
	if m == nil {
		return series
	}

	switch data := m["monthly_data"].(type) {
	case orderedObject:
		for _, month := range data.keys {
			if vol := nonNegativeInt(intAt(data.values, month)); vol.Present {
				series = append(series, MonthlyVolume{Month: month, Volume: vol.Value})
			}
		}
	default:
		for _, el := range objectsAt(m, "monthly_data") {
			vol := nonNegativeInt(intAt(el, "volume", "searches", "search_volume"))
			if !vol.Present {
				continue
			}
			month := stringAt(el, "month", "date")
			year := intAt(el, "year")
			if mi := intAt(el, "month"); year.Present && mi.Present {
				month = fmt.Sprintf("%04d-%02d", year.Value, mi.Value)
			}
			if month == "" {
				continue
			}
			series = append(series, MonthlyVolume{Month: month, Volume: vol.Value})
		}
	}

	orderByMonth(series)
	return series
}

// orderByMonth sorts series chronologically when every label is a YYYY-MM
// month. Any other labelling keeps the order the backend sent.
func orderByMonth(series []MonthlyVolume) {
	for _, mv := range series {
		if _, err := time.Parse("2006-01", mv.Month); err != nil {
			return
		}
	}
	// Zero-padded YYYY-MM compares chronologically as a string.
	sort.SliceStable(series, func(i, j int) bool { return series[i].Month < series[j].Month })
}

// serpFlagsFrom accepts {featured_snippet: true, ...} or a list of feature
// names and returns the set in canonical order.
func serpFlagsFrom(v interface{}) SERPFlags {
	present := make(map[SERPFlag]bool)
	switch s := v.(type) {
	case map[string]interface{}:
		for key, val := range s {
			on, _ := val.(bool)
			if flag, ok := serpFlagFor(NormalizeFeatureName(key)); ok && on {
				present[flag] = true
			}
		}
	case []interface{}:
		for _, el := range s {
			name, _ := el.(string)
			if flag, ok := serpFlagFor(NormalizeFeatureName(name)); ok {
				present[flag] = true
			}
		}
	}

	flags := SERPFlags{}
	for _, f := range serpFlagOrder {
		if present[f] {
			flags = append(flags, f)
		}
	}
	return flags
}

// keywordResultFrom picks the primary keyword and related keywords out of
// the located sections. The first keyword_metrics entry is primary; any
// further entries are treated as related, ahead of related_keywords.
func keywordResultFrom(sec Sections, rep *report) KeywordResult {
	res := KeywordResult{Related: []KeywordMetric{}}

	metrics := objectsAt(sec.KeywordData, "keyword_metrics")
	if len(metrics) > 0 {
		primary := keywordFrom(metrics[0])
		if primary.Keyword == "" {
			primary.Keyword = sec.Keyword
		}
		res.Primary = &primary
		for _, m := range metrics[1:] {
			res.Related = append(res.Related, keywordFrom(m))
		}
	} else if sec.Keyword != "" {
		res.Primary = &KeywordMetric{
			Keyword:   sec.Keyword,
			Trend:     Trend{MonthlySeries: []MonthlyVolume{}},
			SERPFlags: SERPFlags{},
		}
		rep.missing("keyword_metrics")
	} else {
		rep.missing("keyword_data")
	}

	for _, m := range objectsAt(sec.KeywordData, "related_keywords") {
		kw := keywordFrom(m)
		if kw.Keyword == "" {
			continue
		}
		res.Related = append(res.Related, kw)
	}
	return res
}
