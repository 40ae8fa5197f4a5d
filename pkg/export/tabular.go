package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"seostrategy-go/pkg/normalizer"
)

var csvHeader = []string{
	"keyword", "role", "search_volume", "competition", "competition_level",
	"cpc", "difficulty", "opportunity", "trend_direction", "yoy_change", "total_results",
}

// writeCSV writes one row per keyword. Absent measurements are empty cells.
func writeCSV(w io.Writer, a *normalizer.Analysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	if p := a.Keywords.Primary; p != nil {
		if err := cw.Write(csvRow(*p, "primary")); err != nil {
			return err
		}
	}
	for _, rel := range a.Keywords.Related {
		if err := cw.Write(csvRow(rel, "related")); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(m normalizer.KeywordMetric, role string) []string {
	return []string{
		m.Keyword,
		role,
		intCell(m.SearchVolume),
		floatCell(m.Competition),
		string(m.CompetitionLevel),
		floatCell(m.CPC),
		intCell(m.Difficulty),
		intCell(m.Opportunity),
		string(m.Trend.Direction),
		m.Trend.YoYChange,
		intCell(m.TotalResults),
	}
}

func intCell(v normalizer.OptionalInt) string {
	if !v.Present {
		return ""
	}
	return strconv.FormatInt(v.Value, 10)
}

func floatCell(v normalizer.OptionalFloat) string {
	if !v.Present {
		return ""
	}
	return strconv.FormatFloat(v.Value, 'f', -1, 64)
}
