package normalizer

// predictionFrom reads performance_prediction. Out-of-range values are
// clamped rather than rejected.
func predictionFrom(sec Sections, rep *report) PerformancePrediction {
	pred := PerformancePrediction{
		RankingFactors: []RankingFactor{},
		Suggestions:    []Suggestion{},
	}
	src := sec.Prediction
	if src == nil {
		rep.missing("performance_prediction")
		return pred
	}
	pred.Available = true

	pred.EstimatedPosition = nonNegativeFloat(floatAt(src, "estimated_serp_position", "estimated_position"))
	pred.EstimatedCTR = clampFloat(floatAt(src, "estimated_ctr"), 0, 1)
	pred.EstimatedTraffic = nonNegativeInt(intAt(src, "estimated_traffic"))
	pred.Confidence = clampInt(intAt(src, "confidence_score", "confidence"), 0, 100)

	for _, f := range objectsAt(src, "ranking_factors") {
		name := stringAt(f, "factor_name", "name")
		if name == "" {
			continue
		}
		pred.RankingFactors = append(pred.RankingFactors, RankingFactor{
			Name:        name,
			Score:       clampFloat(floatAt(f, "score"), 0, 1),
			Description: stringAt(f, "description"),
		})
	}

	for _, s := range objectsAt(src, "improvement_suggestions") {
		text := stringAt(s, "suggestion", "text")
		area := stringAt(s, "area")
		if text == "" && area == "" {
			continue
		}
		pred.Suggestions = append(pred.Suggestions, Suggestion{
			Area:   area,
			Effort: parseLevel(stringAt(s, "effort")),
			Impact: parseLevel(stringAt(s, "impact")),
			Text:   text,
		})
	}
	return pred
}
