package normalizer

// blueprintFrom reads the content blueprint from either the flat
// content_blueprint object or the nested data object.
func blueprintFrom(sec Sections, rep *report) ContentBlueprint {
	bp := emptyBlueprint()
	src := sec.Blueprint
	if sec.BlueprintNested && !hasAny(src, blueprintFields...) {
		// A data envelope carrying only other sections.
		src = nil
	}
	if src == nil {
		rep.missing("content_blueprint")
		bp.TargetKeyword = sec.Keyword
		return bp
	}

	bp.Available = true
	bp.TargetKeyword = firstNonEmpty(stringAt(src, "keyword", "target_keyword"), sec.Keyword)
	bp.Recommendations = stringsAt(src, "recommendations")
	if len(bp.Recommendations) == 0 {
		bp.Recommendations = stringsAt(src, "content_recommendations")
	}
	bp.Outline = outlineFrom(objectAt(src, "outline"))

	if sec.BlueprintNested {
		root := sec.Root
		bp.BlueprintID = stringAt(root, "blueprint_id", "id")
		bp.Status = stringAt(root, "status")
		bp.CreatedAt = stringAt(root, "created_at")
		bp.GenerationTime = nonNegativeFloat(floatAt(root, "generation_time"))
	}

	clusters := objectAt(src, "topic_clusters")
	if clusters == nil {
		rep.missing("topic_clusters")
	}
	bp.TopicClusters = TopicClusters{
		Primary:   stringsAt(clusters, "primary_cluster"),
		Related:   stringsAt(clusters, "related_keywords"),
		Secondary: stringMapOfSlices(objectAt(clusters, "secondary_clusters")),
	}

	analysis := objectAt(src, "competitor_analysis")
	insights := objectAt(analysis, "insights")
	if insights == nil {
		insights = objectAt(src, "competitor_insights")
	}
	if insights == nil {
		rep.missing("competitor_insights")
	}
	length := objectAt(insights, "content_length")
	bp.CompetitorInsights = CompetitorInsights{
		CommonTopics: stringsAt(insights, "common_topics"),
		ContentLength: ContentLengthStats{
			Average: nonNegativeFloat(floatAt(length, "average", "avg")),
			Min:     nonNegativeFloat(floatAt(length, "min")),
			Max:     nonNegativeFloat(floatAt(length, "max")),
			Count:   nonNegativeInt(intAt(length, "count")),
		},
		SentimentTrend: stringAt(insights, "sentiment_trend"),
	}

	quality := objectAt(analysis, "data_quality")
	if quality == nil {
		quality = objectAt(src, "data_quality")
	}
	bp.DataQuality = dataQualityFrom(quality)
	return bp
}

// blueprintFields are the members that make a nested data object a
// blueprint.
var blueprintFields = []string{
	"recommendations", "content_recommendations", "outline", "topic_clusters",
	"competitor_analysis", "competitor_insights", "data_quality", "target_keyword",
}

func hasAny(m map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func emptyBlueprint() ContentBlueprint {
	return ContentBlueprint{
		Recommendations: []string{},
		TopicClusters: TopicClusters{
			Primary:   []string{},
			Related:   []string{},
			Secondary: map[string][]string{},
		},
		CompetitorInsights: CompetitorInsights{CommonTopics: []string{}},
	}
}

func dataQualityFrom(m map[string]interface{}) DataQuality {
	return DataQuality{
		CompetitorsAnalyzed:   nonNegativeInt(intAt(m, "competitors_analyzed", "analyzed_count")),
		SuccessfulCompetitors: nonNegativeInt(intAt(m, "successful_competitors")),
		FailedCompetitors:     nonNegativeInt(intAt(m, "failed_competitors", "failures")),
		ContentSamples:        nonNegativeInt(intAt(m, "content_samples", "samples")),
		EntitiesExtracted:     nonNegativeInt(intAt(m, "entities_extracted")),
		SentimentSamples:      nonNegativeInt(intAt(m, "sentiment_samples")),
		SuccessRate:           clampFloat(nonNegativeFloat(floatAt(m, "success_rate")), 0, 100),
	}
}

// outlineFrom reads {title, sections: [{heading, subsections}]}.
// Subsections may be plain strings or nested section objects.
func outlineFrom(m map[string]interface{}) HeadingNode {
	if m == nil {
		return HeadingNode{}
	}
	return HeadingNode{
		Title:       stringAt(m, "title", "heading"),
		Subsections: headingsFrom(arrayAt(m, "sections"), 0),
	}
}

const maxOutlineDepth = 8

func headingsFrom(arr []interface{}, depth int) []HeadingNode {
	if depth >= maxOutlineDepth || len(arr) == 0 {
		return nil
	}
	nodes := make([]HeadingNode, 0, len(arr))
	for _, el := range arr {
		switch v := el.(type) {
		case string:
			if v != "" {
				nodes = append(nodes, HeadingNode{Title: v})
			}
		case map[string]interface{}:
			title := stringAt(v, "heading", "title")
			if title == "" {
				continue
			}
			children := arrayAt(v, "subsections")
			if children == nil {
				children = arrayAt(v, "sections")
			}
			nodes = append(nodes, HeadingNode{Title: title, Subsections: headingsFrom(children, depth+1)})
		}
	}
	return nodes
}
