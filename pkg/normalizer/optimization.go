package normalizer

// optimizationFrom reads optimization_recommendations. Feature names are
// normalized so both schema generations line up with serp_features.
func optimizationFrom(sec Sections, rep *report) OptimizationPlan {
	plan := OptimizationPlan{
		Items:         []OptimizationItem{},
		SERPFeatures:  []SERPFeature{},
		PeopleAlsoAsk: []PAAEntry{},
	}
	src := sec.Optimization
	if src == nil {
		rep.missing("optimization_recommendations")
		plan.PeopleAlsoAsk = appendPAA(plan.PeopleAlsoAsk, arrayAt(sec.Root, "people_also_ask"))
		return plan
	}
	plan.Available = true

	presence := make(map[string]Presence)
	for _, f := range objectsAt(src, "serp_features") {
		name := NormalizeFeatureName(stringAt(f, "name", "feature"))
		if name == "" {
			continue
		}
		data := objectAt(f, "data")
		p := parsePresence(stringAt(f, "presence"))
		if p == PresenceUnknown {
			p = parsePresence(stringAt(data, "presence"))
		}
		count := nonNegativeInt(intAt(f, "count"))
		if !count.Present {
			count = nonNegativeInt(intAt(data, "count"))
		}
		presence[name] = p
		plan.SERPFeatures = append(plan.SERPFeatures, SERPFeature{
			Name:        name,
			DisplayName: FeatureDisplayName(name),
			Presence:    p,
			Count:       count,
		})

		if name == "people_also_ask" {
			for _, key := range []string{"questions", "items", "results"} {
				plan.PeopleAlsoAsk = appendPAA(plan.PeopleAlsoAsk, arrayAt(data, key))
			}
		}
	}

	for _, r := range objectsAt(src, "recommendations") {
		raw := stringAt(r, "feature", "name")
		name := NormalizeFeatureName(raw)
		if name == "" {
			continue
		}
		item := OptimizationItem{
			FeatureName: name,
			DisplayName: FeatureDisplayName(name),
			Presence:    parsePresence(stringAt(r, "presence")),
			Opportunity: parseOpportunity(stringAt(r, "opportunity")),
			StatusText:  stringAt(r, "status", "status_text"),
			ActionItems: stringsAt(r, "recommendations"),
		}
		if len(item.ActionItems) == 0 {
			item.ActionItems = stringsAt(r, "action_items")
		}
		if item.Presence == PresenceUnknown {
			item.Presence = presence[name]
		}
		plan.Items = append(plan.Items, item)
	}

	plan.PeopleAlsoAsk = appendPAA(plan.PeopleAlsoAsk, arrayAt(src, "people_also_ask"))
	plan.PeopleAlsoAsk = appendPAA(plan.PeopleAlsoAsk, arrayAt(sec.Root, "people_also_ask"))
	return plan
}

// appendPAA adds People-Also-Ask entries; entries without a question are
// skipped and repeated questions are kept once.
func appendPAA(dst []PAAEntry, arr []interface{}) []PAAEntry {
	for _, el := range arr {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		q := stringAt(m, "question")
		if q == "" || hasQuestion(dst, q) {
			continue
		}
		dst = append(dst, PAAEntry{
			Question: q,
			Snippet:  stringAt(m, "snippet", "answer"),
			Title:    stringAt(m, "title"),
			Link:     stringAt(m, "link", "url"),
			Date:     stringAt(m, "date"),
		})
	}
	return dst
}

func hasQuestion(entries []PAAEntry, q string) bool {
	for _, e := range entries {
		if e.Question == q {
			return true
		}
	}
	return false
}
