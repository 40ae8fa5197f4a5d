package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// singularExceptions end in "s" but are not plurals.
var singularExceptions = map[string]struct{}{
	"news":      {},
	"analytics": {},
	"status":    {},
	"ads":       {},
	"series":    {},
}

// NormalizeFeatureName maps the free-text and machine-key spellings of a
// SERP feature to one identifier: "Featured Snippets", "featured_snippets"
// and "featured-snippet" all become "featured_snippet".
func NormalizeFeatureName(name string) string {
	s := norm.NFKC.String(name)
	// cases.Caser keeps state, so one per call.
	s = cases.Fold().String(s)

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '/' || unicode.IsSpace(r)
	})
	if len(parts) == 0 {
		return ""
	}
	last := len(parts) - 1
	parts[last] = singular(parts[last])
	return strings.Join(parts, "_")
}

func singular(word string) string {
	if _, ok := singularExceptions[word]; ok {
		return word
	}
	if len(word) <= 3 || !strings.HasSuffix(word, "s") {
		return word
	}
	if strings.HasSuffix(word, "ss") || strings.HasSuffix(word, "us") || strings.HasSuffix(word, "is") {
		return word
	}
	if len(word) > 4 && strings.HasSuffix(word, "ies") {
		return strings.TrimSuffix(word, "ies") + "y"
	}
	return strings.TrimSuffix(word, "s")
}

// FeatureDisplayName renders a normalized feature identifier for humans.
func FeatureDisplayName(feature string) string {
	words := strings.ReplaceAll(NormalizeFeatureName(feature), "_", " ")
	return cases.Title(language.English).String(words)
}

// serpFlagFor maps a normalized feature identifier onto a keyword SERP flag.
func serpFlagFor(feature string) (SERPFlag, bool) {
	switch feature {
	case "featured_snippet", "snippet":
		return FlagFeaturedSnippet, true
	case "people_also_ask", "paa", "related_question":
		return FlagPeopleAlsoAsk, true
	case "image", "image_pack", "image_result":
		return FlagImages, true
	case "video", "video_result", "video_carousel":
		return FlagVideos, true
	}
	return "", false
}
