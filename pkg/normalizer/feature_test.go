package normalizer

import "testing"

func TestNormalizeFeatureName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"featured_snippets", "featured_snippet"},
		{"featured snippet", "featured_snippet"},
		{"  Featured   Snippets ", "featured_snippet"},
		{"FEATURED-SNIPPET", "featured_snippet"},
		{"People Also Ask", "people_also_ask"},
		{"knowledge_panels", "knowledge_panel"},
		{"video_results", "video_result"},
		{"top stories", "top_story"},
		{"local business", "local_business"},
		{"news", "news"},
		{"ads", "ads"},
		{"ＦＡＱ", "faq"},
		{"", ""},
		{" _ - ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeFeatureName(tt.in); got != tt.want {
			t.Errorf("NormalizeFeatureName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFeatureDisplayName(t *testing.T) {
	if got := FeatureDisplayName("featured_snippets"); got != "Featured Snippet" {
		t.Errorf("FeatureDisplayName = %q", got)
	}
}

func TestSerpFlagsFrom(t *testing.T) {
	flags := serpFlagsFrom([]interface{}{"video_results", "image_packs", "unknown", 3})
	if len(flags) != 2 || flags[0] != FlagImages || flags[1] != FlagVideos {
		t.Fatalf("unexpected flags %v", flags)
	}
	if !flags.Has(FlagVideos) || flags.Has(FlagFeaturedSnippet) {
		t.Errorf("Has() disagrees with %v", flags)
	}
}
