package normalizer

import (
	"encoding/json"
	"strconv"
)

// OptionalInt is an integer measurement that may be missing from the
// backend payload. An absent value renders as null, never as 0.
type OptionalInt struct {
	Value   int64
	Present bool
}

// OptionalFloat is the float counterpart of OptionalInt.
type OptionalFloat struct {
	Value   float64
	Present bool
}

func SomeInt(v int64) OptionalInt       { return OptionalInt{Value: v, Present: true} }
func SomeFloat(v float64) OptionalFloat { return OptionalFloat{Value: v, Present: true} }

func (o OptionalInt) String() string {
	if !o.Present {
		return "N/A"
	}
	return strconv.FormatInt(o.Value, 10)
}

func (o OptionalFloat) String() string {
	if !o.Present {
		return "N/A"
	}
	return strconv.FormatFloat(o.Value, 'f', -1, 64)
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Shape identifies which backend payload layout a response used.
type Shape string

const (
	ShapeUnknown   Shape = "unknown"
	ShapeLegacy    Shape = "legacy"    // flat keyword_data + sibling sections
	ShapeBlueprint Shape = "blueprint" // nested under a top-level data object
	ShapePartial   Shape = "partial"   // some sections only
)

// Provenance separates real backend data from the bundled demo dataset.
type Provenance string

const (
	ProvenanceLive Provenance = "live"
	ProvenanceDemo Provenance = "demo"
)

// Level is the Low/Medium/High scale used for competition, effort and impact.
type Level string

const (
	LevelUnknown Level = ""
	LevelLow     Level = "Low"
	LevelMedium  Level = "Medium"
	LevelHigh    Level = "High"
)

type TrendDirection string

const (
	TrendUnknown TrendDirection = ""
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendStable  TrendDirection = "stable"
)

type SERPFlag string

const (
	FlagFeaturedSnippet SERPFlag = "featured_snippet"
	FlagPeopleAlsoAsk   SERPFlag = "people_also_ask"
	FlagImages          SERPFlag = "images"
	FlagVideos          SERPFlag = "videos"
)

// serpFlagOrder is the canonical order flags are reported in.
var serpFlagOrder = []SERPFlag{FlagFeaturedSnippet, FlagPeopleAlsoAsk, FlagImages, FlagVideos}

// SERPFlags is the set of SERP features shown for a keyword.
type SERPFlags []SERPFlag

func (s SERPFlags) Has(flag SERPFlag) bool {
	for _, f := range s {
		if f == flag {
			return true
		}
	}
	return false
}

type MonthlyVolume struct {
	Month  string `json:"month"`
	Volume int64  `json:"volume"`
}

type Trend struct {
	MonthlySeries []MonthlyVolume `json:"monthly_series"`
	Direction     TrendDirection  `json:"direction"`
	YoYChange     string          `json:"yoy_change"`
}

// KeywordMetric is one keyword's metrics as reported by the backend.
type KeywordMetric struct {
	Keyword          string        `json:"keyword"`
	SearchVolume     OptionalInt   `json:"search_volume"`
	Competition      OptionalFloat `json:"competition"`
	CompetitionLevel Level         `json:"competition_level"`
	CPC              OptionalFloat `json:"cpc"`
	Difficulty       OptionalInt   `json:"difficulty"`
	Opportunity      OptionalInt   `json:"opportunity"`
	Trend            Trend         `json:"trend"`
	SERPFlags        SERPFlags     `json:"serp_flags"`
	TotalResults     OptionalInt   `json:"total_results"`
}

// KeywordResult holds the primary keyword (nil when the payload had none)
// and any related keywords.
type KeywordResult struct {
	Primary    *KeywordMetric  `json:"primary"`
	Related    []KeywordMetric `json:"related"`
	Shape      Shape           `json:"shape"`
	Provenance Provenance      `json:"provenance"`
}

type HeadingNode struct {
	Title       string        `json:"title"`
	Subsections []HeadingNode `json:"subsections,omitempty"`
}

type TopicClusters struct {
	Primary   []string            `json:"primary"`
	Related   []string            `json:"related"`
	Secondary map[string][]string `json:"secondary"`
}

type ContentLengthStats struct {
	Average OptionalFloat `json:"average"`
	Min     OptionalFloat `json:"min"`
	Max     OptionalFloat `json:"max"`
	Count   OptionalInt   `json:"count"`
}

type CompetitorInsights struct {
	CommonTopics   []string           `json:"common_topics"`
	ContentLength  ContentLengthStats `json:"content_length"`
	SentimentTrend string             `json:"sentiment_trend"`
}

// DataQuality reports how much competitor data backed a blueprint.
type DataQuality struct {
	CompetitorsAnalyzed   OptionalInt   `json:"competitors_analyzed"`
	SuccessfulCompetitors OptionalInt   `json:"successful_competitors"`
	FailedCompetitors     OptionalInt   `json:"failed_competitors"`
	ContentSamples        OptionalInt   `json:"content_samples"`
	EntitiesExtracted     OptionalInt   `json:"entities_extracted"`
	SentimentSamples      OptionalInt   `json:"sentiment_samples"`
	SuccessRate           OptionalFloat `json:"success_rate"`
}

// ContentBlueprint is a generated content outline for a target keyword.
// Available is false when the payload carried no blueprint section.
type ContentBlueprint struct {
	Available          bool               `json:"available"`
	BlueprintID        string             `json:"blueprint_id,omitempty"`
	Status             string             `json:"status,omitempty"`
	CreatedAt          string             `json:"created_at,omitempty"`
	GenerationTime     OptionalFloat      `json:"generation_time"`
	TargetKeyword      string             `json:"target_keyword"`
	Recommendations    []string           `json:"recommendations"`
	Outline            HeadingNode        `json:"outline"`
	TopicClusters      TopicClusters      `json:"topic_clusters"`
	CompetitorInsights CompetitorInsights `json:"competitor_insights"`
	DataQuality        DataQuality        `json:"data_quality"`
	Shape              Shape              `json:"shape"`
	Provenance         Provenance         `json:"provenance"`
}

type Presence string

const (
	PresenceUnknown Presence = ""
	PresenceNone    Presence = "none"
	PresenceWeak    Presence = "weak"
	PresenceStrong  Presence = "strong"
)

type Opportunity string

const (
	OpportunityUnknown Opportunity = ""
	OpportunityLow     Opportunity = "low"
	OpportunityMedium  Opportunity = "medium"
	OpportunityHigh    Opportunity = "high"
)

type OptimizationItem struct {
	FeatureName string      `json:"feature_name"`
	DisplayName string      `json:"display_name"`
	Presence    Presence    `json:"presence"`
	Opportunity Opportunity `json:"opportunity"`
	StatusText  string      `json:"status_text"`
	ActionItems []string    `json:"action_items"`
}

// SERPFeature is one observed SERP feature and how strongly it appears.
type SERPFeature struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Presence    Presence    `json:"presence"`
	Count       OptionalInt `json:"count"`
}

// PAAEntry is one People-Also-Ask question scraped from the SERP.
type PAAEntry struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet"`
	Title    string `json:"title"`
	Link     string `json:"link,omitempty"`
	Date     string `json:"date,omitempty"`
}

type OptimizationPlan struct {
	Available     bool               `json:"available"`
	Items         []OptimizationItem `json:"items"`
	SERPFeatures  []SERPFeature      `json:"serp_features"`
	PeopleAlsoAsk []PAAEntry         `json:"people_also_ask"`
}

type RankingFactor struct {
	Name        string        `json:"name"`
	Score       OptionalFloat `json:"score"`
	Description string        `json:"description"`
}

type Suggestion struct {
	Area   string `json:"area"`
	Effort Level  `json:"effort"`
	Impact Level  `json:"impact"`
	Text   string `json:"text"`
}

type PerformancePrediction struct {
	Available         bool            `json:"available"`
	EstimatedPosition OptionalFloat   `json:"estimated_position"`
	EstimatedCTR      OptionalFloat   `json:"estimated_ctr"`
	EstimatedTraffic  OptionalInt     `json:"estimated_traffic"`
	Confidence        OptionalInt     `json:"confidence"`
	RankingFactors    []RankingFactor `json:"ranking_factors"`
	Suggestions       []Suggestion    `json:"improvement_suggestions"`
}

type ExportFormat struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	Description string `json:"description"`
}

type CMSPlatform struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Analysis is the combined view-model for one analysis response.
type Analysis struct {
	Keyword       string                `json:"keyword"`
	Keywords      KeywordResult         `json:"keywords"`
	Blueprint     ContentBlueprint      `json:"blueprint"`
	Optimization  OptimizationPlan      `json:"optimization"`
	Prediction    PerformancePrediction `json:"prediction"`
	ExportFormats []ExportFormat        `json:"export_formats"`
	CMSPlatforms  []CMSPlatform         `json:"cms_platforms"`
	Shape         Shape                 `json:"shape"`
	Provenance    Provenance            `json:"provenance"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// IsDemo reports whether the analysis came from the bundled demo dataset.
func (a *Analysis) IsDemo() bool {
	return a != nil && a.Provenance == ProvenanceDemo
}
