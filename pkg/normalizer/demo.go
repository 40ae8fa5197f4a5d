package normalizer

import (
	"bytes"
	_ "embed"
	"encoding/json"
)

//go:embed demo.json
var demoPayload []byte

const (
	demoPlaceholder = "__KEYWORD__"
	// DefaultDemoKeyword is used when DemoAnalysis gets an empty keyword.
	DefaultDemoKeyword = "content strategy"
)

// DemoPayload returns the raw illustrative payload for keyword.
func DemoPayload(keyword string) []byte {
	if keyword == "" {
		keyword = DefaultDemoKeyword
	}
	quoted, _ := json.Marshal(keyword)
	return bytes.ReplaceAll(demoPayload, []byte(`"`+demoPlaceholder+`"`), quoted)
}

// DemoAnalysis returns the bundled sample analysis for keyword, marked
// ProvenanceDemo so it is never mistaken for backend data.
func (n *Normalizer) DemoAnalysis(keyword string) *Analysis {
	a, err := n.normalize(DemoPayload(keyword), ProvenanceDemo)
	if err != nil {
		// demo.json is part of the binary; a decode failure is a build defect.
		panic("normalizer: embedded demo payload: " + err.Error())
	}
	return a
}

func DemoAnalysis(keyword string) *Analysis {
	return std().DemoAnalysis(keyword)
}
