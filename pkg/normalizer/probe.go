package normalizer

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Sections locates each analysis section inside one payload layout. Nil
// maps mean the section is absent.
type Sections struct {
	// Keyword is the fallback primary keyword when no metrics exist.
	Keyword string
	// KeywordData holds keyword_metrics and related_keywords arrays.
	KeywordData map[string]interface{}
	// Blueprint is the flat content_blueprint object or the nested data
	// object, depending on BlueprintNested.
	Blueprint       map[string]interface{}
	BlueprintNested bool
	Optimization    map[string]interface{}
	Prediction      map[string]interface{}
	Root            map[string]interface{}
}

// Extractor maps a decoded payload of a known shape onto its sections.
type Extractor func(root map[string]interface{}) Sections

// Probe recognizes one payload shape with a JSON Schema and knows how to
// extract its sections.
type Probe struct {
	Shape   Shape
	schema  *gojsonschema.Schema
	extract Extractor
}

// NewProbe compiles schemaJSON once.
func NewProbe(shape Shape, schemaJSON string, extract Extractor) (Probe, error) {
	if extract == nil {
		return Probe{}, fmt.Errorf("probe %s: nil extractor", shape)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return Probe{}, fmt.Errorf("probe %s: compile schema: %w", shape, err)
	}
	return Probe{Shape: shape, schema: schema, extract: extract}, nil
}

func mustProbe(shape Shape, schemaJSON string, extract Extractor) Probe {
	p, err := NewProbe(shape, schemaJSON, extract)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether the document satisfies the probe's schema.
func (p Probe) Match(doc gojsonschema.JSONLoader) bool {
	result, err := p.schema.Validate(doc)
	return err == nil && result.Valid()
}

const blueprintSchema = `{
	"type": "object",
	"required": ["data"],
	"properties": {"data": {"type": "object"}}
}`

const legacySchema = `{
	"type": "object",
	"required": ["keyword_data"],
	"properties": {"keyword_data": {"type": "object"}}
}`

const partialSchema = `{
	"type": "object",
	"anyOf": [
		{"required": ["content_blueprint"], "properties": {"content_blueprint": {"type": "object"}}},
		{"required": ["optimization_recommendations"], "properties": {"optimization_recommendations": {"type": "object"}}},
		{"required": ["performance_prediction"], "properties": {"performance_prediction": {"type": "object"}}},
		{"required": ["keyword"], "properties": {"keyword": {"type": "string", "minLength": 1}}}
	]
}`

// Detector resolves a payload's shape by trying probes in order; the first
// match wins.
type Detector struct {
	mu     sync.RWMutex
	probes []Probe
}

// NewDetector returns a detector loaded with the built-in probes:
// blueprint, then legacy, then partial.
func NewDetector() *Detector {
	return &Detector{probes: []Probe{
		mustProbe(ShapeBlueprint, blueprintSchema, extractBlueprintShape),
		mustProbe(ShapeLegacy, legacySchema, extractLegacyShape),
		mustProbe(ShapePartial, partialSchema, extractPartialShape),
	}}
}

// Register appends a probe after the existing ones.
func (d *Detector) Register(p Probe) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.probes = append(d.probes, p)
}

// Shapes lists the probe order.
func (d *Detector) Shapes() []Shape {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Shape, len(d.probes))
	for i, p := range d.probes {
		out[i] = p.Shape
	}
	return out
}

// Resolve runs the probes against root and extracts the sections of the
// first matching shape. Unmatched payloads resolve to ShapeUnknown with
// every section absent.
func (d *Detector) Resolve(root map[string]interface{}) (Shape, Sections) {
	d.mu.RLock()
	probes := d.probes
	d.mu.RUnlock()

	doc := gojsonschema.NewGoLoader(root)
	for _, p := range probes {
		if p.Match(doc) {
			return p.Shape, p.extract(root)
		}
	}
	return ShapeUnknown, Sections{Root: root}
}

var defaultDetector = NewDetector()

// RegisterProbe appends a probe to the package-level detector.
func RegisterProbe(p Probe) {
	defaultDetector.Register(p)
}

func extractBlueprintShape(root map[string]interface{}) Sections {
	data := objectAt(root, "data")
	s := Sections{
		Keyword: firstNonEmpty(
			stringAt(data, "keyword"),
			stringAt(root, "keyword"),
			stringAt(objectAt(root, "content_blueprint"), "keyword"),
		),
		KeywordData:     objectAt(data, "keyword_data"),
		Blueprint:       data,
		BlueprintNested: true,
		Optimization:    objectAt(data, "optimization_recommendations"),
		Prediction:      objectAt(data, "performance_prediction"),
		Root:            root,
	}
	if s.KeywordData == nil {
		s.KeywordData = objectAt(root, "keyword_data")
	}
	if s.Optimization == nil {
		s.Optimization = objectAt(root, "optimization_recommendations")
	}
	if s.Prediction == nil {
		s.Prediction = objectAt(root, "performance_prediction")
	}
	return s
}

func extractLegacyShape(root map[string]interface{}) Sections {
	blueprint := objectAt(root, "content_blueprint")
	return Sections{
		Keyword:      firstNonEmpty(stringAt(root, "keyword"), stringAt(blueprint, "keyword")),
		KeywordData:  objectAt(root, "keyword_data"),
		Blueprint:    blueprint,
		Optimization: objectAt(root, "optimization_recommendations"),
		Prediction:   objectAt(root, "performance_prediction"),
		Root:         root,
	}
}

func extractPartialShape(root map[string]interface{}) Sections {
	// Same keys as legacy, minus keyword_data.
	return extractLegacyShape(root)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
