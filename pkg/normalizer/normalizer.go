package normalizer

import (
	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/metrics"
)

// Options configures a Normalizer. Zero values are usable.
type Options struct {
	Logger   *logger.Logger
	Metrics  *metrics.Recorder
	Detector *Detector
}

// Normalizer turns raw analysis payloads into view-models. It is safe for
// concurrent use.
type Normalizer struct {
	log      *logger.Logger
	metrics  *metrics.Recorder
	detector *Detector
}

func New(opts Options) *Normalizer {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	detector := opts.Detector
	if detector == nil {
		detector = defaultDetector
	}
	return &Normalizer{
		log:      log.Component("normalizer"),
		metrics:  opts.Metrics,
		detector: detector,
	}
}

// document is a decoded payload with its shape resolved.
type document struct {
	shape    Shape
	sections Sections
}

func (n *Normalizer) parse(raw []byte) (*document, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		n.log.WithError(err).Warn("Rejected analysis payload")
		return nil, err
	}
	shape, sections := n.detector.Resolve(obj)
	n.log.WithField("shape", string(shape)).Debug("Resolved payload shape")
	return &document{shape: shape, sections: sections}, nil
}

// report collects data-quality warnings for one normalization.
type report struct {
	shape    Shape
	sections []string
	warnings []string
}

func (r *report) missing(section string) {
	r.sections = append(r.sections, section)
	r.warnings = append(r.warnings, "missing "+section)
}

// flush logs and counts the collected warnings.
func (n *Normalizer) flush(rep *report) {
	for _, section := range rep.sections {
		n.metrics.MissingSection(section)
	}
	if len(rep.warnings) == 0 {
		return
	}
	n.log.WithFields(map[string]interface{}{
		"shape":    string(rep.shape),
		"warnings": rep.warnings,
	}).Info("Analysis payload incomplete")
}

// NormalizeKeywordResponse extracts the primary and related keywords.
func (n *Normalizer) NormalizeKeywordResponse(raw []byte) (*KeywordResult, error) {
	doc, err := n.parse(raw)
	if err != nil {
		return nil, err
	}
	rep := &report{shape: doc.shape}
	res := keywordResultFrom(doc.sections, rep)
	res.Shape = doc.shape
	res.Provenance = ProvenanceLive
	n.flush(rep)
	return &res, nil
}

// NormalizeBlueprint extracts the content blueprint. A top-level data
// object selects the nested layout even when content_blueprint is also
// present.
func (n *Normalizer) NormalizeBlueprint(raw []byte) (*ContentBlueprint, error) {
	doc, err := n.parse(raw)
	if err != nil {
		return nil, err
	}
	rep := &report{shape: doc.shape}
	bp := blueprintFrom(doc.sections, rep)
	bp.Shape = doc.shape
	bp.Provenance = ProvenanceLive
	n.flush(rep)
	return &bp, nil
}

func (n *Normalizer) NormalizeOptimizationPlan(raw []byte) (*OptimizationPlan, error) {
	doc, err := n.parse(raw)
	if err != nil {
		return nil, err
	}
	rep := &report{shape: doc.shape}
	plan := optimizationFrom(doc.sections, rep)
	n.flush(rep)
	return &plan, nil
}

func (n *Normalizer) NormalizePerformancePrediction(raw []byte) (*PerformancePrediction, error) {
	doc, err := n.parse(raw)
	if err != nil {
		return nil, err
	}
	rep := &report{shape: doc.shape}
	pred := predictionFrom(doc.sections, rep)
	n.flush(rep)
	return &pred, nil
}

// Normalize runs every extractor over one payload.
func (n *Normalizer) Normalize(raw []byte) (*Analysis, error) {
	return n.normalize(raw, ProvenanceLive)
}

func (n *Normalizer) normalize(raw []byte, provenance Provenance) (*Analysis, error) {
	doc, err := n.parse(raw)
	if err != nil {
		return nil, err
	}
	rep := &report{shape: doc.shape}
	if doc.shape == ShapeUnknown {
		rep.warnings = append(rep.warnings, "unrecognized payload shape")
	}

	a := &Analysis{
		Keywords:     keywordResultFrom(doc.sections, rep),
		Blueprint:    blueprintFrom(doc.sections, rep),
		Optimization: optimizationFrom(doc.sections, rep),
		Prediction:   predictionFrom(doc.sections, rep),
		Shape:        doc.shape,
		Provenance:   provenance,
	}
	a.Keywords.Shape, a.Keywords.Provenance = doc.shape, provenance
	a.Blueprint.Shape, a.Blueprint.Provenance = doc.shape, provenance

	a.Keyword = doc.sections.Keyword
	if a.Keywords.Primary != nil {
		a.Keyword = a.Keywords.Primary.Keyword
	}

	root := doc.sections.Root
	a.ExportFormats = exportFormatsFrom(root)
	a.CMSPlatforms = cmsPlatformsFrom(root)

	// The demo dataset is known to lack the nested sections.
	if provenance == ProvenanceLive {
		n.flush(rep)
		a.Warnings = rep.warnings
	}
	return a, nil
}

// std builds a Normalizer on the current global logger.
func std() *Normalizer {
	return New(Options{})
}

// NormalizeKeywordResponse uses a default Normalizer.
func NormalizeKeywordResponse(raw []byte) (*KeywordResult, error) {
	return std().NormalizeKeywordResponse(raw)
}

func NormalizeBlueprint(raw []byte) (*ContentBlueprint, error) {
	return std().NormalizeBlueprint(raw)
}

func NormalizeOptimizationPlan(raw []byte) (*OptimizationPlan, error) {
	return std().NormalizeOptimizationPlan(raw)
}

func NormalizePerformancePrediction(raw []byte) (*PerformancePrediction, error) {
	return std().NormalizePerformancePrediction(raw)
}

func Normalize(raw []byte) (*Analysis, error) {
	return std().Normalize(raw)
}
