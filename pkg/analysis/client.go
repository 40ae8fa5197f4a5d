package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"seostrategy-go/pkg/api"
	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/metrics"
	"seostrategy-go/pkg/normalizer"
)

const (
	DefaultProcessPath   = "/api/process"
	DefaultBlueprintPath = "/api/blueprints/generate"
)

// ErrEmptyKeyword is returned before any request is made.
var ErrEmptyKeyword = errors.New("please enter a keyword to analyze")

type Options struct {
	ProcessPath   string
	BlueprintPath string
	// DemoFallback serves the bundled demo dataset when the backend cannot
	// be reached. Results are marked ProvenanceDemo.
	DemoFallback bool
	Normalizer   *normalizer.Normalizer
	Logger       *logger.Logger
	Metrics      *metrics.Recorder
}

// Client calls the analysis endpoints. Requests never carry credentials.
type Client struct {
	doer       api.Doer
	opts       Options
	normalizer *normalizer.Normalizer
	log        *logger.Logger
	metrics    *metrics.Recorder
}

func NewClient(doer api.Doer, opts Options) *Client {
	if opts.ProcessPath == "" {
		opts.ProcessPath = DefaultProcessPath
	}
	if opts.BlueprintPath == "" {
		opts.BlueprintPath = DefaultBlueprintPath
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	norm := opts.Normalizer
	if norm == nil {
		norm = normalizer.New(normalizer.Options{Logger: log, Metrics: opts.Metrics})
	}
	return &Client{
		doer:       doer,
		opts:       opts,
		normalizer: norm,
		log:        log.Component("analysis_client"),
		metrics:    opts.Metrics,
	}
}

type processRequest struct {
	Input  string `json:"input"`
	Domain string `json:"domain"`
}

type blueprintRequest struct {
	Keyword   string `json:"keyword"`
	ProjectID string `json:"project_id,omitempty"`
}

// Analyze runs the keyword analysis for keyword, optionally scoped to domain.
func (c *Client) Analyze(ctx context.Context, keyword, domain string) (*normalizer.Analysis, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	body := processRequest{Input: keyword, Domain: strings.TrimSpace(domain)}
	return c.fetch(ctx, c.opts.ProcessPath, "process", keyword, body)
}

// GenerateBlueprint requests a content blueprint for keyword.
func (c *Client) GenerateBlueprint(ctx context.Context, keyword, projectID string) (*normalizer.Analysis, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	body := blueprintRequest{Keyword: keyword, ProjectID: strings.TrimSpace(projectID)}
	return c.fetch(ctx, c.opts.BlueprintPath, "generate_blueprint", keyword, body)
}

func (c *Client) fetch(ctx context.Context, path, endpoint, keyword string, body interface{}) (*normalizer.Analysis, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
	}
	req := &api.Request{
		Method:   http.MethodPost,
		Path:     path,
		Endpoint: endpoint,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body: data,
	}

	log := c.log.WithFields(map[string]interface{}{"endpoint": endpoint, "keyword": keyword})
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		if c.opts.DemoFallback && api.IsNetworkError(err) && ctx.Err() == nil {
			log.WithError(err).Warn("Backend unreachable, serving demo data")
			c.metrics.DemoResult()
			demo := c.normalizer.DemoAnalysis(keyword)
			demo.Warnings = append(demo.Warnings, "backend unreachable: "+err.Error())
			return demo, nil
		}
		return nil, err
	}
	if !resp.OK() {
		upstream := api.NewUpstreamError(resp)
		log.WithField("status", resp.StatusCode).Warn("Analysis request failed")
		return nil, upstream
	}

	analysis, err := c.normalizer.Normalize(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", endpoint, err)
	}
	if analysis.Keyword == "" {
		analysis.Keyword = keyword
	}
	log.WithField("shape", string(analysis.Shape)).Debug("Analysis completed")
	return analysis, nil
}
