package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seostrategy-go/pkg/api"
	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/metrics"
	"seostrategy-go/pkg/normalizer"
)

type fakeDoer struct {
	mu       sync.Mutex
	requests []*api.Request
	resp     *api.Response
	err      error
}

func (f *fakeDoer) Do(ctx context.Context, req *api.Request) (*api.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../normalizer/testdata/" + name)
	require.NoError(t, err)
	return data
}

func newTestClient(doer api.Doer, opts Options) *Client {
	opts.Logger = logger.Nop()
	return NewClient(doer, opts)
}

func TestAnalyze_EmptyKeywordMakesNoRequest(t *testing.T) {
	doer := &fakeDoer{}
	c := newTestClient(doer, Options{})

	_, err := c.Analyze(context.Background(), "   ", "example.com")
	assert.ErrorIs(t, err, ErrEmptyKeyword)
	_, err = c.GenerateBlueprint(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrEmptyKeyword)
	assert.Empty(t, doer.requests)
}

func TestAnalyze_SendsProcessRequest(t *testing.T) {
	doer := &fakeDoer{resp: &api.Response{StatusCode: http.StatusOK, Body: fixture(t, "legacy.json")}}
	c := newTestClient(doer, Options{})

	a, err := c.Analyze(context.Background(), " content strategy ", "example.com")
	require.NoError(t, err)

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, DefaultProcessPath, req.Path)
	assert.Equal(t, "application/json", req.Headers["Accept"])
	assert.NotContains(t, req.Headers, "Authorization")

	var body map[string]string
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, map[string]string{"input": "content strategy", "domain": "example.com"}, body)

	assert.Equal(t, normalizer.ShapeLegacy, a.Shape)
	assert.Equal(t, normalizer.ProvenanceLive, a.Provenance)
	assert.Equal(t, "content strategy", a.Keyword)
}

func TestGenerateBlueprint_SendsKeywordAndProject(t *testing.T) {
	doer := &fakeDoer{resp: &api.Response{StatusCode: http.StatusOK, Body: fixture(t, "blueprint.json")}}
	c := newTestClient(doer, Options{})

	a, err := c.GenerateBlueprint(context.Background(), "seo audit", "p-1")
	require.NoError(t, err)

	req := doer.requests[0]
	assert.Equal(t, DefaultBlueprintPath, req.Path)
	var body map[string]string
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "seo audit", body["keyword"])
	assert.Equal(t, "p-1", body["project_id"])
	assert.Equal(t, normalizer.ShapeBlueprint, a.Shape)
	assert.True(t, a.Blueprint.Available)
}

func TestGenerateBlueprint_OmitsEmptyProject(t *testing.T) {
	doer := &fakeDoer{resp: &api.Response{StatusCode: http.StatusOK, Body: fixture(t, "blueprint.json")}}
	c := newTestClient(doer, Options{})

	_, err := c.GenerateBlueprint(context.Background(), "seo audit", "")
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(doer.requests[0].Body, &body))
	assert.NotContains(t, body, "project_id")
}

func TestAnalyze_UpstreamErrorCarriesRawText(t *testing.T) {
	doer := &fakeDoer{resp: &api.Response{StatusCode: http.StatusBadGateway, Body: []byte("upstream exploded")}}
	c := newTestClient(doer, Options{DemoFallback: true})

	_, err := c.Analyze(context.Background(), "seo", "")
	var upstream *api.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
	assert.Equal(t, "upstream exploded", upstream.Message)
}

func TestAnalyze_MalformedBody(t *testing.T) {
	doer := &fakeDoer{resp: &api.Response{StatusCode: http.StatusOK, Body: []byte("<html>")}}
	c := newTestClient(doer, Options{})

	_, err := c.Analyze(context.Background(), "seo", "")
	assert.ErrorIs(t, err, normalizer.ErrMalformedResponse)
}

func TestAnalyze_NetworkErrorWithoutFallback(t *testing.T) {
	netErr := &api.NetworkError{Op: "POST /api/process", Err: errors.New("connection refused")}
	c := newTestClient(&fakeDoer{err: netErr}, Options{})

	_, err := c.Analyze(context.Background(), "seo", "")
	assert.True(t, api.IsNetworkError(err))
}

func TestAnalyze_DemoFallbackIsMarked(t *testing.T) {
	netErr := &api.NetworkError{Op: "POST /api/process", Err: errors.New("connection refused")}
	rec := metrics.NewRecorder()
	c := newTestClient(&fakeDoer{err: netErr}, Options{DemoFallback: true, Metrics: rec})

	a, err := c.Analyze(context.Background(), "local seo", "")
	require.NoError(t, err)
	assert.True(t, a.IsDemo())
	assert.Equal(t, "local seo", a.Keyword)
	require.NotEmpty(t, a.Warnings)
	assert.Contains(t, a.Warnings[len(a.Warnings)-1], "backend unreachable")

	expected := `
# HELP seostrategy_analysis_demo_results_total Analyses served from the demo dataset because the backend was unreachable.
# TYPE seostrategy_analysis_demo_results_total counter
seostrategy_analysis_demo_results_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Gatherer(), strings.NewReader(expected),
		"seostrategy_analysis_demo_results_total"))
}

func TestAnalyze_NoFallbackOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	netErr := &api.NetworkError{Op: "POST /api/process", Err: context.Canceled}
	c := newTestClient(&fakeDoer{err: netErr}, Options{DemoFallback: true})

	a, err := c.Analyze(ctx, "seo", "")
	assert.Error(t, err)
	assert.Nil(t, a)
}
