package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/metrics"
)

const DefaultUserAgent = "seostrategy-go/1.0"

// ClientConfig configures the backend HTTP client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration // per attempt, applied to every call
	MaxRetries int           // 0 means one attempt
	RetryDelay time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
	Burst      int
	UserAgent  string

	// BreakerThreshold consecutive network failures open the circuit for
	// BreakerReset. 0 disables the breaker.
	BreakerThreshold int
	BreakerReset     time.Duration

	Connection ConnectionConfig
	Metrics    *metrics.Recorder
	Logger     *logger.Logger
}

// Client issues requests to the backend over fasthttp.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      *fasthttp.Client
	retry     *SimpleRetry
	limiter   *rate.Limiter
	breaker   *CircuitBreaker
	metrics   *metrics.Recorder
	log       *logger.Logger

	totalRequests  atomic.Uint64
	failedRequests atomic.Uint64
}

// NewClient validates the config and builds a client.
func NewClient(config ClientConfig) (*Client, error) {
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", config.BaseURL)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	log := config.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RateLimit > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &Client{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		timeout:   config.Timeout,
		userAgent: config.UserAgent,
		http:      NewFastHTTPClient(config.Connection, config.UserAgent),
		retry:     NewSimpleRetry(config.MaxRetries, config.RetryDelay),
		limiter:   limiter,
		breaker:   NewCircuitBreaker(config.BreakerThreshold, config.BreakerReset),
		metrics:   config.Metrics,
		log:       log.Component("api_client"),
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends the request, retrying transport failures and 5xx responses up to
// the configured budget. A non-2xx response is not an error at this layer.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	if r == nil {
		return nil, errors.New("nil request")
	}
	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = r.Path
	}
	requestID := uuid.NewString()
	log := c.log.WithFields(map[string]interface{}{
		"endpoint":   endpoint,
		"method":     r.Method,
		"request_id": requestID,
	})

	c.totalRequests.Add(1)
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		c.failedRequests.Add(1)
		return nil, fmt.Errorf("%s %s: rate limiter: %w", r.Method, endpoint, err)
	}
	if err := c.breaker.Allow(); err != nil {
		c.failedRequests.Add(1)
		err = &NetworkError{Op: r.Method + " " + endpoint, Err: err}
		c.metrics.ObserveRequest(endpoint, metrics.Outcome(0, err), time.Since(start))
		log.Debug("Circuit open, request rejected")
		return nil, err
	}

	var resp *Response
	err := c.retry.Execute(ctx, func() error {
		res, err := c.exchange(ctx, r, requestID)
		if err != nil {
			log.WithError(err).Debug("Request attempt failed")
			return err
		}
		if res.StatusCode >= 500 {
			return &statusError{resp: res}
		}
		resp = res
		return nil
	})

	var se *statusError
	if errors.As(err, &se) {
		resp, err = se.resp, nil
	}
	c.breaker.Record(err)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.metrics.ObserveRequest(endpoint, metrics.Outcome(status, err), time.Since(start))

	if err != nil {
		c.failedRequests.Add(1)
		log.WithError(err).Warn("API request failed")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", r.Method, endpoint, err)
		}
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"status":      status,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("API request completed")
	return resp, nil
}

// exchange runs a single attempt. The fasthttp round trip runs on its own
// goroutine which owns the pooled request/response objects; if ctx ends
// first the caller returns immediately and the late result is dropped.
func (c *Client) exchange(ctx context.Context, r *Request, requestID string) (*Response, error) {
	type result struct {
		resp *Response
		err  error
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	target := c.resolve(r.Path)
	done := make(chan result, 1)

	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		c.buildRequest(req, r, target, requestID)

		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			done <- result{err: &NetworkError{Op: r.Method + " " + target, Err: err}}
			return
		}
		done <- result{resp: copyResponse(resp)}
	}()

	select {
	case res := <-done:
		return res.resp, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) buildRequest(req *fasthttp.Request, r *Request, target, requestID string) {
	req.SetRequestURI(target)
	method := r.Method
	if method == "" {
		method = fasthttp.MethodGet
	}
	req.Header.SetMethod(method)
	req.Header.SetUserAgent(c.userAgent)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-Request-ID", requestID)

	for k, v := range r.Headers {
		if strings.EqualFold(k, "Content-Type") {
			req.Header.SetContentType(v)
			continue
		}
		req.Header.Set(k, v)
	}
	if len(r.Body) > 0 {
		req.SetBody(r.Body)
	}
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func copyResponse(resp *fasthttp.Response) *Response {
	body, err := resp.BodyUncompressed()
	if err != nil {
		body = resp.Body()
	}
	header := make(map[string]string)
	resp.Header.VisitAll(func(k, v []byte) {
		header[string(k)] = string(v)
	})
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     header,
		Body:       append([]byte(nil), body...),
	}
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() CircuitState {
	return c.breaker.State()
}

// Stats returns the request counters.
func (c *Client) Stats() (total, failed uint64) {
	return c.totalRequests.Load(), c.failedRequests.Load()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
