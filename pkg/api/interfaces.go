package api

import "context"

// Request is one outbound call. Path is joined to the client's base URL
// unless it is already absolute.
type Request struct {
	Method   string
	Path     string
	Endpoint string // metrics/log label, defaults to Path
	Headers  map[string]string
	Body     []byte
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     map[string]string
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Doer executes requests against the backend.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}
