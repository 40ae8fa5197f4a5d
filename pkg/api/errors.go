package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NetworkError is a transport failure: unreachable host, reset connection,
// timeout. No HTTP status was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx response. Message holds the body's `error`
// field when present, otherwise the raw body text.
type UpstreamError struct {
	Status  int
	Message string
	Body    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// NewUpstreamError builds an UpstreamError from a response.
func NewUpstreamError(resp *Response) *UpstreamError {
	body := strings.TrimSpace(string(resp.Body))
	msg := ErrorMessage(resp.Body)
	if msg == "" {
		msg = body
	}
	return &UpstreamError{Status: resp.StatusCode, Message: msg, Body: body}
}

// ErrorMessage extracts the `error` (or `message`) field from a JSON error
// body. It returns "" when the body is not a JSON object or has neither.
func ErrorMessage(body []byte) string {
	var payload struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch v := payload.Error.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]interface{}:
		if m, ok := v["message"].(string); ok && m != "" {
			return m
		}
	}
	return payload.Message
}

// IsNetworkError reports whether err is, or wraps, a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	ErrorSeverityNone      ErrorSeverity = iota
	ErrorSeverityRetryable               // transport failure or 5xx
	ErrorSeverityFatal                   // 4xx, cancellation, anything else
)

// ClassifyError decides whether a failed attempt may be retried.
// Only network errors and 5xx responses are retryable; a 4xx will not
// change on a second attempt and cancellation must stop immediately.
func ClassifyError(err error) ErrorSeverity {
	if err == nil {
		return ErrorSeverityNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorSeverityFatal
	}
	var se *statusError
	if errors.As(err, &se) {
		if se.resp.StatusCode >= 500 {
			return ErrorSeverityRetryable
		}
		return ErrorSeverityFatal
	}
	if IsNetworkError(err) {
		return ErrorSeverityRetryable
	}
	return ErrorSeverityFatal
}

// statusError carries a 5xx response through the retry loop so it can be
// retried and, after the last attempt, handed back as a normal response.
type statusError struct {
	resp *Response
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.resp.StatusCode)
}
