package api

import (
	"net"
	"time"

	"github.com/valyala/fasthttp"
)

// ConnectionConfig holds fasthttp connection settings.
type ConnectionConfig struct {
	MaxConnsPerHost     int           `json:"max_conns_per_host"`
	MaxIdleConnDuration time.Duration `json:"max_idle_conn_duration"`
	DialTimeout         time.Duration `json:"dial_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout"`
	MaxResponseBodySize int           `json:"max_response_body_size"`
}

// DefaultConnectionConfig suits an interactive client issuing one request
// per user action.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConnsPerHost:     16,
		MaxIdleConnDuration: 90 * time.Second,
		DialTimeout:         10 * time.Second,
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        30 * time.Second,
		MaxResponseBodySize: 16 << 20,
	}
}

// NewFastHTTPClient builds a reusable fasthttp client from the config.
func NewFastHTTPClient(config ConnectionConfig, userAgent string) *fasthttp.Client {
	defaults := DefaultConnectionConfig()
	if config.MaxConnsPerHost <= 0 {
		config.MaxConnsPerHost = defaults.MaxConnsPerHost
	}
	if config.MaxIdleConnDuration <= 0 {
		config.MaxIdleConnDuration = defaults.MaxIdleConnDuration
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = defaults.DialTimeout
	}
	if config.MaxResponseBodySize <= 0 {
		config.MaxResponseBodySize = defaults.MaxResponseBodySize
	}

	dialer := &fasthttp.TCPDialer{Concurrency: 0}
	dialTimeout := config.DialTimeout

	return &fasthttp.Client{
		Name:                userAgent,
		ReadTimeout:         config.ReadTimeout,
		WriteTimeout:        config.WriteTimeout,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		MaxIdleConnDuration: config.MaxIdleConnDuration,
		MaxResponseBodySize: config.MaxResponseBodySize,
		Dial: func(addr string) (net.Conn, error) {
			return dialer.DialTimeout(addr, dialTimeout)
		},
	}
}
