// Package httpclient configures the HTTP clients used to call upstream services.
package httpclient

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// NewOutbound creates a new outbound http client
func NewOutbound() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   128,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

// NewRetrying wraps the outbound client with retries on connection errors,
// 429 and 5xx responses.
func NewRetrying(logger *slog.Logger, retryMax int, timeout time.Duration) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = NewOutbound()
	if timeout > 0 {
		rc.HTTPClient.Timeout = timeout
	}
	if retryMax < 0 {
		retryMax = 0
	}
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	if logger != nil {
		rc.Logger = logger
	}
	return rc
}
