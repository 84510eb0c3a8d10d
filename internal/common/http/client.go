// internal/common/http/client.go

// Package http wraps the standard client with the defaults every
// outbound call shares: a hard timeout and context propagation. The
// classifier is the only upstream today; anything new goes through the
// same client so a slow dependency can never hold a job past its budget.
package http

import (
	"context"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Do executes the request. Callers attach their context to the request;
// the client-level timeout still applies as an upper bound.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoWithContext binds ctx to the request before executing it.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
