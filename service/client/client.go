// SPDX-License-Identifier: BSD-3-Clause

// Package client implements the maintenance core's external clients
// (spec.md §4.6, C5): thin builders over one traced HTTP helper, each
// carrying a per-request event with URL, payload, status, retries, a
// blocking flag, and the raw response body.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Request is one outgoing HTTP call and its outcome.
type Request struct {
	Method   string
	URL      string
	Payload  any
	Blocking bool
	Retries  int

	Status   int
	Response []byte
}

// HTTPClient issues the traced egress calls every external client in this
// package is built on top of.
type HTTPClient struct {
	hc *http.Client
}

// NewHTTPClient creates an HTTPClient with the given per-call timeout,
// instrumented with OpenTelemetry via otelhttp.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		hc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Do executes req against its target, retrying transient failures up to
// req.Retries times, and records the status and raw response body.
func (c *HTTPClient) Do(ctx context.Context, req *Request) error {
	var payload []byte
	if req.Payload != nil {
		var err error
		payload, err = json.Marshal(req.Payload)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncodeFailed, err)
		}
	}

	var lastErr error
	attempts := req.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRequestConstruction, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		req.Status = resp.StatusCode
		req.Response = data

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
			continue
		}

		return nil
	}

	return fmt.Errorf("%w: %w", ErrRequestFailed, lastErr)
}
