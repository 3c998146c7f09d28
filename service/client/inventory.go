// SPDX-License-Identifier: BSD-3-Clause

package client

import (
	"context"
	"fmt"
	"time"
)

// InventoryClient pushes host state, task, and uptime updates to the
// inventory service, and fetches/modifies host records.
type InventoryClient struct {
	http            *HTTPClient
	baseURL         string
	criticalTimeout time.Duration
	noncritTimeout  time.Duration
	retries         int
}

// NewInventoryClient creates an InventoryClient bound to baseURL.
func NewInventoryClient(baseURL string, criticalTimeout, noncritTimeout time.Duration, retries int) *InventoryClient {
	return &InventoryClient{
		http:            NewHTTPClient(criticalTimeout),
		baseURL:         baseURL,
		criticalTimeout: criticalTimeout,
		noncritTimeout:  noncritTimeout,
		retries:         retries,
	}
}

// HostStateUpdate is the PATCH payload for a state-triplet push.
type HostStateUpdate struct {
	Admin string `json:"administrative_state,omitempty"`
	Oper  string `json:"operational_state,omitempty"`
	Avail string `json:"availability_status,omitempty"`
	Task  string `json:"task,omitempty"`
}

// PushState patches a host's state triplet. It is a critical call: failures
// are retried up to the configured bound using sysinv_timeout.
func (c *InventoryClient) PushState(ctx context.Context, hostname string, update HostStateUpdate) error {
	req := &Request{
		Method:   "PATCH",
		URL:      fmt.Sprintf("%s/v1/ihosts/%s", c.baseURL, hostname),
		Payload:  update,
		Blocking: true,
		Retries:  c.retries,
	}
	return c.http.Do(ctx, req)
}

// PushUptime patches a host's reported uptime. Non-critical: uses
// sysinv_noncrit_timeout and the same retry bound.
func (c *InventoryClient) PushUptime(ctx context.Context, hostname string, uptimeSeconds int64) error {
	req := &Request{
		Method:   "PATCH",
		URL:      fmt.Sprintf("%s/v1/ihosts/%s", c.baseURL, hostname),
		Payload:  map[string]int64{"uptime": uptimeSeconds},
		Blocking: true,
		Retries:  c.retries,
	}
	return NewHTTPClient(c.noncritTimeout).Do(ctx, req)
}

// LoadHost fetches a host record by hostname.
func (c *InventoryClient) LoadHost(ctx context.Context, hostname string) ([]byte, error) {
	req := &Request{
		Method:   "GET",
		URL:      fmt.Sprintf("%s/v1/ihosts/%s", c.baseURL, hostname),
		Blocking: true,
		Retries:  c.retries,
	}
	if err := c.http.Do(ctx, req); err != nil {
		return nil, err
	}
	return req.Response, nil
}

// ModifyRootCredential pushes a new root credential signature for a host.
func (c *InventoryClient) ModifyRootCredential(ctx context.Context, hostname, signature string) error {
	req := &Request{
		Method:   "PATCH",
		URL:      fmt.Sprintf("%s/v1/ihosts/%s/root_sig", c.baseURL, hostname),
		Payload:  map[string]string{"signature": signature},
		Blocking: true,
		Retries:  c.retries,
	}
	return c.http.Do(ctx, req)
}
