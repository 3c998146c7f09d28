// SPDX-License-Identifier: BSD-3-Clause

package client

import (
	"context"
)

// VIMClient posts host state-change events to the virtual-infrastructure
// manager (spec.md §4.6).
type VIMClient struct {
	http    *HTTPClient
	baseURL string
	retries int
}

// NewVIMClient creates a VIMClient bound to baseURL.
func NewVIMClient(baseURL string, retries int) *VIMClient {
	return &VIMClient{http: NewHTTPClient(0), baseURL: baseURL, retries: retries}
}

// StateChangeEvent is the VIM's wire shape for a host state transition.
type StateChangeEvent struct {
	Hostname string `json:"hostname"`
	State    string `json:"state"` // enabled, disabled, failed, offline
}

// NotifyStateChange posts a host state-change event to the VIM.
func (c *VIMClient) NotifyStateChange(ctx context.Context, event StateChangeEvent) error {
	req := &Request{
		Method:  "POST",
		URL:     c.baseURL + "/v1/hosts/state-change",
		Payload: event,
		Retries: c.retries,
	}
	return c.http.Do(ctx, req)
}
