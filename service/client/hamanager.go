// SPDX-License-Identifier: BSD-3-Clause

package client

import (
	"context"
	"fmt"
)

// HAManagerClient wraps calls to the HA service manager. Every call is a
// synchronous HTTP request that returns once the reply arrives:
// Enabled/Disabled/Locked/Unlocked notifications (NotifyState) are retried,
// Query and Swact are sent once. Simplex systems skip every call.
type HAManagerClient struct {
	http    *HTTPClient
	baseURL string
	simplex bool
	retries int
}

// NewHAManagerClient creates an HAManagerClient. simplex disables every
// method, matching the source's "simplex systems skip all HA calls" rule.
func NewHAManagerClient(baseURL string, simplex bool, retries int) *HAManagerClient {
	return &HAManagerClient{
		http:    NewHTTPClient(0),
		baseURL: baseURL,
		simplex: simplex,
		retries: retries,
	}
}

// ServicenodeEvent is the HA manager's wire shape for a host event.
type ServicenodeEvent struct {
	Origin string `json:"origin"`
	Action string `json:"action"`
	Admin  string `json:"admin"`
	Oper   string `json:"oper"`
	Avail  string `json:"avail"`
}

// Query asks the HA manager whether hostname has active services. It waits
// for the reply and returns req with the response filled in; it does not
// return before the request completes.
func (c *HAManagerClient) Query(ctx context.Context, hostname string) (*Request, error) {
	if c.simplex {
		return nil, ErrSimplexUnsupported
	}

	req := &Request{
		Method: "GET",
		URL:    fmt.Sprintf("%s/v1/servicenode/%s", c.baseURL, hostname),
	}
	if err := c.http.Do(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Swact requests a controller-activity swap away from hostname.
func (c *HAManagerClient) Swact(ctx context.Context, hostname string) error {
	if c.simplex {
		return ErrSimplexUnsupported
	}

	req := &Request{
		Method:  "POST",
		URL:     fmt.Sprintf("%s/v1/servicenode/%s/swact", c.baseURL, hostname),
		Payload: ServicenodeEvent{Origin: "mtce", Action: "swact"},
	}
	return c.http.Do(ctx, req)
}

// NotifyState pushes a blocking, retried Enabled/Disabled/Locked/Unlocked
// notification for hostname.
func (c *HAManagerClient) NotifyState(ctx context.Context, hostname string, event ServicenodeEvent) error {
	if c.simplex {
		return ErrSimplexUnsupported
	}

	req := &Request{
		Method:   "POST",
		URL:      fmt.Sprintf("%s/v1/servicenode/%s", c.baseURL, hostname),
		Payload:  event,
		Blocking: true,
		Retries:  c.retries,
	}
	return c.http.Do(ctx, req)
}
