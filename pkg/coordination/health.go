// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package coordination

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Health check states as the agent reports them.
const (
	HealthPassing  = "passing"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)

// Node identifies the agent node a service runs on.
type Node struct {
	Node    string
	Address string
}

// HealthCheck is one check result attached to a node or service.
type HealthCheck struct {
	Node        string
	CheckID     string
	Name        string
	Status      string
	Notes       string
	Output      string
	ServiceID   string
	ServiceName string
}

// ServiceEntry bundles a service instance with its node and check results.
type ServiceEntry struct {
	Node    *Node
	Service *AgentService
	Checks  []*HealthCheck
}

// Health exposes the health endpoints of the agent.
type Health struct {
	c *Client
}

// Service lists the instances of a service, optionally restricted to one
// tag and to instances whose checks all pass.
func (h *Health) Service(ctx context.Context, service, tag string, passingOnly bool, q *QueryOptions) ([]*ServiceEntry, *QueryMeta, error) {
	params := url.Values{}
	if tag != "" {
		params.Set("tag", tag)
	}
	if passingOnly {
		params.Set("passing", "1")
	}
	headers := make(http.Header)
	h.c.setQueryParams(params, headers, q)

	resp, elapsed, err := h.c.doRequest(ctx, http.MethodGet, "/v1/health/service/"+service, params, headers, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOK(resp); err != nil {
		return nil, nil, fmt.Errorf("health of service %q: %w", service, err)
	}

	meta, err := parseQueryMeta(resp, elapsed)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	var entries []*ServiceEntry
	if err := decodeBody(resp, &entries); err != nil {
		return nil, nil, fmt.Errorf("health of service %q: %w", service, err)
	}
	return entries, meta, nil
}
