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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// AgentServiceRegistration describes a service to register with the local
// agent.
type AgentServiceRegistration struct {
	ID      string             `json:",omitempty"`
	Name    string             `json:",omitempty"`
	Tags    []string           `json:",omitempty"`
	Port    int                `json:",omitempty"`
	Address string             `json:",omitempty"`
	Check   *AgentServiceCheck `json:",omitempty"`
}

// AgentServiceCheck describes the health check registered alongside a
// service. Interval-style durations are strings such as "10s", the format
// the agent expects.
type AgentServiceCheck struct {
	HTTP                           string `json:",omitempty"`
	TCP                            string `json:",omitempty"`
	Interval                       string `json:",omitempty"`
	Timeout                        string `json:",omitempty"`
	DeregisterCriticalServiceAfter string `json:",omitempty"`
}

// AgentService is a service as the agent reports it.
type AgentService struct {
	ID      string
	Service string
	Tags    []string
	Port    int
	Address string
}

// Agent exposes the local-agent endpoints.
type Agent struct {
	c *Client
}

// ServiceRegister adds a service, and its check when present, to the local
// agent catalog.
func (a *Agent) ServiceRegister(ctx context.Context, reg *AgentServiceRegistration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode service registration: %w", err)
	}

	params := url.Values{}
	headers := make(http.Header)
	a.c.setWriteParams(params, headers, nil)

	resp, _, err := a.c.doRequest(ctx, http.MethodPut, "/v1/agent/service/register", params, headers, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if err := requireOK(resp); err != nil {
		return fmt.Errorf("register service %q: %w", reg.Name, err)
	}
	resp.Body.Close()
	return nil
}

// ServiceDeregister removes the service with the given id from the local
// agent catalog.
func (a *Agent) ServiceDeregister(ctx context.Context, serviceID string) error {
	params := url.Values{}
	headers := make(http.Header)
	a.c.setWriteParams(params, headers, nil)

	resp, _, err := a.c.doRequest(ctx, http.MethodPut, "/v1/agent/service/deregister/"+serviceID, params, headers, nil)
	if err != nil {
		return err
	}
	if err := requireOK(resp); err != nil {
		return fmt.Errorf("deregister service %q: %w", serviceID, err)
	}
	resp.Body.Close()
	return nil
}

// Services lists the services registered with the local agent, keyed by
// service id.
func (a *Agent) Services(ctx context.Context) (map[string]*AgentService, error) {
	params := url.Values{}
	headers := make(http.Header)
	a.c.setQueryParams(params, headers, nil)

	resp, _, err := a.c.doRequest(ctx, http.MethodGet, "/v1/agent/services", params, headers, nil)
	if err != nil {
		return nil, err
	}
	if err := requireOK(resp); err != nil {
		return nil, fmt.Errorf("list agent services: %w", err)
	}

	var out map[string]*AgentService
	if err := decodeBody(resp, &out); err != nil {
		return nil, fmt.Errorf("list agent services: %w", err)
	}
	return out, nil
}
