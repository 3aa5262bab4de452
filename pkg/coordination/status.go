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

// Status exposes the status endpoints of the agent's cluster.
type Status struct {
	c *Client
}

// Leader reports the Raft leader address, empty when no leader is known.
func (s *Status) Leader(ctx context.Context) (string, error) {
	resp, _, err := s.c.doRequest(ctx, http.MethodGet, "/v1/status/leader", url.Values{}, nil, nil)
	if err != nil {
		return "", err
	}
	if err := requireOK(resp); err != nil {
		return "", fmt.Errorf("status leader: %w", err)
	}

	var leader string
	if err := decodeBody(resp, &leader); err != nil {
		return "", fmt.Errorf("status leader: %w", err)
	}
	return leader, nil
}

// Peers reports the Raft peer addresses of the cluster.
func (s *Status) Peers(ctx context.Context) ([]string, error) {
	resp, _, err := s.c.doRequest(ctx, http.MethodGet, "/v1/status/peers", url.Values{}, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := requireOK(resp); err != nil {
		return nil, fmt.Errorf("status peers: %w", err)
	}

	var peers []string
	if err := decodeBody(resp, &peers); err != nil {
		return nil, fmt.Errorf("status peers: %w", err)
	}
	return peers, nil
}
