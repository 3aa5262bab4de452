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

// Package coordination provides a thin HTTP client for a Consul-compatible
// coordination service: hierarchical key/value storage, sessions, and
// session-based locks, plus the agent, health and status endpoints needed
// for service discovery.
//
// The package owns transport and serialization only. All state lives in the
// external agent; absence of a key or session is reported as an empty
// result, never as an error.
package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// HTTPAddrEnvName names the environment variable that overrides the
	// default agent address.
	HTTPAddrEnvName = "SWITKV_HTTP_ADDR"

	// HTTPTokenEnvName names the environment variable that overrides the
	// default ACL token.
	HTTPTokenEnvName = "SWITKV_HTTP_TOKEN"

	// DefaultAddress is the agent address used when none is configured.
	DefaultAddress = "127.0.0.1:8500"
)

// Config holds the connection settings for a coordination agent.
type Config struct {
	// Address is the agent address as host:port.
	Address string

	// Scheme is the URI scheme to reach the agent, "http" or "https".
	Scheme string

	// Datacenter, when set, is sent with every request. The agent default
	// is used otherwise.
	Datacenter string

	// Token, when set, is sent as X-Consul-Token with every request.
	Token string

	// WaitTime caps how long blocking queries are held open by the agent
	// when QueryOptions does not say otherwise. Zero means the agent
	// default.
	WaitTime time.Duration

	// HTTPClient performs the requests. Blocking queries can legitimately
	// run for WaitTime, so the client must not carry a shorter timeout.
	HTTPClient *http.Client

	// Metrics, when set, records per-endpoint request counts and
	// latencies. Nil disables instrumentation.
	Metrics *Metrics

	// Logger, when set, logs every request at debug level. Nil keeps the
	// client silent.
	Logger *zap.Logger
}

// DefaultConfig returns a config pointing at a local agent, honoring the
// SWITKV_HTTP_ADDR and SWITKV_HTTP_TOKEN environment variables.
func DefaultConfig() *Config {
	config := &Config{
		Address:    DefaultAddress,
		Scheme:     "http",
		HTTPClient: &http.Client{},
	}

	if addr := os.Getenv(HTTPAddrEnvName); addr != "" {
		config.Address = addr
	}
	if token := os.Getenv(HTTPTokenEnvName); token != "" {
		config.Token = token
	}

	return config
}

// Client is a handle to the coordination agent. It is safe for concurrent
// use by multiple goroutines.
type Client struct {
	config Config
}

// NewClient creates a new agent client. A malformed address or scheme is
// reported here rather than on first use.
func NewClient(config *Config) (*Client, error) {
	defConfig := DefaultConfig()

	if config == nil {
		config = defConfig
	}
	if config.Address == "" {
		config.Address = defConfig.Address
	}
	if config.Scheme == "" {
		config.Scheme = defConfig.Scheme
	}
	if config.HTTPClient == nil {
		config.HTTPClient = defConfig.HTTPClient
	}

	// Accept addresses given as full URLs, e.g. from httptest.Server.URL.
	if strings.Contains(config.Address, "://") {
		parsed, err := url.Parse(config.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid agent address %q: %w", config.Address, err)
		}
		config.Scheme = parsed.Scheme
		config.Address = parsed.Host
	}

	if config.Scheme != "http" && config.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q: expected http or https", config.Scheme)
	}
	if _, _, err := net.SplitHostPort(config.Address); err != nil {
		return nil, fmt.Errorf("invalid agent address %q: %w", config.Address, err)
	}

	return &Client{config: *config}, nil
}

// KV returns a handle to the key/value endpoints.
func (c *Client) KV() *KV {
	return &KV{c: c}
}

// Session returns a handle to the session endpoints.
func (c *Client) Session() *Session {
	return &Session{c: c}
}

// Agent returns a handle to the agent endpoints.
func (c *Client) Agent() *Agent {
	return &Agent{c: c}
}

// Health returns a handle to the health endpoints.
func (c *Client) Health() *Health {
	return &Health{c: c}
}

// Status returns a handle to the status endpoints.
func (c *Client) Status() *Status {
	return &Status{c: c}
}

// QueryOptions tunes a single read against the agent.
type QueryOptions struct {
	// Datacenter overrides the configured datacenter for this query.
	Datacenter string

	// WaitIndex turns the query into a blocking query: the agent holds the
	// request until its index for the queried data exceeds WaitIndex or
	// WaitTime elapses.
	WaitIndex uint64

	// WaitTime caps a blocking query. Zero falls back to the config, then
	// to the agent default.
	WaitTime time.Duration

	// Token overrides the configured ACL token for this query.
	Token string
}

// WriteOptions tunes a single write against the agent.
type WriteOptions struct {
	// Datacenter overrides the configured datacenter for this write.
	Datacenter string

	// Token overrides the configured ACL token for this write.
	Token string
}

// QueryMeta carries the response metadata the agent attaches to reads.
type QueryMeta struct {
	// LastIndex is the index the result was generated at. Passing it back
	// as QueryOptions.WaitIndex blocks until the data changes.
	LastIndex uint64

	// LastContact is how long ago the responding server heard from the
	// leader.
	LastContact time.Duration

	// KnownLeader reports whether a leader was known when answering.
	KnownLeader bool

	// RequestTime is the client-side duration of the round-trip.
	RequestTime time.Duration
}

// WriteMeta carries the response metadata the agent attaches to writes.
type WriteMeta struct {
	// RequestTime is the client-side duration of the round-trip.
	RequestTime time.Duration
}

// doRequest performs one HTTP round-trip against the agent. The caller owns
// the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, headers http.Header, body io.Reader) (*http.Response, time.Duration, error) {
	u := url.URL{
		Scheme: c.config.Scheme,
		Host:   c.config.Address,
		Path:   path,
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if c.config.Token != "" {
		req.Header.Set("X-Consul-Token", c.config.Token)
	}
	for name, values := range headers {
		req.Header[name] = values
	}

	start := time.Now()
	resp, err := c.config.HTTPClient.Do(req)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if c.config.Metrics != nil {
		c.config.Metrics.observe(method, endpointLabel(path), status, elapsed)
	}
	if c.config.Logger != nil {
		c.config.Logger.Debug("Agent request completed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}
	if err != nil {
		return nil, elapsed, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, elapsed, nil
}

// endpointLabel reduces a request path to its endpoint family so metric
// label cardinality stays bounded regardless of key names.
func endpointLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/v1/")
	if i := strings.IndexByte(trimmed, '/'); i > 0 {
		return trimmed[:i]
	}
	return trimmed
}

// setQueryParams folds query options into the request parameters and
// headers.
func (c *Client) setQueryParams(params url.Values, headers http.Header, q *QueryOptions) {
	if c.config.Datacenter != "" {
		params.Set("dc", c.config.Datacenter)
	}
	wait := c.config.WaitTime
	if q != nil {
		if q.Datacenter != "" {
			params.Set("dc", q.Datacenter)
		}
		if q.WaitIndex > 0 {
			params.Set("index", strconv.FormatUint(q.WaitIndex, 10))
		}
		if q.WaitTime > 0 {
			wait = q.WaitTime
		}
		if q.Token != "" {
			headers.Set("X-Consul-Token", q.Token)
		}
	}
	if wait > 0 {
		params.Set("wait", durToMsec(wait))
	}
}

// setWriteParams folds write options into the request parameters and
// headers.
func (c *Client) setWriteParams(params url.Values, headers http.Header, w *WriteOptions) {
	if c.config.Datacenter != "" {
		params.Set("dc", c.config.Datacenter)
	}
	if w != nil {
		if w.Datacenter != "" {
			params.Set("dc", w.Datacenter)
		}
		if w.Token != "" {
			headers.Set("X-Consul-Token", w.Token)
		}
	}
}

// durToMsec renders a duration the way the agent expects wait values.
func durToMsec(d time.Duration) string {
	return fmt.Sprintf("%dms", d/time.Millisecond)
}

// requireOK returns an error when the response is not a 2xx, consuming and
// closing the body.
func requireOK(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	buf, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("unexpected response code %d: %s", resp.StatusCode, strings.TrimSpace(string(buf)))
}

// parseQueryMeta extracts the consistency metadata headers from a read
// response. Missing headers are tolerated; malformed ones are not.
func parseQueryMeta(resp *http.Response, requestTime time.Duration) (*QueryMeta, error) {
	meta := &QueryMeta{RequestTime: requestTime}
	header := resp.Header

	if raw := header.Get("X-Consul-Index"); raw != "" {
		index, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse X-Consul-Index %q: %w", raw, err)
		}
		meta.LastIndex = index
	}
	if raw := header.Get("X-Consul-LastContact"); raw != "" {
		last, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse X-Consul-LastContact %q: %w", raw, err)
		}
		meta.LastContact = time.Duration(last) * time.Millisecond
	}
	if raw := header.Get("X-Consul-KnownLeader"); raw != "" {
		known, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parse X-Consul-KnownLeader %q: %w", raw, err)
		}
		meta.KnownLeader = known
	}
	return meta, nil
}

// decodeBody decodes a JSON response body into out and closes it.
func decodeBody(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// parseBoolBody reads a bare "true"/"false" response body, the agent's
// answer format for KV writes.
func parseBoolBody(resp *http.Response) (bool, error) {
	defer resp.Body.Close()
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response body: %w", err)
	}
	res, err := strconv.ParseBool(strings.TrimSpace(string(buf)))
	if err != nil {
		return false, fmt.Errorf("unexpected response body %q: %w", strings.TrimSpace(string(buf)), err)
	}
	return res, nil
}
