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
	"time"
)

// Session behaviors decide what happens to held locks when the session is
// invalidated.
const (
	// SessionBehaviorRelease releases held locks, leaving the keys in
	// place.
	SessionBehaviorRelease = "release"

	// SessionBehaviorDelete deletes the held keys outright.
	SessionBehaviorDelete = "delete"
)

// SessionEntry describes one session known to the agent.
type SessionEntry struct {
	CreateIndex uint64
	ID          string
	Name        string
	Node        string
	LockDelay   time.Duration
	Behavior    string
	TTL         string
	Checks      []string
}

// Session exposes the session endpoints of the agent.
type Session struct {
	c *Client
}

// Create registers a new session and returns its id. A nil entry creates a
// session with agent defaults; entry fields that are zero are left to the
// agent as well.
func (s *Session) Create(ctx context.Context, se *SessionEntry, w *WriteOptions) (string, *WriteMeta, error) {
	body := make(map[string]interface{})
	if se != nil {
		if se.Name != "" {
			body["Name"] = se.Name
		}
		if se.Node != "" {
			body["Node"] = se.Node
		}
		if se.LockDelay != 0 {
			body["LockDelay"] = durToMsec(se.LockDelay)
		}
		if se.Behavior != "" {
			body["Behavior"] = se.Behavior
		}
		if se.TTL != "" {
			body["TTL"] = se.TTL
		}
		if len(se.Checks) > 0 {
			body["Checks"] = se.Checks
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("encode session: %w", err)
	}

	params := url.Values{}
	headers := make(http.Header)
	s.c.setWriteParams(params, headers, w)

	resp, elapsed, err := s.c.doRequest(ctx, http.MethodPut, "/v1/session/create", params, headers, bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	if err := requireOK(resp); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	var out struct{ ID string }
	if err := decodeBody(resp, &out); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	return out.ID, &WriteMeta{RequestTime: elapsed}, nil
}

// Destroy invalidates the session with the given id. Locks it holds are
// released or their keys deleted according to the session behavior.
// Destroying an unknown session is not an error.
func (s *Session) Destroy(ctx context.Context, id string, w *WriteOptions) (*WriteMeta, error) {
	params := url.Values{}
	headers := make(http.Header)
	s.c.setWriteParams(params, headers, w)

	resp, elapsed, err := s.c.doRequest(ctx, http.MethodPut, "/v1/session/destroy/"+id, params, headers, nil)
	if err != nil {
		return nil, err
	}
	if err := requireOK(resp); err != nil {
		return nil, fmt.Errorf("destroy session %q: %w", id, err)
	}
	resp.Body.Close()
	return &WriteMeta{RequestTime: elapsed}, nil
}

// Info looks up a session by id, yielding nil when the agent does not know
// it.
func (s *Session) Info(ctx context.Context, id string, q *QueryOptions) (*SessionEntry, *QueryMeta, error) {
	params := url.Values{}
	headers := make(http.Header)
	s.c.setQueryParams(params, headers, q)

	resp, elapsed, err := s.c.doRequest(ctx, http.MethodGet, "/v1/session/info/"+id, params, headers, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOK(resp); err != nil {
		return nil, nil, fmt.Errorf("session info %q: %w", id, err)
	}

	meta, err := parseQueryMeta(resp, elapsed)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	var entries []*SessionEntry
	if err := decodeBody(resp, &entries); err != nil {
		return nil, nil, fmt.Errorf("session info %q: %w", id, err)
	}
	if len(entries) == 0 {
		return nil, meta, nil
	}
	return entries[0], meta, nil
}

// List yields every session known to the agent.
func (s *Session) List(ctx context.Context, q *QueryOptions) ([]*SessionEntry, *QueryMeta, error) {
	params := url.Values{}
	headers := make(http.Header)
	s.c.setQueryParams(params, headers, q)

	resp, elapsed, err := s.c.doRequest(ctx, http.MethodGet, "/v1/session/list", params, headers, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOK(resp); err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}

	meta, err := parseQueryMeta(resp, elapsed)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	var entries []*SessionEntry
	if err := decodeBody(resp, &entries); err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}
	return entries, meta, nil
}

// Renew resets the TTL clock of the session with the given id and returns
// its refreshed entry, nil when the session has already expired or never
// existed.
func (s *Session) Renew(ctx context.Context, id string, w *WriteOptions) (*SessionEntry, *WriteMeta, error) {
	params := url.Values{}
	headers := make(http.Header)
	s.c.setWriteParams(params, headers, w)

	resp, elapsed, err := s.c.doRequest(ctx, http.MethodPut, "/v1/session/renew/"+id, params, headers, nil)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, &WriteMeta{RequestTime: elapsed}, nil
	}
	if err := requireOK(resp); err != nil {
		return nil, nil, fmt.Errorf("renew session %q: %w", id, err)
	}

	var entries []*SessionEntry
	if err := decodeBody(resp, &entries); err != nil {
		return nil, nil, fmt.Errorf("renew session %q: %w", id, err)
	}
	if len(entries) == 0 {
		return nil, &WriteMeta{RequestTime: elapsed}, nil
	}
	return entries[0], &WriteMeta{RequestTime: elapsed}, nil
}
