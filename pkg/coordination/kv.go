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
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// KVPair is one entry of the key/value store. Value is nil for keys stored
// without a value; Session is empty unless a session holds the key's lock.
type KVPair struct {
	Key         string
	CreateIndex uint64
	ModifyIndex uint64
	LockIndex   uint64
	Flags       uint64
	Value       []byte
	Session     string `json:",omitempty"`
}

// KV exposes the key/value endpoints of the agent.
type KV struct {
	c *Client
}

// Put stores pair.Value under pair.Key with pair.Flags, reporting the
// agent's boolean verdict. A nil Value stores the key with no value.
func (k *KV) Put(ctx context.Context, pair *KVPair, w *WriteOptions) (bool, *WriteMeta, error) {
	params := url.Values{}
	if pair.Flags != 0 {
		params.Set("flags", strconv.FormatUint(pair.Flags, 10))
	}
	return k.put(ctx, pair.Key, params, pair.Value, w)
}

// PutString stores value under key with default flags.
func (k *KV) PutString(ctx context.Context, key, value string, w *WriteOptions) (bool, *WriteMeta, error) {
	return k.Put(ctx, &KVPair{Key: key, Value: []byte(value)}, w)
}

// CAS is a check-and-set Put: the write succeeds only when the key's
// current ModifyIndex equals pair.ModifyIndex (zero meaning the key must
// not exist yet).
func (k *KV) CAS(ctx context.Context, pair *KVPair, w *WriteOptions) (bool, *WriteMeta, error) {
	params := url.Values{}
	params.Set("cas", strconv.FormatUint(pair.ModifyIndex, 10))
	if pair.Flags != 0 {
		params.Set("flags", strconv.FormatUint(pair.Flags, 10))
	}
	return k.put(ctx, pair.Key, params, pair.Value, w)
}

// Acquire attempts to lock pair.Key with the session in pair.Session,
// storing pair.Value and pair.Flags on success. The key is created when
// missing. The agent answers false whenever any session, including this
// one, already holds the lock.
func (k *KV) Acquire(ctx context.Context, pair *KVPair, w *WriteOptions) (bool, *WriteMeta, error) {
	if pair.Session == "" {
		return false, nil, fmt.Errorf("acquire %q: missing session id", pair.Key)
	}
	params := url.Values{}
	params.Set("acquire", pair.Session)
	if pair.Flags != 0 {
		params.Set("flags", strconv.FormatUint(pair.Flags, 10))
	}
	return k.put(ctx, pair.Key, params, pair.Value, w)
}

// Release drops the lock on pair.Key held by the session in pair.Session.
// The agent answers false when that session is not the holder; the key and
// its value survive either way.
func (k *KV) Release(ctx context.Context, pair *KVPair, w *WriteOptions) (bool, *WriteMeta, error) {
	if pair.Session == "" {
		return false, nil, fmt.Errorf("release %q: missing session id", pair.Key)
	}
	params := url.Values{}
	params.Set("release", pair.Session)
	return k.put(ctx, pair.Key, params, nil, w)
}

func (k *KV) put(ctx context.Context, key string, params url.Values, value []byte, w *WriteOptions) (bool, *WriteMeta, error) {
	if err := validateKey(key); err != nil {
		return false, nil, err
	}

	headers := make(http.Header)
	k.c.setWriteParams(params, headers, w)

	resp, elapsed, err := k.c.doRequest(ctx, http.MethodPut, "/v1/kv/"+key, params, headers, bytes.NewReader(value))
	if err != nil {
		return false, nil, err
	}
	if err := requireOK(resp); err != nil {
		return false, nil, fmt.Errorf("put %q: %w", key, err)
	}

	res, err := parseBoolBody(resp)
	if err != nil {
		return false, nil, fmt.Errorf("put %q: %w", key, err)
	}
	return res, &WriteMeta{RequestTime: elapsed}, nil
}

// Get fetches the entry stored under key. A missing key yields a nil pair
// and a nil error.
func (k *KV) Get(ctx context.Context, key string, q *QueryOptions) (*KVPair, *QueryMeta, error) {
	entries, meta, err := k.getInternal(ctx, key, nil, q)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, meta, nil
	}
	return entries[0], meta, nil
}

// GetString fetches the value under key as a string. The boolean reports
// whether the key existed with a value; keys stored without a value read
// as absent here, use Get for the full record.
func (k *KV) GetString(ctx context.Context, key string, q *QueryOptions) (string, bool, error) {
	pair, _, err := k.Get(ctx, key, q)
	if err != nil {
		return "", false, err
	}
	if pair == nil || pair.Value == nil {
		return "", false, nil
	}
	return string(pair.Value), true, nil
}

// List fetches every entry whose key starts with prefix. A prefix with no
// entries yields an empty result and a nil error.
func (k *KV) List(ctx context.Context, prefix string, q *QueryOptions) ([]*KVPair, *QueryMeta, error) {
	return k.getInternal(ctx, prefix, url.Values{"recurse": {""}}, q)
}

// Keys fetches the key names under prefix. A non-empty separator collapses
// deeper levels the way directory listings do.
func (k *KV) Keys(ctx context.Context, prefix, separator string, q *QueryOptions) ([]string, *QueryMeta, error) {
	if err := validateKey(prefix); err != nil {
		return nil, nil, err
	}

	params := url.Values{"keys": {""}}
	if separator != "" {
		params.Set("separator", separator)
	}
	headers := make(http.Header)
	k.c.setQueryParams(params, headers, q)

	resp, elapsed, err := k.c.doRequest(ctx, http.MethodGet, "/v1/kv/"+prefix, params, headers, nil)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		meta, err := parseQueryMeta(resp, elapsed)
		return []string{}, meta, err
	}
	if err := requireOK(resp); err != nil {
		return nil, nil, fmt.Errorf("keys %q: %w", prefix, err)
	}

	meta, err := parseQueryMeta(resp, elapsed)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	var out []string
	if err := decodeBody(resp, &out); err != nil {
		return nil, nil, fmt.Errorf("keys %q: %w", prefix, err)
	}
	return out, meta, nil
}

// Delete removes the entry stored under key. Deleting a missing key is not
// an error.
func (k *KV) Delete(ctx context.Context, key string, w *WriteOptions) (*WriteMeta, error) {
	_, meta, err := k.deleteInternal(ctx, key, nil, w)
	return meta, err
}

// DeleteCAS is a check-and-set Delete, succeeding only when the key's
// current ModifyIndex equals pair.ModifyIndex.
func (k *KV) DeleteCAS(ctx context.Context, pair *KVPair, w *WriteOptions) (bool, *WriteMeta, error) {
	params := url.Values{}
	params.Set("cas", strconv.FormatUint(pair.ModifyIndex, 10))
	return k.deleteInternal(ctx, pair.Key, params, w)
}

// DeleteTree removes every entry whose key starts with prefix, the prefix
// key included.
func (k *KV) DeleteTree(ctx context.Context, prefix string, w *WriteOptions) (*WriteMeta, error) {
	_, meta, err := k.deleteInternal(ctx, prefix, url.Values{"recurse": {""}}, w)
	return meta, err
}

// LockSession reports the session currently holding the lock on key, empty
// when the key is missing or unlocked.
func (k *KV) LockSession(ctx context.Context, key string, q *QueryOptions) (string, *QueryMeta, error) {
	pair, meta, err := k.Get(ctx, key, q)
	if err != nil {
		return "", nil, err
	}
	if pair == nil {
		return "", meta, nil
	}
	return pair.Session, meta, nil
}

func (k *KV) getInternal(ctx context.Context, key string, params url.Values, q *QueryOptions) ([]*KVPair, *QueryMeta, error) {
	if err := validateKey(key); err != nil {
		return nil, nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	headers := make(http.Header)
	k.c.setQueryParams(params, headers, q)

	resp, elapsed, err := k.c.doRequest(ctx, http.MethodGet, "/v1/kv/"+key, params, headers, nil)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		meta, err := parseQueryMeta(resp, elapsed)
		return nil, meta, err
	}
	if err := requireOK(resp); err != nil {
		return nil, nil, fmt.Errorf("get %q: %w", key, err)
	}

	meta, err := parseQueryMeta(resp, elapsed)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	var entries []*KVPair
	if err := decodeBody(resp, &entries); err != nil {
		return nil, nil, fmt.Errorf("get %q: %w", key, err)
	}
	return entries, meta, nil
}

func (k *KV) deleteInternal(ctx context.Context, key string, params url.Values, w *WriteOptions) (bool, *WriteMeta, error) {
	if err := validateKey(key); err != nil {
		return false, nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	headers := make(http.Header)
	k.c.setWriteParams(params, headers, w)

	resp, elapsed, err := k.c.doRequest(ctx, http.MethodDelete, "/v1/kv/"+key, params, headers, nil)
	if err != nil {
		return false, nil, err
	}
	if err := requireOK(resp); err != nil {
		return false, nil, fmt.Errorf("delete %q: %w", key, err)
	}

	res, err := parseBoolBody(resp)
	if err != nil {
		return false, nil, fmt.Errorf("delete %q: %w", key, err)
	}
	return res, &WriteMeta{RequestTime: elapsed}, nil
}

// validateKey rejects keys the agent would misroute.
func validateKey(key string) error {
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid key %q: key must not begin with a '/'", key)
	}
	return nil
}
