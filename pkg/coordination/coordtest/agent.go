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

// Package coordtest runs an in-process coordination agent for tests. It
// speaks the same HTTP surface the coordination client targets, so tests
// exercise real requests against a real listener without depending on an
// external agent, much like miniredis does for Redis clients.
//
//	agent := coordtest.RunT(t)
//	client, err := coordination.NewClient(&coordination.Config{Address: agent.Addr()})
package coordtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/innovationmech/switkv/pkg/coordination"
)

// defaultWait bounds blocking reads that carry an index but no explicit
// wait, matching the real agent's default.
const defaultWait = 5 * time.Minute

func init() {
	gin.SetMode(gin.TestMode)
}

// Agent is a fake coordination agent listening on a loopback port.
type Agent struct {
	store *store
	srv   *httptest.Server
	node  string
}

// Run starts an agent on a random loopback port. Callers own the
// shutdown via Stop.
func Run() (*Agent, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	a := &Agent{
		store: newStore(),
		node:  "coordtest",
	}
	a.srv = &httptest.Server{
		Listener: ln,
		Config:   &http.Server{Handler: a.routes()},
	}
	a.srv.Start()
	return a, nil
}

// RunT starts an agent bound to the test lifecycle; it stops when the
// test finishes.
func RunT(t testing.TB) *Agent {
	t.Helper()
	a, err := Run()
	if err != nil {
		t.Fatalf("start agent: %v", err)
	}
	t.Cleanup(a.Stop)
	return a
}

// Stop shuts the listener down.
func (a *Agent) Stop() {
	a.srv.Close()
}

// URL returns the base URL, scheme included.
func (a *Agent) URL() string {
	return a.srv.URL
}

// Addr returns the host:port the agent listens on.
func (a *Agent) Addr() string {
	return strings.TrimPrefix(a.srv.URL, "http://")
}

// NodeName returns the agent's node name as reported in sessions and
// health responses.
func (a *Agent) NodeName() string {
	return a.node
}

// SessionCount reports the number of live sessions, for test assertions.
func (a *Agent) SessionCount() int {
	return len(a.store.sessionList())
}

func (a *Agent) routes() *gin.Engine {
	engine := gin.New()
	v1 := engine.Group("/v1")

	v1.GET("/kv/*key", a.kvGet)
	v1.PUT("/kv/*key", a.kvPut)
	v1.DELETE("/kv/*key", a.kvDelete)

	v1.PUT("/session/create", a.sessionCreate)
	v1.PUT("/session/destroy/:id", a.sessionDestroy)
	v1.GET("/session/info/:id", a.sessionInfo)
	v1.GET("/session/list", a.sessionList)
	v1.PUT("/session/renew/:id", a.sessionRenew)

	v1.PUT("/agent/service/register", a.serviceRegister)
	v1.PUT("/agent/service/deregister/:id", a.serviceDeregister)
	v1.GET("/agent/services", a.agentServices)

	v1.GET("/health/service/:service", a.healthService)

	v1.GET("/status/leader", a.statusLeader)
	v1.GET("/status/peers", a.statusPeers)

	return engine
}

// kvKey recovers the key from the wildcard route parameter, which always
// carries a leading slash.
func kvKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}

func setMetaHeaders(c *gin.Context, index uint64) {
	c.Header("X-Consul-Index", strconv.FormatUint(index, 10))
	c.Header("X-Consul-KnownLeader", "true")
	c.Header("X-Consul-LastContact", "0")
}

// blockFor implements blocking reads: when the request carries an index,
// the response is held back until the result index moves past it or the
// wait expires. The returned value is the index to report.
func (a *Agent) blockFor(c *gin.Context, index func() uint64) uint64 {
	raw := c.Query("index")
	if raw == "" {
		return index()
	}
	waitIndex, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return index()
	}

	wait := defaultWait
	if w := c.Query("wait"); w != "" {
		if parsed, err := time.ParseDuration(w); err == nil {
			wait = parsed
		}
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	for {
		current := index()
		if current > waitIndex {
			return current
		}
		ch := a.store.watchChan()
		// Recheck after grabbing the channel; a write may have landed
		// between the index read and now.
		if current = index(); current > waitIndex {
			return current
		}
		select {
		case <-ch:
		case <-deadline.C:
			return index()
		case <-c.Request.Context().Done():
			return index()
		}
	}
}

func (a *Agent) kvGet(c *gin.Context) {
	key := kvKey(c)
	query := c.Request.URL.Query()
	recurse := query.Has("recurse")

	index := a.blockFor(c, func() uint64 {
		return a.store.resultIndex(key, recurse || query.Has("keys"))
	})
	setMetaHeaders(c, index)

	switch {
	case query.Has("keys"):
		c.JSON(http.StatusOK, a.store.keys(key, c.Query("separator")))
	case recurse:
		pairs := a.store.list(key)
		if len(pairs) == 0 {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, pairs)
	default:
		pair, ok := a.store.get(key)
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, []*coordination.KVPair{pair})
	}
}

func (a *Agent) kvPut(c *gin.Context) {
	key := kvKey(c)
	query := c.Request.URL.Query()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "body read failed: %v", err)
		return
	}
	// A bodiless put stores a key with no value at all, which reads back
	// as a null value rather than an empty one.
	var value []byte
	if len(body) > 0 {
		value = body
	}

	var flags uint64
	if raw := c.Query("flags"); raw != "" {
		flags, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.String(http.StatusBadRequest, "invalid flags: %v", err)
			return
		}
	}

	switch {
	case query.Has("acquire"):
		ok, err := a.store.acquire(key, value, flags, c.Query("acquire"))
		if err != nil {
			c.String(http.StatusInternalServerError, "%v", err)
			return
		}
		c.JSON(http.StatusOK, ok)
	case query.Has("release"):
		c.JSON(http.StatusOK, a.store.release(key, c.Query("release")))
	case query.Has("cas"):
		cas, err := strconv.ParseUint(c.Query("cas"), 10, 64)
		if err != nil {
			c.String(http.StatusBadRequest, "invalid cas: %v", err)
			return
		}
		c.JSON(http.StatusOK, a.store.putCAS(key, value, flags, cas))
	default:
		c.JSON(http.StatusOK, a.store.put(key, value, flags))
	}
}

func (a *Agent) kvDelete(c *gin.Context) {
	key := kvKey(c)
	query := c.Request.URL.Query()

	switch {
	case query.Has("recurse"):
		a.store.deleteTree(key)
		c.JSON(http.StatusOK, true)
	case query.Has("cas"):
		cas, err := strconv.ParseUint(c.Query("cas"), 10, 64)
		if err != nil {
			c.String(http.StatusBadRequest, "invalid cas: %v", err)
			return
		}
		c.JSON(http.StatusOK, a.store.deleteCAS(key, cas))
	default:
		a.store.delete(key)
		c.JSON(http.StatusOK, true)
	}
}

// sessionCreateRequest tolerates both encodings of LockDelay the wire
// allows: a duration string such as "15000ms" and a bare nanosecond
// count.
type sessionCreateRequest struct {
	Name      string
	Node      string
	LockDelay json.RawMessage
	Behavior  string
	TTL       string
	Checks    []string
}

func (r *sessionCreateRequest) lockDelay() time.Duration {
	if len(r.LockDelay) == 0 {
		return 0
	}
	var text string
	if err := json.Unmarshal(r.LockDelay, &text); err == nil {
		if d, err := time.ParseDuration(text); err == nil {
			return d
		}
		return 0
	}
	var ns int64
	if err := json.Unmarshal(r.LockDelay, &ns); err == nil {
		return time.Duration(ns)
	}
	return 0
}

func (a *Agent) sessionCreate(c *gin.Context) {
	var req sessionCreateRequest
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "body read failed: %v", err)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			c.String(http.StatusBadRequest, "invalid session request: %v", err)
			return
		}
	}

	created := a.store.createSession(&coordination.SessionEntry{
		Name:      req.Name,
		Node:      req.Node,
		LockDelay: req.lockDelay(),
		Behavior:  req.Behavior,
		TTL:       req.TTL,
		Checks:    req.Checks,
	}, a.node)

	c.JSON(http.StatusOK, gin.H{"ID": created.ID})
}

func (a *Agent) sessionDestroy(c *gin.Context) {
	a.store.destroySession(c.Param("id"))
	c.JSON(http.StatusOK, true)
}

func (a *Agent) sessionInfo(c *gin.Context) {
	setMetaHeaders(c, a.store.resultIndex("", true))
	session, ok := a.store.sessionInfo(c.Param("id"))
	if !ok {
		c.JSON(http.StatusOK, []*coordination.SessionEntry{})
		return
	}
	c.JSON(http.StatusOK, []*coordination.SessionEntry{session})
}

func (a *Agent) sessionList(c *gin.Context) {
	setMetaHeaders(c, a.store.resultIndex("", true))
	c.JSON(http.StatusOK, a.store.sessionList())
}

func (a *Agent) sessionRenew(c *gin.Context) {
	session, ok := a.store.sessionInfo(c.Param("id"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, []*coordination.SessionEntry{session})
}

func (a *Agent) serviceRegister(c *gin.Context) {
	var reg coordination.AgentServiceRegistration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.String(http.StatusBadRequest, "invalid registration: %v", err)
		return
	}
	if reg.Name == "" {
		c.String(http.StatusBadRequest, "missing service name")
		return
	}
	a.store.registerService(&reg)
	c.Status(http.StatusOK)
}

func (a *Agent) serviceDeregister(c *gin.Context) {
	a.store.deregisterService(c.Param("id"))
	c.Status(http.StatusOK)
}

func (a *Agent) agentServices(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.agentServices())
}

func (a *Agent) healthService(c *gin.Context) {
	setMetaHeaders(c, a.store.resultIndex("", true))
	entries := a.store.healthService(c.Param("service"), c.Query("tag"), a.node)
	if entries == nil {
		entries = []*coordination.ServiceEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (a *Agent) statusLeader(c *gin.Context) {
	c.JSON(http.StatusOK, "127.0.0.1:8300")
}

func (a *Agent) statusPeers(c *gin.Context) {
	c.JSON(http.StatusOK, []string{"127.0.0.1:8300"})
}
