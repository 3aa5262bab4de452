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

package coordtest

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/innovationmech/switkv/pkg/coordination"
)

// store holds the fake agent's state behind one lock. Every mutation bumps
// the global index and wakes blocked watchers, mirroring how the real
// agent's Raft index drives blocking queries.
type store struct {
	mu        sync.Mutex
	lastIndex uint64
	entries   map[string]*kvEntry
	sessions  map[string]*coordination.SessionEntry
	services  map[string]*coordination.AgentServiceRegistration
	watch     chan struct{}
}

type kvEntry struct {
	key         string
	value       []byte
	flags       uint64
	session     string
	createIndex uint64
	modifyIndex uint64
	lockIndex   uint64
}

func newStore() *store {
	return &store{
		lastIndex: 1,
		entries:   make(map[string]*kvEntry),
		sessions:  make(map[string]*coordination.SessionEntry),
		services:  make(map[string]*coordination.AgentServiceRegistration),
		watch:     make(chan struct{}),
	}
}

// nextIndexLocked bumps the global index. Callers hold mu.
func (s *store) nextIndexLocked() uint64 {
	s.lastIndex++
	return s.lastIndex
}

// notifyLocked wakes every blocked watcher. Callers hold mu.
func (s *store) notifyLocked() {
	close(s.watch)
	s.watch = make(chan struct{})
}

// watchChan returns the channel closed on the next mutation.
func (s *store) watchChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watch
}

// pair renders an entry in wire shape. Callers hold mu.
func (e *kvEntry) pair() *coordination.KVPair {
	return &coordination.KVPair{
		Key:         e.key,
		CreateIndex: e.createIndex,
		ModifyIndex: e.modifyIndex,
		LockIndex:   e.lockIndex,
		Flags:       e.flags,
		Value:       e.value,
		Session:     e.session,
	}
}

func (s *store) put(key string, value []byte, flags uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.nextIndexLocked()
	entry, ok := s.entries[key]
	if !ok {
		entry = &kvEntry{key: key, createIndex: index}
		s.entries[key] = entry
	}
	entry.value = value
	entry.flags = flags
	entry.modifyIndex = index
	s.notifyLocked()
	return true
}

func (s *store) putCAS(key string, value []byte, flags, cas uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		if cas != 0 {
			return false
		}
		index := s.nextIndexLocked()
		s.entries[key] = &kvEntry{
			key:         key,
			value:       value,
			flags:       flags,
			createIndex: index,
			modifyIndex: index,
		}
		s.notifyLocked()
		return true
	}
	if cas != entry.modifyIndex {
		return false
	}
	entry.value = value
	entry.flags = flags
	entry.modifyIndex = s.nextIndexLocked()
	s.notifyLocked()
	return true
}

// acquire locks key for the session, creating the key when missing. The
// answer is false whenever any session, including the caller's own,
// already holds the lock.
func (s *store) acquire(key string, value []byte, flags uint64, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false, fmt.Errorf("invalid session %q", sessionID)
	}

	entry, ok := s.entries[key]
	if !ok {
		index := s.nextIndexLocked()
		s.entries[key] = &kvEntry{
			key:         key,
			value:       value,
			flags:       flags,
			session:     sessionID,
			createIndex: index,
			modifyIndex: index,
			lockIndex:   1,
		}
		s.notifyLocked()
		return true, nil
	}
	if entry.session != "" {
		return false, nil
	}
	entry.value = value
	entry.flags = flags
	entry.session = sessionID
	entry.lockIndex++
	entry.modifyIndex = s.nextIndexLocked()
	s.notifyLocked()
	return true, nil
}

// release clears the lock on key when sessionID is the holder. The key and
// its value stay in place.
func (s *store) release(key, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.session != sessionID {
		return false
	}
	entry.session = ""
	entry.modifyIndex = s.nextIndexLocked()
	s.notifyLocked()
	return true
}

func (s *store) get(key string) (*coordination.KVPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return entry.pair(), true
}

func (s *store) list(prefix string) []*coordination.KVPair {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*coordination.KVPair
	for key, entry := range s.entries {
		if strings.HasPrefix(key, prefix) {
			out = append(out, entry.pair())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *store) keys(prefix, separator string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for key := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := key
		if separator != "" {
			rest := key[len(prefix):]
			if i := strings.Index(rest, separator); i >= 0 {
				name = key[:len(prefix)+i+len(separator)]
			}
		}
		seen[name] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *store) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		delete(s.entries, key)
	}
	s.nextIndexLocked()
	s.notifyLocked()
}

func (s *store) deleteCAS(key string, cas uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return cas == 0
	}
	if cas != entry.modifyIndex {
		return false
	}
	delete(s.entries, key)
	s.nextIndexLocked()
	s.notifyLocked()
	return true
}

func (s *store) deleteTree(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.nextIndexLocked()
	s.notifyLocked()
}

// resultIndex reports the index a read of key (or of the subtree under it,
// when recurse is set) would carry, the value blocking queries compare
// against.
func (s *store) resultIndex(key string, recurse bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if recurse {
		var max uint64
		for k, entry := range s.entries {
			if strings.HasPrefix(k, key) && entry.modifyIndex > max {
				max = entry.modifyIndex
			}
		}
		if max > 0 {
			return max
		}
		return s.lastIndex
	}
	if entry, ok := s.entries[key]; ok {
		return entry.modifyIndex
	}
	return s.lastIndex
}

func (s *store) createSession(entry *coordination.SessionEntry, node string) *coordination.SessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := &coordination.SessionEntry{
		ID:          uuid.New().String(),
		Name:        entry.Name,
		Node:        node,
		LockDelay:   entry.LockDelay,
		Behavior:    entry.Behavior,
		TTL:         entry.TTL,
		Checks:      entry.Checks,
		CreateIndex: s.nextIndexLocked(),
	}
	if entry.Node != "" {
		created.Node = entry.Node
	}
	if created.Behavior == "" {
		created.Behavior = coordination.SessionBehaviorRelease
	}
	if created.LockDelay == 0 {
		created.LockDelay = 15 * time.Second
	}

	s.sessions[created.ID] = created
	s.notifyLocked()
	return created
}

// destroySession forgets the session and settles its locks according to
// the session behavior.
func (s *store) destroySession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)

	index := s.nextIndexLocked()
	for key, entry := range s.entries {
		if entry.session != id {
			continue
		}
		if session.Behavior == coordination.SessionBehaviorDelete {
			delete(s.entries, key)
			continue
		}
		entry.session = ""
		entry.modifyIndex = index
	}
	s.notifyLocked()
}

func (s *store) sessionInfo(id string) (*coordination.SessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	copied := *session
	return &copied, true
}

func (s *store) sessionList() []*coordination.SessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*coordination.SessionEntry, 0, len(s.sessions))
	for _, session := range s.sessions {
		copied := *session
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreateIndex < out[j].CreateIndex })
	return out
}

func (s *store) registerService(reg *coordination.AgentServiceRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := reg.ID
	if id == "" {
		id = reg.Name
	}
	copied := *reg
	copied.ID = id
	s.services[id] = &copied
	s.nextIndexLocked()
	s.notifyLocked()
}

func (s *store) deregisterService(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.services, id)
	s.nextIndexLocked()
	s.notifyLocked()
}

func (s *store) agentServices() map[string]*coordination.AgentService {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*coordination.AgentService, len(s.services))
	for id, reg := range s.services {
		out[id] = &coordination.AgentService{
			ID:      id,
			Service: reg.Name,
			Tags:    append([]string(nil), reg.Tags...),
			Port:    reg.Port,
			Address: reg.Address,
		}
	}
	return out
}

// healthService lists registered instances of a service. The fake agent
// runs no checks, so every instance reports one synthetic passing check
// and passingOnly never filters anything out.
func (s *store) healthService(name, tag, node string) []*coordination.ServiceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*coordination.ServiceEntry
	for id, reg := range s.services {
		if reg.Name != name {
			continue
		}
		if tag != "" && !containsTag(reg.Tags, tag) {
			continue
		}
		out = append(out, &coordination.ServiceEntry{
			Node: &coordination.Node{Node: node, Address: "127.0.0.1"},
			Service: &coordination.AgentService{
				ID:      id,
				Service: reg.Name,
				Tags:    append([]string(nil), reg.Tags...),
				Port:    reg.Port,
				Address: reg.Address,
			},
			Checks: []*coordination.HealthCheck{
				{
					Node:        node,
					CheckID:     "service:" + id,
					Name:        "Service '" + reg.Name + "' check",
					Status:      coordination.HealthPassing,
					ServiceID:   id,
					ServiceName: reg.Name,
				},
			},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service.ID < out[j].Service.ID })
	return out
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
