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

package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/innovationmech/switkv/pkg/coordination"
	"github.com/innovationmech/switkv/pkg/coordination/coordtest"
)

func newAgentClient(t *testing.T) (*coordtest.Agent, *coordination.Client) {
	t.Helper()
	agent := coordtest.RunT(t)
	client, err := coordination.NewClient(&coordination.Config{Address: agent.Addr()})
	require.NoError(t, err)
	return agent, client
}

func TestNewSnapshotCmd(t *testing.T) {
	cmd := NewSnapshotCmd()

	assert.Equal(t, "snapshot", cmd.Use)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["save"])
	assert.True(t, names["restore"])
}

func TestSnapshotSaveWritesYAML(t *testing.T) {
	agent, client := newAgentClient(t)
	viper.Set("agent.address", agent.Addr())

	key := "snap/" + uuid.NewString()
	_, _, err := client.KV().Put(context.Background(), &coordination.KVPair{
		Key:   key,
		Value: []byte("payload"),
		Flags: 3,
	}, nil)
	require.NoError(t, err)

	// A valueless entry must survive the round trip as valueless.
	bare := "snap/" + uuid.NewString()
	_, _, err = client.KV().Put(context.Background(), &coordination.KVPair{Key: bare}, nil)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "snap.yaml")
	cmd := NewSnapshotCmd()
	cmd.SetArgs([]string{"save", file})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var snap snapshotFile
	require.NoError(t, yaml.Unmarshal(data, &snap))
	require.Len(t, snap.Entries, 2)

	byKey := make(map[string]snapshotEntry)
	for _, entry := range snap.Entries {
		byKey[entry.Key] = entry
	}
	require.NotNil(t, byKey[key].Value)
	assert.Equal(t, "payload", *byKey[key].Value)
	assert.Equal(t, uint64(3), byKey[key].Flags)
	assert.Nil(t, byKey[bare].Value)
}

func TestSnapshotRestore(t *testing.T) {
	agent, client := newAgentClient(t)
	viper.Set("agent.address", agent.Addr())

	key := "snap/" + uuid.NewString()
	bare := "snap/" + uuid.NewString()
	value := "payload"
	snap := snapshotFile{Entries: []snapshotEntry{
		{Key: key, Value: &value, Flags: 5},
		{Key: bare},
	}}
	data, err := yaml.Marshal(&snap)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "snap.yaml")
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cmd := NewSnapshotCmd()
	cmd.SetArgs([]string{"restore", file})
	require.NoError(t, cmd.Execute())

	pair, _, err := client.KV().Get(context.Background(), key, nil)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, []byte("payload"), pair.Value)
	assert.Equal(t, uint64(5), pair.Flags)

	pair, _, err = client.KV().Get(context.Background(), bare, nil)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Nil(t, pair.Value)
}

func TestSnapshotSavePrefixFilter(t *testing.T) {
	agent, client := newAgentClient(t)
	viper.Set("agent.address", agent.Addr())

	keep := "snap/keep/" + uuid.NewString()
	skip := "snap/skip/" + uuid.NewString()
	for _, k := range []string{keep, skip} {
		_, _, err := client.KV().PutString(context.Background(), k, "v", nil)
		require.NoError(t, err)
	}

	file := filepath.Join(t.TempDir(), "snap.yaml")
	cmd := NewSnapshotCmd()
	cmd.SetArgs([]string{"save", file, "--prefix", "snap/keep/"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), keep)
	assert.NotContains(t, string(data), skip)
}
