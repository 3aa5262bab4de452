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

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationmech/switkv/pkg/coordination"
)

// resetConfigState resets global state between tests.
func resetConfigState() {
	cfg = nil
	once = sync.Once{}
	viper.Reset()
}

// chdirTemp moves the test into a fresh directory so stray switkv.yaml
// files cannot leak in.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(originalWd) })

	require.NoError(t, os.Chdir(tempDir))
	return tempDir
}

func TestGetConfig_Defaults(t *testing.T) {
	chdirTemp(t)
	resetConfigState()

	c := GetConfig()

	require.NotNil(t, c)
	assert.Equal(t, coordination.DefaultAddress, c.Agent.Address)
	assert.Equal(t, "http", c.Agent.Scheme)
	assert.Empty(t, c.Agent.Token)
	assert.Equal(t, "info", c.Log.Level)
	assert.False(t, c.Output.NoColor)
}

func TestGetConfig_ValidConfig(t *testing.T) {
	tempDir := chdirTemp(t)

	configContent := `agent:
  address: "10.0.0.9:8500"
  scheme: https
  token: secret-token
  datacenter: dc2
  waitTime: 30s
output:
  noColor: true
log:
  level: debug
`
	configFile := filepath.Join(tempDir, "switkv.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	resetConfigState()

	c := GetConfig()

	require.NotNil(t, c)
	assert.Equal(t, "10.0.0.9:8500", c.Agent.Address)
	assert.Equal(t, "https", c.Agent.Scheme)
	assert.Equal(t, "secret-token", c.Agent.Token)
	assert.Equal(t, "dc2", c.Agent.Datacenter)
	assert.Equal(t, "30s", c.Agent.WaitTime)
	assert.True(t, c.Output.NoColor)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestGetConfig_SingletonBehavior(t *testing.T) {
	chdirTemp(t)
	resetConfigState()

	c1 := GetConfig()
	c2 := GetConfig()
	c3 := GetConfig()

	assert.Same(t, c1, c2)
	assert.Same(t, c2, c3)
}

func TestGetConfig_ConcurrentAccess(t *testing.T) {
	chdirTemp(t)
	resetConfigState()

	const numGoroutines = 10
	configs := make([]*Config, numGoroutines)
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			configs[index] = GetConfig()
		}(i)
	}

	wg.Wait()

	for i := 1; i < numGoroutines; i++ {
		assert.Same(t, configs[0], configs[i])
	}
}

func TestGetConfig_EnvironmentOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SWITKV_AGENT_ADDRESS", "10.9.9.9:7500")
	t.Setenv("SWITKV_LOG_LEVEL", "warn")
	resetConfigState()

	c := GetConfig()

	assert.Equal(t, "10.9.9.9:7500", c.Agent.Address)
	assert.Equal(t, "warn", c.Log.Level)
}

func TestGetConfig_InvalidYAML(t *testing.T) {
	tempDir := chdirTemp(t)

	configFile := filepath.Join(tempDir, "switkv.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("agent: [not: valid"), 0644))

	resetConfigState()

	assert.Panics(t, func() {
		GetConfig()
	})
}

func TestClientConfig(t *testing.T) {
	c := &Config{}
	c.Agent.Address = "10.0.0.5:8500"
	c.Agent.Scheme = "https"
	c.Agent.Token = "tok"
	c.Agent.Datacenter = "dc1"
	c.Agent.WaitTime = "45s"

	clientConfig, err := c.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8500", clientConfig.Address)
	assert.Equal(t, "https", clientConfig.Scheme)
	assert.Equal(t, "tok", clientConfig.Token)
	assert.Equal(t, "dc1", clientConfig.Datacenter)
	assert.Equal(t, 45*time.Second, clientConfig.WaitTime)
}

func TestClientConfig_Defaults(t *testing.T) {
	c := &Config{}

	clientConfig, err := c.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, coordination.DefaultAddress, clientConfig.Address)
	assert.Equal(t, "http", clientConfig.Scheme)
	assert.Zero(t, clientConfig.WaitTime)
}

func TestClientConfig_InvalidWaitTime(t *testing.T) {
	c := &Config{}
	c.Agent.WaitTime = "not-a-duration"

	_, err := c.ClientConfig()
	assert.Error(t, err)
}
