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

package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationmech/switkv/pkg/coordination/coordtest"
)

func runService(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewServiceCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestNewServiceCmd(t *testing.T) {
	cmd := NewServiceCmd()

	assert.Equal(t, "service", cmd.Use)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"register", "deregister", "list", "resolve"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestServiceRegisterListDeregister(t *testing.T) {
	agent := coordtest.RunT(t)
	viper.Set("agent.address", agent.Addr())

	runService(t, "register", "api", "--id", "api-1", "--address", "10.0.0.1", "--port", "8080", "--tag", "v1")

	out := runService(t, "list")
	assert.Contains(t, out, "api-1")
	assert.Contains(t, out, "10.0.0.1:8080")

	runService(t, "deregister", "api-1")

	out = runService(t, "list")
	assert.NotContains(t, out, "api-1")
}

func TestServiceResolve(t *testing.T) {
	agent := coordtest.RunT(t)
	viper.Set("agent.address", agent.Addr())

	for _, port := range []string{"8080", "8081"} {
		runService(t, "register", "api",
			"--id", "api-"+port,
			"--address", "10.0.0.1",
			"--port", port)
	}

	// Every invocation starts a fresh resolver, so the pick is just one
	// healthy instance, not a rotation across runs.
	out := strings.TrimSpace(runService(t, "resolve", "api"))
	assert.Contains(t, []string{"10.0.0.1:8080", "10.0.0.1:8081"}, out)
}

func TestServiceResolveRandom(t *testing.T) {
	agent := coordtest.RunT(t)
	viper.Set("agent.address", agent.Addr())

	runService(t, "register", "api", "--address", "10.0.0.9", "--port", "9090")

	out := strings.TrimSpace(runService(t, "resolve", "api", "--random"))
	assert.Equal(t, "10.0.0.9:9090", out)
}
