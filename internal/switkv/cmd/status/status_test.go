package status

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationmech/switkv/pkg/coordination/coordtest"
)

func runStatus(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewStatusCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestNewStatusCmd(t *testing.T) {
	cmd := NewStatusCmd()

	assert.Equal(t, "status", cmd.Use)
	assert.Len(t, cmd.Commands(), 2)
}

func TestStatusLeader(t *testing.T) {
	agent := coordtest.RunT(t)
	viper.Set("agent.address", agent.Addr())

	out := runStatus(t, "leader")
	assert.Equal(t, "127.0.0.1:8300\n", out)
}

func TestStatusPeers(t *testing.T) {
	agent := coordtest.RunT(t)
	viper.Set("agent.address", agent.Addr())

	out := runStatus(t, "peers")
	assert.Contains(t, out, "127.0.0.1:8300")
}
