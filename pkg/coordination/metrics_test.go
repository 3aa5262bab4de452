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

package coordination_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationmech/switkv/pkg/coordination"
	"github.com/innovationmech/switkv/pkg/coordination/coordtest"
)

func TestMetricsObserveRequests(t *testing.T) {
	agent := coordtest.RunT(t)

	reg := prometheus.NewRegistry()
	metrics, err := coordination.NewMetrics(reg)
	require.NoError(t, err)

	client, err := coordination.NewClient(&coordination.Config{
		Address: agent.Addr(),
		Metrics: metrics,
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, _, err = client.KV().PutString(ctx, "metrics/key", "v", nil)
	require.NoError(t, err)
	_, _, err = client.KV().Get(ctx, "metrics/key", nil)
	require.NoError(t, err)
	_, err = client.Status().Leader(ctx)
	require.NoError(t, err)

	// One series per endpoint/method/code combination.
	count, err := testutil.GatherAndCount(reg, "switkv_client_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	endpoints := make(map[string]struct{})
	for _, family := range families {
		if family.GetName() != "switkv_client_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
			for _, label := range metric.GetLabel() {
				if label.GetName() == "endpoint" {
					endpoints[label.GetValue()] = struct{}{}
				}
			}
		}
	}
	assert.Equal(t, float64(3), total)
	assert.Contains(t, endpoints, "kv")
	assert.Contains(t, endpoints, "status")

	count, err = testutil.GatherAndCount(reg, "switkv_client_request_duration_seconds")
	require.NoError(t, err)
	assert.NotZero(t, count)
}

func TestMetricsObserveFailedRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := coordination.NewMetrics(reg)
	require.NoError(t, err)

	client, err := coordination.NewClient(&coordination.Config{
		Address: "127.0.0.1:1",
		Metrics: metrics,
	})
	require.NoError(t, err)

	_, _, err = client.KV().Get(context.Background(), "unreachable", nil)
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var code string
	for _, family := range families {
		if family.GetName() != "switkv_client_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "code" {
					code = label.GetValue()
				}
			}
		}
	}
	assert.Equal(t, "error", code)
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := coordination.NewMetrics(reg)
	require.NoError(t, err)

	_, err = coordination.NewMetrics(reg)
	assert.Error(t, err)
}
