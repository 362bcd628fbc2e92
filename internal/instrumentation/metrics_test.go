package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collectNames(t *testing.T, reader *metric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestMetrics_RecordAPIRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAPIRequest(ctx, "GET", "/project", 200, 100*time.Millisecond)
	m.RecordAPIRequest(ctx, "POST", "/task", 500, 50*time.Millisecond)

	names := collectNames(t, reader)
	assert.True(t, names["ticktick_api_requests_total"])
	assert.True(t, names["ticktick_api_request_duration_seconds"])
}

func TestMetrics_RecordOAuth(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthAuth(ctx, OAuthResultTimeout)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)

	names := collectNames(t, reader)
	assert.True(t, names["oauth_auth_total"])
	assert.True(t, names["oauth_token_refresh_total"])
}

func TestMetrics_RecordQueryAndTool(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordQueryMatches(ctx, "today", 3)
	m.RecordToolInvocation(ctx, "ticktick_list_tasks", StatusSuccess, 10*time.Millisecond)

	names := collectNames(t, reader)
	assert.True(t, names["query_tasks_matched"])
	assert.True(t, names["mcp_tool_invocations_total"])
	assert.True(t, names["mcp_tool_duration_seconds"])
}

func TestMetrics_NoOp(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	zero := &Metrics{}

	for _, m := range []*Metrics{nilMetrics, zero} {
		assert.NotPanics(t, func() {
			m.RecordAPIRequest(ctx, "GET", "/project", 200, time.Millisecond)
			m.RecordOAuthAuth(ctx, OAuthResultSuccess)
			m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
			m.RecordQueryMatches(ctx, "overdue", 0)
			m.RecordToolInvocation(ctx, "tool", StatusError, time.Millisecond)
		})
	}
}
