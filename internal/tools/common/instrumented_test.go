package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/ticktask/internal/instrumentation"
	"github.com/teemow/ticktask/internal/server"
)

func newTestContext(t *testing.T) (*server.ServerContext, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := instrumentation.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	sc := server.NewServerContext(context.Background(), nil, server.WithMetrics(m))
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, reader
}

// invocationStatuses returns the status attribute of each recorded tool invocation.
func invocationStatuses(t *testing.T, reader *metric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				out[status.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc, reader := newTestContext(t)

	called := false
	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, result.IsError)
	assert.Equal(t, map[string]int64{instrumentation.StatusSuccess: 1}, invocationStatuses(t, reader))
}

func TestInstrumentedToolHandler_Errors(t *testing.T) {
	sc, reader := newTestContext(t)

	failing := InstrumentedToolHandler("failing", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("boom")
	})
	errResult := InstrumentedToolHandler("error_result", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("bad input"), nil
	})

	_, err := failing(context.Background(), mcp.CallToolRequest{})
	assert.Error(t, err)

	result, err := errResult(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	assert.Equal(t, map[string]int64{instrumentation.StatusError: 2}, invocationStatuses(t, reader))
}

func TestInstrumentedToolHandler_WithoutMetrics(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil)
	defer func() { _ = sc.Shutdown() }()

	wrapped := InstrumentedToolHandler("plain", sc, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.NotNil(t, result)
}
