// Package instrumentation provides OpenTelemetry instrumentation for ticktask.
//
// Telemetry is opt-in. When enabled it records:
//
// TickTick API Metrics:
//   - ticktick_api_requests_total: Counter of resource API requests by method, endpoint and status
//   - ticktick_api_request_duration_seconds: Histogram of resource API request durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of interactive logins by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// Spans are created for the login flow (auth.login, auth.exchange, auth.refresh),
// every resource API call (ticktick.<method> <endpoint>) and every MCP tool call.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable instrumentation (default: false)
//   - METRICS_EXPORTER: prometheus, otlp, stdout or none (default: none)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_EXPORTER_OTLP_INSECURE: Use plain HTTP for OTLP (default: false)
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - OTEL_SERVICE_NAME: Service name (default: ticktask)
//
// The stdout exporters write to stderr so command output stays machine readable.
// The prometheus exporter keeps its own registry; `serve --transport
// streamable-http` exposes it on /metrics.
package instrumentation
