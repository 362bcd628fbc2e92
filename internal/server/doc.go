// Package server provides the MCP server context and the HTTP transport for
// the ticktask MCP server.
//
// # Key Components
//
// ServerContext owns the task manager used by the MCP tools. The manager is
// built on first use so the server can start before the user has logged in;
// tools report a login hint until a token is available.
//
// HTTPServer serves the MCP streamable HTTP endpoint at /mcp together with
// health endpoints for liveness and readiness. It has no authentication of
// its own and therefore only binds loopback addresses unless told otherwise.
package server
