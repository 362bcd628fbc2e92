// Package resources provides read-only MCP resources for TickTick data:
// the project list, a single project with its tasks, and today's plan as
// markdown.
package resources
