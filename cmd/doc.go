// Package cmd implements the command-line interface for ticktask.
//
// This package provides the following commands:
//   - auth: Log in to TickTick, log out and show the login status
//   - task: Create, list, show, update, complete and delete tasks
//   - project: List, show, create, update and delete projects
//   - daily-plan: Show overdue and today's tasks in priority order
//   - batch-complete: Complete every open task matching a title pattern
//   - obsidian: Export the daily task log into an Obsidian vault
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
