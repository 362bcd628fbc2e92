// Package tasks_tools provides MCP tools for managing TickTick tasks and projects.
//
// # Available Tools
//
// Projects:
//   - ticktick_list_projects: List all projects
//   - ticktick_get_project: Show a project with its tasks
//   - ticktick_create_project: Create a project (write)
//
// Tasks:
//   - ticktick_list_tasks: List tasks filtered by project, due bucket, priority and status
//   - ticktick_get_task: Get a single task
//   - ticktick_create_task: Create a task from natural-language input (write)
//   - ticktick_update_task: Update title, content, due date or priority (write)
//   - ticktick_complete_task: Mark one or more tasks completed (write)
//   - ticktick_delete_task: Delete one or more tasks (write)
//
// Workflows:
//   - ticktick_daily_plan: Overdue, today and optionally tomorrow, sorted for planning
//   - ticktick_parse_date: Resolve a date phrase such as "next friday"
//   - ticktick_batch_complete: Complete open tasks matching a title pattern (write)
//   - ticktick_export_daily_log: Write the daily log into the Obsidian vault (write)
//
// Write tools are only registered when the server runs with --yolo.
// Projects can be referenced by ID or by name.
//
// # Authentication
//
// Tools use the token stored by `ticktask auth login`. Without one they
// return an error asking the user to log in.
package tasks_tools
