// Package format renders tasks and projects for the terminal (lipgloss
// tables), as markdown, or as JSON.
package format
