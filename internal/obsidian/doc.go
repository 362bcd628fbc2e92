// Package obsidian writes a TickTick task log into an Obsidian daily note.
//
// The log lives under a "## TickTick Task Log" heading. Exporting again on the
// same day replaces that section and leaves the rest of the note untouched.
package obsidian
