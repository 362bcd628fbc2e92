// Package logging provides structured logging utilities for ticktask.
//
// Everything logs through log/slog. This package keeps attribute names
// consistent across the auth flow, the API client and the MCP tools, and
// makes sure credentials never end up in log output.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "auth.refresh")
//	logger.Info("token refreshed",
//	    logging.Status(logging.StatusSuccess))
//
// Tokens must go through SanitizeToken before being logged:
//
//	logger.Debug("loaded token", "access_token", logging.SanitizeToken(tok))
package logging
