// Package cmd implements the command-line interface for didagoals.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the goal and analytics tools
//   - auth: Authorize access to the task service (Dida365 or Google Tasks)
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
