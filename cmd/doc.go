// Package cmd implements the command-line interface for calbridge.
//
// This package provides the following commands:
//   - serve: Start the webhook and REST server
//   - mcp: Serve the booking tools over MCP stdio
//   - slots: Print free slots for a day or time range
//   - book: Book an appointment from the command line
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for the MCP tools
//
// The serve command is the default command when no subcommand is specified.
// Configuration flags are shared by all commands and can also be set through
// environment variables or a config file.
package cmd
