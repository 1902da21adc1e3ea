// Package mcp provides an MCP (Model Context Protocol) server adapter for affinity.
// It lets AI assistants consolidate, export and review destination data.
package mcp

import "errors"

// ErrMissingConsolidator is returned when the consolidation service is not provided.
var ErrMissingConsolidator = errors.New("mcp: consolidation service is required")

// ErrNotConfigured is returned by tools whose backing service is not provided.
var ErrNotConfigured = errors.New("mcp: service not configured")
