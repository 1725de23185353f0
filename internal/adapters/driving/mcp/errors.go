// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// notice alert engine. It lets AI assistants ask questions about notices and
// inspect standing alert subscriptions.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
