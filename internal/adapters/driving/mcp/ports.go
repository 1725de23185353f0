package mcp

import (
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Query answers questions and manages standing queries.
	Query driving.QueryService

	// Ingest reports indexing progress. Optional.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
