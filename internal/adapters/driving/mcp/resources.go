package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for engine resources.
	uriScheme = "noticealert://"
)

// alertInfo is the public view of a standing query.
type alertInfo struct {
	Identity   string    `json:"identity"`
	User       string    `json:"user"`
	Query      string    `json:"query"`
	LastAnswer string    `json:"last_answer"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "alerts",
		Name:        "alerts",
		Description: "Standing queries that trigger change notifications",
		MIMEType:    "application/json",
	}, s.handleAlertsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "alerts/{identity}",
		Name:        "alert",
		Description: "A single standing query and its last answer",
		MIMEType:    "application/json",
	}, s.handleAlertResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Indexing counters",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

// handleAlertsResource returns every standing query.
func (s *Server) handleAlertsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	alerts, err := s.listAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(req.Params.URI, alerts)
}

// handleAlertResource returns one standing query by identity.
func (s *Server) handleAlertResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract identity from URI: noticealert://alerts/{identity}
	identity := extractIdentity(req.Params.URI)
	if identity == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	alerts, err := s.listAlerts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range alerts {
		if alerts[i].Identity == identity {
			return jsonResult(req.Params.URI, alerts[i])
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// handleStatusResource returns indexer counters.
func (s *Server) handleStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return jsonResult(req.Params.URI, map[string]any{})
	}
	return jsonResult(req.Params.URI, s.ports.Ingest.Status())
}

func (s *Server) listAlerts(ctx context.Context) ([]alertInfo, error) {
	queries, err := s.ports.Query.StandingQueries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing standing queries: %w", err)
	}

	infos := make([]alertInfo, len(queries))
	for i := range queries {
		infos[i] = alertInfo{
			Identity:   queries[i].Identity,
			User:       queries[i].User,
			Query:      queries[i].Query,
			LastAnswer: queries[i].LastAnswer,
			UpdatedAt:  queries[i].UpdatedAt,
		}
	}
	return infos, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractIdentity extracts the identity from a URI like noticealert://alerts/{identity}.
func extractIdentity(uri string) string {
	const prefix = uriScheme + "alerts/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
