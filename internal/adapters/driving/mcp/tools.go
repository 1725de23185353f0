package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
)

// AskInput is the input schema for the ask and subscribe tools.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question about pipeline notices"`
	User  string `json:"user,omitempty" jsonschema:"who is asking; alerts are tracked per user"`
}

// AskOutput is the output schema for the ask and subscribe tools.
type AskOutput struct {
	Answer       string `json:"answer"`
	Query        string `json:"query"`
	Identity     string `json:"identity,omitempty"`
	AlertEnabled bool   `json:"alert_enabled"`
	Registered   bool   `json:"registered"`
	Notified     bool   `json:"notified"`
	State        string `json:"state"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from the indexed notices. Questions asking to be " +
			"alerted or notified become standing queries that are re-evaluated when notices change.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "subscribe",
		Description: "Answer a question and register it for change alerts",
	}, s.handleSubscribe)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.ports.Query.Ask(ctx, driving.QueryRequest{Query: input.Query, User: input.User})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, toOutput(resp), nil
}

// handleSubscribe handles the subscribe tool invocation.
func (s *Server) handleSubscribe(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.ports.Query.Subscribe(ctx, input.Query, input.User)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, toOutput(resp), nil
}

func toOutput(resp *driving.QueryResponse) AskOutput {
	return AskOutput{
		Answer:       resp.Answer,
		Query:        resp.Query,
		Identity:     resp.Identity,
		AlertEnabled: resp.AlertEnabled,
		Registered:   resp.Registered,
		Notified:     resp.Notified,
		State:        string(resp.State),
	}
}
