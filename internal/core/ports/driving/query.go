package driving

import (
	"context"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// QueryService answers questions and manages alert subscriptions.
type QueryService interface {
	// Ask classifies, retrieves and answers a question. Provider failures
	// produce a degraded answer rather than an error; an error is only
	// returned for invalid input.
	Ask(ctx context.Context, req QueryRequest) (*QueryResponse, error)

	// Subscribe answers a question and registers it as a standing query
	// regardless of how the classifier reads it.
	Subscribe(ctx context.Context, query, user string) (*QueryResponse, error)

	// StandingQueries lists every alert subscription.
	StandingQueries(ctx context.Context) ([]domain.StandingQuery, error)
}

// QueryRequest is a question submitted by a user.
type QueryRequest struct {
	Query string `json:"query"`
	User  string `json:"user"`
}

// QueryResponse is the outcome of Ask.
type QueryResponse struct {
	// Identity keys the standing query when AlertEnabled is true.
	Identity string `json:"identity"`

	// Query is the cleaned question text.
	Query string `json:"query"`

	// Answer is the text returned to the caller.
	Answer string `json:"answer"`

	AlertEnabled bool `json:"alert_enabled"`

	// Registered is true only when the standing query exists in the store
	// after this request. A failed request is never registered.
	Registered bool `json:"registered"`

	Notified bool              `json:"notified"`
	State    domain.QueryState `json:"state"`
}
