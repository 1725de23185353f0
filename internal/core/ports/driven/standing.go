package driven

import (
	"context"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// StandingQueryStore persists alert subscriptions keyed by identity.
// Callers serialise read-modify-write cycles per identity; the store only
// guarantees that individual operations are atomic.
type StandingQueryStore interface {
	// Get returns the standing query for identity or domain.ErrNotFound.
	Get(ctx context.Context, identity string) (*domain.StandingQuery, error)

	// Save creates or replaces a standing query.
	Save(ctx context.Context, sq *domain.StandingQuery) error

	// List returns all standing queries ordered by creation time.
	List(ctx context.Context) ([]domain.StandingQuery, error)

	// Delete removes a standing query. Deleting a missing identity is not an error.
	Delete(ctx context.Context, identity string) error
}
