package driven

import (
	"context"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// VectorIndex stores chunk embeddings and answers nearest-neighbour queries.
// Implementations must be safe for concurrent use and linearizable per
// document: a search observes either all of a document's old entries or
// all of its new ones.
type VectorIndex interface {
	// Upsert inserts or replaces the entry for a single chunk.
	Upsert(ctx context.Context, entry domain.IndexEntry) error

	// ReplaceDocument atomically replaces every entry of docID with entries.
	// Positions that no longer exist are removed.
	ReplaceDocument(ctx context.Context, docID string, entries []domain.IndexEntry) error

	// Search returns up to k hits ordered by descending similarity.
	// Ties are broken by insertion order.
	Search(ctx context.Context, vector []float32, k int) ([]domain.IndexHit, error)

	// Len returns the number of live entries.
	Len() int

	// Close releases resources.
	Close() error
}
