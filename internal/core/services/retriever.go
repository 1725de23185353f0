package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// DefaultRetrievalK is the number of chunks retrieved per query.
const DefaultRetrievalK = 3

// Retriever fetches the chunks nearest to a query vector.
type Retriever struct {
	index driven.VectorIndex
	k     int
}

// NewRetriever creates a retriever returning up to k hits.
func NewRetriever(index driven.VectorIndex, k int) *Retriever {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	return &Retriever{index: index, k: k}
}

// K returns the number of hits requested per search.
func (r *Retriever) K() int {
	return r.k
}

// Retrieve returns up to k chunks ordered by descending similarity.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32) ([]domain.IndexHit, error) {
	hits, err := r.index.Search(ctx, vector, r.k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return hits, nil
}

// Fingerprint summarises a retrieval result. Two results share a
// fingerprint only if they hold the same chunks with the same content in
// the same order.
func Fingerprint(hits []domain.IndexHit) string {
	h := sha256.New()
	for _, hit := range hits {
		content := sha256.Sum256([]byte(hit.Chunk.Content))
		h.Write([]byte(hit.Chunk.ID))
		h.Write([]byte{0})
		h.Write(content[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
