package driven

import "github.com/wcreiley/notice-alert-system/internal/core/domain"

// Chunker splits a document into ordered, token-bounded chunks.
// Splitting must be deterministic: the same content always yields the
// same chunks.
type Chunker interface {
	// Name returns the chunker identifier.
	Name() string

	// Split returns the chunks for doc. Empty content yields no chunks.
	Split(doc *domain.Document) []domain.Chunk
}
