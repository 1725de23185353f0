package driving

import (
	"context"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// IngestService keeps the embedding index in step with the document source.
type IngestService interface {
	// Index normalises, chunks, embeds and indexes a single document.
	Index(ctx context.Context, raw *domain.RawDocument) (*IndexResult, error)

	// Status returns counters for the indexing pipeline.
	Status() IngestStatus
}

// IndexResult reports the outcome of indexing one document.
type IndexResult struct {
	DocumentID string

	// Skipped is true when the content hash was unchanged.
	Skipped bool

	// Indexed is the number of chunks written to the index.
	Indexed int

	// Failed lists chunk IDs whose embedding permanently failed.
	Failed []string
}

// IngestStatus holds running totals for the indexer.
type IngestStatus struct {
	DocumentsIndexed int
	DocumentsSkipped int
	ChunksIndexed    int
	ChunkFailures    int
	Errors           int
}
