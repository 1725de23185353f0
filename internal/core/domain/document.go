package domain

import (
	"strconv"
	"time"
)

// Document represents a normalised notice.
// It is the canonical representation after normalisation.
type Document struct {
	// ID is the stable source identifier, e.g. the path relative to the
	// watched data directory.
	ID string

	// SourceID names the document source that produced this document.
	SourceID string

	// URI is the original location.
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// ContentHash is the hex SHA-256 of Content. An unchanged hash
	// means the document does not need re-indexing.
	ContentHash string

	// UpdatedAt is when the document was last indexed.
	UpdatedAt time.Time
}

// Chunk is a retrievable unit within a document.
// Chunks are derived deterministically from the document content.
type Chunk struct {
	// ID is DocumentID#Position.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the exact source text spanned by the chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// TokenCount is the number of tokens in Content.
	TokenCount int
}

// ChunkID returns the identifier of the chunk at position in document docID.
func ChunkID(docID string, position int) string {
	return docID + "#" + strconv.Itoa(position)
}

// IndexEntry pairs a chunk with its embedding vector.
type IndexEntry struct {
	Chunk  Chunk
	Vector []float32
}

// IndexHit is a single nearest-neighbour result.
type IndexHit struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query vector.
	Score float64
}

// IndexEvent announces that a document's index entries were replaced.
type IndexEvent struct {
	DocumentID string
	Chunks     int
	At         time.Time
}
