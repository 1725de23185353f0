package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no normaliser handles a document's MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyDocument indicates a document has no indexable text.
	ErrEmptyDocument = errors.New("empty document")

	// ErrCallFailed indicates an external provider call failed after
	// exhausting all retry attempts.
	ErrCallFailed = errors.New("call failed")

	// ErrMissingCredential indicates a required API key or token is not configured.
	ErrMissingCredential = errors.New("missing credential")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrLLMUnavailable indicates the language model is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrConnectorClosed indicates the document source has been closed.
	ErrConnectorClosed = errors.New("connector closed")
)
