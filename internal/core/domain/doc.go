// Package domain defines the core business entities of the notice alert engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque bytes from the document source
//   - Document: A normalised notice with a content hash
//   - Chunk: A retrievable unit within a document
//   - Query: A user question after intent classification
//   - StandingQuery: An alert subscription with its last answer
//   - Notification: A message delivered to the alert channel
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
