// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connector: Reads notices from the document source
//   - Normaliser / NormaliserRegistry: Turn raw bytes into text
//   - Chunker: Splits text into token-bounded chunks
//   - DocumentStore: Tracks content hashes and chunk lists
//   - VectorIndex: Stores chunk embeddings and answers kNN queries
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Classification, answer generation and semantic diff
//   - StandingQueryStore: Persists alert subscriptions
//   - Notifier: Delivers alert messages
//
// # Optional Interfaces
//
//   - ResponseCache: Memoises provider responses. Without it every call
//     goes to the provider.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
