// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The query path runs Received -> Classified -> Embedded -> Retrieved ->
// Generated -> (Notified | Skipped) -> Responded. The document path runs
// in the Indexer and feeds standing-query recomputation through
// IndexEvents.
package services
