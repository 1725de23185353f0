package domain

import "time"

// Query is a user question after intent classification.
type Query struct {
	// Identity is derived from (User, CleanedText) and keys the
	// standing query for alert-enabled questions.
	Identity string

	User         string
	RawText      string
	CleanedText  string
	AlertEnabled bool

	// Vector is the embedding of CleanedText.
	Vector []float32
}

// StandingQuery is an alert subscription: a question re-evaluated
// whenever the corpus changes.
type StandingQuery struct {
	Identity string
	User     string
	Query    string
	Vector   []float32

	// LastAnswer is the most recent answer text used for comparison.
	LastAnswer string

	// Fingerprint summarises the retrieval result LastAnswer was generated from.
	Fingerprint string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Answer is generated text plus the chunks it was grounded on.
type Answer struct {
	Text   string
	Chunks []IndexHit
}

// Notification is a message delivered to the alert channel.
type Notification struct {
	ID        string
	Identity  string
	User      string
	Query     string
	Message   string
	CreatedAt time.Time
}

// QueryState tracks an interactive query through the orchestrator.
type QueryState string

// Query states.
const (
	StateReceived   QueryState = "received"
	StateClassified QueryState = "classified"
	StateEmbedded   QueryState = "embedded"
	StateRetrieved  QueryState = "retrieved"
	StateGenerated  QueryState = "generated"
	StateNotified   QueryState = "notified"
	StateSkipped    QueryState = "skipped"
	StateResponded  QueryState = "responded"
	StateFailed     QueryState = "failed"
)
