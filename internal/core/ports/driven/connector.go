package driven

import (
	"context"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// Connector reads notices from a document source.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks the source is reachable, e.g. the directory exists.
	Validate(ctx context.Context) error

	// FullSync emits every document currently in the source.
	// Both channels are closed when the scan ends.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch emits change events until ctx is cancelled.
	// Only available if SupportsWatch is true.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsWatch indicates the connector can push real-time events.
	SupportsWatch bool

	// SupportsHierarchy indicates the source has nested structure.
	SupportsHierarchy bool

	// SupportsValidation indicates Validate() performs an actual check.
	SupportsValidation bool
}
