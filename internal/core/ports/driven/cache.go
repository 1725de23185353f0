package driven

import "context"

// ResponseCache memoises provider responses keyed by request.
// A miss is reported with ok == false, not an error.
type ResponseCache interface {
	// Get returns the cached value for key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
}
