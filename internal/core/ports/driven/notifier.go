package driven

import (
	"context"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// Notifier delivers alert notifications to a channel.
type Notifier interface {
	// Notify sends a notification. Implementations return an error for
	// both transport failures and channel-level rejections.
	Notify(ctx context.Context, n domain.Notification) error

	// Channel returns the destination identifier shown to users.
	Channel() string
}
