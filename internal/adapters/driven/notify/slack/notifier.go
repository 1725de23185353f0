// Package slack delivers notifications to a Slack channel.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
)

// Ensure Notifier implements the interface.
var _ driven.Notifier = (*Notifier)(nil)

// DefaultAPIURL is the Slack Web API base URL.
const DefaultAPIURL = "https://slack.com/api/"

// Config holds configuration for the Slack notifier.
type Config struct {
	// ChannelID is the destination channel (required).
	ChannelID string

	// Token is a bot token with chat:write scope (required).
	Token string

	// APIURL overrides the Web API base URL, e.g. in tests.
	APIURL string

	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
}

// Notifier posts notification messages with chat.postMessage.
type Notifier struct {
	api     *slack.Client
	channel string
}

// New creates a Slack notifier.
func New(cfg Config) (*Notifier, error) {
	var missing []error
	if cfg.ChannelID == "" {
		missing = append(missing, fmt.Errorf("slack: channel ID is required: %w", domain.ErrMissingCredential))
	}
	if cfg.Token == "" {
		missing = append(missing, fmt.Errorf("slack: token is required: %w", domain.ErrMissingCredential))
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	opts := []slack.Option{slack.OptionAPIURL(apiURL)}
	if cfg.HTTPClient != nil {
		opts = append(opts, slack.OptionHTTPClient(cfg.HTTPClient))
	}

	return &Notifier{
		api:     slack.New(cfg.Token, opts...),
		channel: cfg.ChannelID,
	}, nil
}

// Notify posts the notification message to the channel. Slack-level
// rejections such as channel_not_found are returned as errors.
func (n *Notifier) Notify(ctx context.Context, note domain.Notification) error {
	if strings.TrimSpace(note.Message) == "" {
		return fmt.Errorf("slack: empty message: %w", domain.ErrInvalidInput)
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(note.Message, false))
	if err != nil {
		var rateErr *slack.RateLimitedError
		if errors.As(err, &rateErr) {
			return fmt.Errorf("slack: %w: %w", domain.ErrRateLimited, err)
		}
		if isAuthError(err) {
			return fmt.Errorf("slack: %w: %w", domain.ErrMissingCredential, err)
		}
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// Channel returns the destination channel ID.
func (n *Notifier) Channel() string {
	return n.channel
}

func isAuthError(err error) bool {
	switch err.Error() {
	case "invalid_auth", "not_authed", "account_inactive", "token_revoked":
		return true
	}
	return false
}
