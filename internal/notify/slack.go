package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier posts lifecycle messages to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Channel    string
	Client     *http.Client
}

// NewSlackNotifier creates a new SlackNotifier.
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Channel:    channel,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends the message to the configured webhook.
func (s *SlackNotifier) Notify(ctx context.Context, event string, message string) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	msg := &slack.WebhookMessage{
		Channel: s.Channel,
		Text:    message,
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.WebhookURL, client, msg); err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	return nil
}

var _ Notifier = (*SlackNotifier)(nil)
