package notify

import (
	"context"
	"log/slog"

	"github.com/spf13/viper"
)

// Manager fans lifecycle events out to the configured sinks. Events are
// gated by the notifications.events.* configuration keys.
type Manager struct {
	sinks []Notifier
}

// NewManager builds a Manager from the notification configuration. Sinks
// that are enabled but unusable (slack without a webhook) are skipped with
// a warning.
func NewManager() *Manager {
	m := &Manager{}

	if viper.GetBool("notifications.slack.enabled") {
		webhook := viper.GetString("notifications.slack.webhook")
		if webhook == "" {
			slog.Warn("notifications.slack.webhook not set, slack notifications disabled")
		} else {
			m.sinks = append(m.sinks, NewSlackNotifier(webhook, viper.GetString("notifications.slack.channel")))
		}
	}

	if viper.GetBool("notifications.file.enabled") {
		if path := viper.GetString("notifications.file.path"); path != "" {
			m.sinks = append(m.sinks, NewFileSink(path))
		}
	}

	return m
}

// Add appends a sink.
func (m *Manager) Add(n Notifier) {
	m.sinks = append(m.sinks, n)
}

// Notify delivers the message to every sink when the event is enabled.
// Sink failures are logged and swallowed; a run never fails because a
// notification could not be delivered. A nil Manager drops everything.
func (m *Manager) Notify(ctx context.Context, event string, message string) {
	if m == nil || len(m.sinks) == 0 {
		return
	}
	if !viper.GetBool("notifications.events." + event) {
		return
	}

	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, event, message); err != nil {
			slog.Error("Failed to send notification", "event", event, "error", err)
		}
	}
}
