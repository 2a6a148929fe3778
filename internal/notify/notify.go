// Package notify delivers order lifecycle events to external sinks.
package notify

import "context"

// Event types
const (
	EventOrderStart       = "on_order_start"
	EventOrderSuccess     = "on_order_success"
	EventOrderPartial     = "on_order_partial"
	EventOrderFailure     = "on_order_failure"
	EventComponentFailure = "on_component_failure"
)

// Notifier delivers one lifecycle message to a single sink.
type Notifier interface {
	Notify(ctx context.Context, event string, message string) error
}
