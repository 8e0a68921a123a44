// Package notification provides alert delivery to external channels
// (Telegram, webhooks) for detected reversal signals and bot lifecycle events.
package notification

import (
	"context"
	"log"

	"rpdbot/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertSignal   AlertLevel = "SIGNAL"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent. Signal alerts carry the
// detected signal alongside the rendered text so structured backends do not
// have to re-parse the message.
type Alert struct {
	Level   AlertLevel    `json:"level"`
	Title   string        `json:"title"`
	Message string        `json:"message"`
	Signal  *model.Signal `json:"signal,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development
// and for running without Telegram credentials).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Fanout sends every alert to all wrapped notifiers, returning the first
// delivery error after trying each one.
type Fanout []Notifier

func (f Fanout) Send(ctx context.Context, alert Alert) error {
	var first error
	for _, n := range f {
		if err := n.Send(ctx, alert); err != nil && first == nil {
			first = err
		}
	}
	return first
}
