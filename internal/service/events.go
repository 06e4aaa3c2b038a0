package service

import (
	"context"
	"log/slog"
	"time"
)

// EventPublisher delivers lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// NoopPublisher discards events. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// publishEvent sends an event after the document has been persisted. Broker
// failures are logged and never fail the request.
func publishEvent(ctx context.Context, pub EventPublisher, routingKey string, body interface{}) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, routingKey, body); err != nil {
		slog.Warn("failed to publish event", "routing_key", routingKey, "error", err)
	}
}
