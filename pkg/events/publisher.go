package events

import (
	"context"

	"go.uber.org/zap"
)

// Publisher defines the interface for publishing domain events
type Publisher interface {
	// Publish publishes an event to the message broker
	Publish(ctx context.Context, exchange string, event *Event, headers Headers) error

	// Close closes the publisher connection
	Close() error
}

// LogPublisher stands in for the broker when RABBITMQ_URL is unset. Events
// are written to the log and dropped.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, exchange string, event *Event, headers Headers) error {
	zap.L().Debug("Broker disabled, event dropped",
		zap.String("exchange", exchange),
		zap.String("routingKey", event.GetRoutingKey()),
		zap.String("traceId", headers.TraceID),
	)
	return nil
}

func (LogPublisher) Close() error {
	return nil
}
