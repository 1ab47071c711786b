package ports

import (
	"context"

	messagebrokerdto "ridelink/internal/ride-service/core/domain/message_broker_dto"

	amqp "github.com/rabbitmq/amqp091-go"
)

// IEventsPublisher is the write half used by the coordinator and the
// websocket layer. Publishing is best-effort: a failed publish never rolls
// back a committed transition.
type IEventsPublisher interface {
	PublishRideEvent(ctx context.Context, ev messagebrokerdto.RideEvent) error
}

type IEventsBroker interface {
	IEventsPublisher
	// Consume binds an instance-private queue to the ride topic exchange.
	Consume(ctx context.Context, routingKey string) (<-chan amqp.Delivery, error)
	IsAlive() bool
	Close() error
}
