package bm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ridelink/internal/config"
	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/ports"

	messagebrokerdto "ridelink/internal/ride-service/core/domain/message_broker_dto"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchange       = "ride_events"
	reconnInterval = 10
)

// RabbitMQ fans ride events out across instances: every instance publishes
// locally and consumes everything, so each one can notify its own sockets.
type RabbitMQ struct {
	ctx          context.Context
	cfg          config.RabbitMqconfig
	mylog        mylogger.Logger
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
	mu           *sync.Mutex
}

// create RabbitMQ adapter
func New(ctx context.Context, rabbitmqCfg config.RabbitMqconfig, mylog mylogger.Logger) (ports.IEventsBroker, error) {
	r := &RabbitMQ{
		ctx:          ctx,
		cfg:          rabbitmqCfg,
		mylog:        mylog,
		mu:           &sync.Mutex{},
		reconnecting: false,
	}
	if err := r.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %v", err)
	}
	return r, nil
}

// snapshot reads the live pair under the lock; reconnect swaps both fields,
// so nobody may touch them directly.
func (r *RabbitMQ) snapshot() (*amqp.Connection, *amqp.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn, r.ch
}

func (r *RabbitMQ) PublishRideEvent(ctx context.Context, ev messagebrokerdto.RideEvent) error {
	mylog := r.mylog.Action("PublishRideEvent")

	conn, ch := r.snapshot()
	if conn == nil || conn.IsClosed() {
		mylog.Error("rabbitmq connection is closed", errors.New("closed conn"))
		go r.reconnect(r.ctx)
		return errors.New("connection is closed")
	}

	routingKey := fmt.Sprintf("ride.%s", ev.Type)
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Body:         body,
	})
}

// Consume binds an instance-private queue so every instance receives every
// event. The queue dies with the connection; the bus is a latency
// optimization, not the system of record.
func (r *RabbitMQ) Consume(ctx context.Context, routingKey string) (<-chan amqp.Delivery, error) {
	_, ch := r.snapshot()
	if ch == nil || ch.IsClosed() {
		return nil, errors.New("channel is closed")
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	return ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
}

func (r *RabbitMQ) IsAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() {
		return false
	}
	if r.ch == nil || r.ch.IsClosed() {
		return false
	}

	return true
}

func (r *RabbitMQ) Close() error {
	conn, ch := r.snapshot()

	if ch != nil && !ch.IsClosed() {
		if err := ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %v", err)
		}
	}

	if conn != nil && !conn.IsClosed() {
		if err := conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %v", err)
		}
	}
	return nil
}

// connect to rabbitmq and declare the topic exchange
func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%v:%v@%v:%v/%v",
		r.cfg.User,
		r.cfg.Password,
		r.cfg.Host,
		r.cfg.Port,
		r.cfg.VHost,
	))
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", false, false, false, false, nil); err != nil {
		return err
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

func (r *RabbitMQ) reconnect(ctx context.Context) {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	t := time.NewTicker(time.Second * reconnInterval)
	mylog := r.mylog.Action("mb_reconnecting")

	for {
		select {
		case <-t.C:
			if err := r.connect(); err == nil {
				t.Stop()
				mylog.Action("mb_reconnection_completed").Info("Successfully reconnected!")
				r.mu.Lock()
				r.reconnecting = false
				r.mu.Unlock()
				return
			}
			mylog.Info("rabbitmq failed to reconnect")

		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}
