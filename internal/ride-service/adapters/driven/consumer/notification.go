package consumer

import (
	"context"
	"encoding/json"
	"time"

	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/ports"

	messagebrokerdto "ridelink/internal/ride-service/core/domain/message_broker_dto"
	websocketdto "ridelink/internal/ride-service/core/domain/websocket_dto"

	"github.com/rabbitmq/amqp091-go"
)

const (
	allRideEvents  = "ride.#"
	resubscribeGap = 5 * time.Second
)

// Notification pumps broker deliveries into the local websocket sessions.
// Delivery is at-most-once per instance and unordered across connections;
// clients reconcile through the ride store when something is missed.
type Notification struct {
	ctx        context.Context
	mylog      mylogger.Logger
	dispatcher ports.INotifySessions
	broker     ports.IEventsBroker
	retryEvery time.Duration
}

func New(
	ctx context.Context,
	mylog mylogger.Logger,
	dispatcher ports.INotifySessions,
	broker ports.IEventsBroker,
) *Notification {
	return &Notification{
		ctx:        ctx,
		mylog:      mylog,
		dispatcher: dispatcher,
		broker:     broker,
		retryEvery: resubscribeGap,
	}
}

func (n *Notification) Run() error {
	ch, err := n.broker.Consume(n.ctx, allRideEvents)
	if err != nil {
		return err
	}

	go n.work(n.ctx, ch)
	return nil
}

func (n *Notification) work(ctx context.Context, ch <-chan amqp091.Delivery) {
	log := n.mylog.Action("notification_pump")
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				// the delivery channel dies with the broker connection; the
				// pump outlives it and subscribes again once the broker is back
				log.Warn("delivery channel closed, resubscribing")
				ch = n.resubscribe(ctx, log)
				if ch == nil {
					return
				}
				continue
			}
			if err := n.handle(msg); err != nil {
				log.Warn("dropping undeliverable event", "err", err.Error())
			}
		case <-ctx.Done():
			return
		}
	}
}

// resubscribe retries the subscription until it succeeds or the context ends.
func (n *Notification) resubscribe(ctx context.Context, log mylogger.Logger) <-chan amqp091.Delivery {
	t := time.NewTicker(n.retryEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			ch, err := n.broker.Consume(ctx, allRideEvents)
			if err != nil {
				log.Warn("resubscribe failed", "err", err.Error())
				continue
			}
			log.Info("resubscribed to ride events")
			return ch
		case <-ctx.Done():
			return nil
		}
	}
}

func (n *Notification) handle(msg amqp091.Delivery) error {
	var ev messagebrokerdto.RideEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		return err
	}

	switch ev.Type {
	case messagebrokerdto.RideRequested:
		n.dispatcher.BroadcastToRole(model.RoleDriver, websocketdto.Event{
			Type: websocketdto.TypeNewAvailableRide,
			Data: ev.Payload,
		})

	case messagebrokerdto.RideAccepted:
		// the winner may not be in any room yet, so the rider is targeted by
		// registered identity; both parties then join the ride room
		n.dispatcher.JoinRoom(ev.RideID, ev.RiderID)
		n.dispatcher.JoinRoom(ev.RideID, ev.DriverID)
		n.dispatcher.SendToUser(ev.RiderID, websocketdto.Event{
			Type: websocketdto.TypeRideAccepted,
			Data: ev.Payload,
		})
		n.broadcastRideTaken(ev.RideID)

	case messagebrokerdto.RideStarted:
		n.dispatcher.SendToRoom(ev.RideID, websocketdto.Event{
			Type: websocketdto.TypeRideStarted,
			Data: ev.Payload,
		})

	case messagebrokerdto.RideCompleted:
		n.dispatcher.SendToRoom(ev.RideID, websocketdto.Event{
			Type: websocketdto.TypeRideCompleted,
			Data: ev.Payload,
		})

	case messagebrokerdto.RideCancelled:
		n.dispatcher.SendToRoom(ev.RideID, websocketdto.Event{
			Type: websocketdto.TypeRideCancelled,
			Data: ev.Payload,
		})
		n.notifyCancelledParty(ev)
		if ev.WasRequested {
			// the ride never left the shared pool, pull it back from drivers
			n.broadcastRideTaken(ev.RideID)
		}

	case messagebrokerdto.LocationUpdate:
		n.dispatcher.SendToRoom(ev.RideID, websocketdto.Event{
			Type: websocketdto.TypeDriverLocation,
			Data: ev.Payload,
		})

	case messagebrokerdto.DriverArrived:
		n.dispatcher.SendToRoom(ev.RideID, websocketdto.Event{
			Type: websocketdto.TypeDriverArrived,
			Data: ev.Payload,
		})

	case messagebrokerdto.ChatMessage:
		n.dispatcher.SendToRoom(ev.RideID, websocketdto.Event{
			Type: websocketdto.TypeChatMessage,
			Data: ev.Payload,
		})
	}

	return nil
}

// notifyCancelledParty sends the role-specific cancellation notice to the
// party that did not cancel.
func (n *Notification) notifyCancelledParty(ev messagebrokerdto.RideEvent) {
	switch ev.CancelledBy {
	case model.RoleRider:
		if ev.DriverID != "" {
			n.dispatcher.SendToUser(ev.DriverID, websocketdto.Event{
				Type: websocketdto.TypeCancelledByRider,
				Data: ev.Payload,
			})
		}
	case model.RoleDriver:
		n.dispatcher.SendToUser(ev.RiderID, websocketdto.Event{
			Type: websocketdto.TypeCancelledByDriver,
			Data: ev.Payload,
		})
	}
}

func (n *Notification) broadcastRideTaken(rideID string) {
	ev, err := websocketdto.Marshal(websocketdto.TypeRideTaken, websocketdto.RideTaken{RideID: rideID})
	if err != nil {
		return
	}
	n.dispatcher.BroadcastToRole(model.RoleDriver, ev)
}
