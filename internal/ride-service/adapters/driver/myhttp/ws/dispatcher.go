package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/ports"

	messagebrokerdto "ridelink/internal/ride-service/core/domain/message_broker_dto"
	websocketdto "ridelink/internal/ride-service/core/domain/websocket_dto"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// websocketUpgrader upgrades incoming HTTP requests into persistent
// websocket connections.
var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Dispatcher owns every live session on this instance: the role broadcast
// sets, the per-ride rooms, and the identity index for targeted delivery.
// All of it is ephemeral; nothing here survives a reconnect, and nothing
// needs to.
type Dispatcher struct {
	sync.RWMutex

	mylog  mylogger.Logger
	broker ports.IEventsPublisher
	cache  ports.ILocationCache

	clients map[*Client]bool
	byUser  map[string]map[*Client]bool
	rooms   map[string]map[*Client]bool
}

func NewDispatcher(mylog mylogger.Logger, broker ports.IEventsPublisher, cache ports.ILocationCache) *Dispatcher {
	return &Dispatcher{
		mylog:   mylog,
		broker:  broker,
		cache:   cache,
		clients: make(map[*Client]bool),
		byUser:  make(map[string]map[*Client]bool),
		rooms:   make(map[string]map[*Client]bool),
	}
}

// Handler upgrades the request. It must sit behind the auth middleware: the
// session identity is the authenticated actor, registered before the first
// frame is read.
func (d *Dispatcher) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := d.mylog.Action("ws_connect")

		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade connection", err)
			return
		}

		// the request context dies when this handler returns; the session
		// must outlive it
		client := NewClient(context.Background(), conn, d, actor)
		d.AddClient(client)
		log.Info("session registered", "user_id", actor.ID, "role", actor.Role)

		go client.ReadMessages()
		go client.WriteMessages()
	}
}

func (d *Dispatcher) AddClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	d.clients[client] = true
	if d.byUser[client.userID] == nil {
		d.byUser[client.userID] = make(map[*Client]bool)
	}
	d.byUser[client.userID][client] = true
}

func (d *Dispatcher) RemoveClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	if _, ok := d.clients[client]; !ok {
		return
	}
	delete(d.clients, client)
	if set := d.byUser[client.userID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(d.byUser, client.userID)
		}
	}
	for rideID, room := range d.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(d.rooms, rideID)
		}
	}
	client.conn.Close()
}

// BroadcastToRole delivers to every session of the role, e.g. a new
// available ride to all drivers.
func (d *Dispatcher) BroadcastToRole(role string, ev websocketdto.Event) {
	d.RLock()
	defer d.RUnlock()

	for client := range d.clients {
		if client.role == role {
			client.send(ev)
		}
	}
}

// SendToUser targets sessions by registered identity, not room membership.
func (d *Dispatcher) SendToUser(userID string, ev websocketdto.Event) {
	d.RLock()
	defer d.RUnlock()

	for client := range d.byUser[userID] {
		client.send(ev)
	}
}

func (d *Dispatcher) SendToRoom(rideID string, ev websocketdto.Event) {
	d.RLock()
	defer d.RUnlock()

	for client := range d.rooms[rideID] {
		client.send(ev)
	}
}

// JoinRoom subscribes every live session of the user to the ride room.
func (d *Dispatcher) JoinRoom(rideID, userID string) {
	d.Lock()
	defer d.Unlock()

	for client := range d.byUser[userID] {
		if d.rooms[rideID] == nil {
			d.rooms[rideID] = make(map[*Client]bool)
		}
		d.rooms[rideID][client] = true
	}
}

// handleInbound routes client frames. Everything that other participants
// must see goes through the broker so sessions on other instances see it
// too; nothing is delivered only locally.
func (d *Dispatcher) handleInbound(c *Client, ev websocketdto.Event) {
	log := d.mylog.Action("ws_inbound").With("user_id", c.userID, "type", ev.Type)

	switch ev.Type {
	case websocketdto.TypeJoinRide:
		var req websocketdto.JoinRide
		if err := json.Unmarshal(ev.Data, &req); err != nil || req.RideID == "" {
			return
		}
		d.JoinRoom(req.RideID, c.userID)

	case websocketdto.TypeLocationUpdate:
		if c.role != model.RoleDriver {
			return
		}
		var loc websocketdto.DriverLocationUpdate
		if err := json.Unmarshal(ev.Data, &loc); err != nil || loc.RideID == "" {
			return
		}
		if err := d.cache.UpdateDriverLocation(c.ctx, c.userID, model.LatLng{Lat: loc.Lat, Lng: loc.Lng}); err != nil {
			log.Warn("location cache update failed", "err", err.Error())
		}
		d.relay(c, messagebrokerdto.LocationUpdate, loc.RideID, ev.Data)

	case websocketdto.TypeArrivedSignal:
		// arrival is detected client-side against the pickup point; the
		// server only relays, it never becomes ride state
		if c.role != model.RoleDriver {
			return
		}
		var arrived websocketdto.DriverArrived
		if err := json.Unmarshal(ev.Data, &arrived); err != nil || arrived.RideID == "" {
			return
		}
		d.relay(c, messagebrokerdto.DriverArrived, arrived.RideID, ev.Data)

	case websocketdto.TypeChatSend:
		var chat websocketdto.ChatMessage
		if err := json.Unmarshal(ev.Data, &chat); err != nil || chat.RideID == "" {
			return
		}
		// sender identity comes from the session, whatever the frame claims
		chat.SenderID = c.userID
		chat.Role = c.role
		chat.SentAt = time.Now().Format(time.RFC3339)
		data, err := json.Marshal(chat)
		if err != nil {
			return
		}
		d.relay(c, messagebrokerdto.ChatMessage, chat.RideID, data)

	default:
		log.Debug("ignoring unknown inbound event")
	}
}

func (d *Dispatcher) relay(c *Client, eventType, rideID string, payload json.RawMessage) {
	ev := messagebrokerdto.RideEvent{
		Type:          eventType,
		RideID:        rideID,
		Payload:       payload,
		CorrelationID: "req_" + uuid.NewString(),
		Timestamp:     time.Now(),
	}
	if c.role == model.RoleDriver {
		ev.DriverID = c.userID
	} else {
		ev.RiderID = c.userID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.broker.PublishRideEvent(ctx, ev); err != nil {
		d.mylog.Action("ws_relay").Error("event publish failed", err, "type", eventType, "ride_id", rideID)
	}
}
