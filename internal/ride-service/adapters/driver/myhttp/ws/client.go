package ws

import (
	"context"
	"encoding/json"
	"time"

	"ridelink/internal/ride-service/core/domain/model"

	websocketdto "ridelink/internal/ride-service/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	egressBuffer   = 32
)

// Client is one connected session with a registered identity. Identity is
// taken from the authenticated upgrade request, never from the socket
// payload.
type Client struct {
	ctx    context.Context
	conn   *websocket.Conn
	dis    *Dispatcher
	egress chan websocketdto.Event

	userID string
	role   string
}

func NewClient(ctx context.Context, conn *websocket.Conn, dis *Dispatcher, actor model.Actor) *Client {
	return &Client{
		ctx:    ctx,
		conn:   conn,
		dis:    dis,
		egress: make(chan websocketdto.Event, egressBuffer),
		userID: actor.ID,
		role:   actor.Role,
	}
}

// send queues an event without blocking the dispatcher. A full buffer drops
// the event: the client reconciles by polling the ride store.
func (c *Client) send(ev websocketdto.Event) {
	select {
	case c.egress <- ev:
	default:
	}
}

func (c *Client) ReadMessages() {
	defer c.dis.RemoveClient(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var ev websocketdto.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			continue
		}
		c.dis.handleInbound(c, ev)
	}
}

func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case ev, ok := <-c.egress:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
