package ports

import websocketdto "ridelink/internal/ride-service/core/domain/websocket_dto"

// INotifySessions is the fan-out surface of the event bus. It owns no
// durable state; a missed delivery is recovered by polling the ride store.
type INotifySessions interface {
	BroadcastToRole(role string, ev websocketdto.Event)
	// SendToUser targets sessions by the identity registered at connect
	// time, not room membership; at assignment time the winner may not have
	// joined any room yet.
	SendToUser(userID string, ev websocketdto.Event)
	SendToRoom(rideID string, ev websocketdto.Event)
	JoinRoom(rideID, userID string)
}
