package websocketdto

import "encoding/json"

// Event is the envelope for every websocket message in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Outbound event types.
const (
	TypeNewAvailableRide  = "new_available_ride"
	TypeRideTaken         = "ride_taken"
	TypeRideAccepted      = "ride_accepted"
	TypeRideStarted       = "ride_started"
	TypeRideCompleted     = "ride_completed"
	TypeRideCancelled     = "ride_cancelled"
	TypeCancelledByRider  = "ride_cancelled_by_rider"
	TypeCancelledByDriver = "ride_cancelled_by_driver"
	TypeDriverLocation    = "driver_location_update"
	TypeDriverArrived     = "driver_arrived"
	TypeChatMessage       = "chat_message"
)

// Inbound (client -> server) event types.
const (
	TypeJoinRide       = "join_ride"
	TypeLocationUpdate = "location_update"
	TypeArrivedSignal  = "driver_arrived"
	TypeChatSend       = "chat_message"
)

func Marshal(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data}, nil
}
