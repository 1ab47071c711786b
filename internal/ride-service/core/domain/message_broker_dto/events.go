package messagebrokerdto

import (
	"encoding/json"
	"time"
)

// Broker event types. Every instance consumes every event and fans it out to
// its own websocket sessions; the originating instance is not special.
const (
	RideRequested  = "ride_requested"
	RideAccepted   = "ride_accepted"
	RideStarted    = "ride_started"
	RideCompleted  = "ride_completed"
	RideCancelled  = "ride_cancelled"
	LocationUpdate = "location_update"
	DriverArrived  = "driver_arrived"
	ChatMessage    = "chat_message"
)

// RideEvent is the single envelope carried over the topic exchange.
// Payload is the matching websocket_dto body, pre-marshalled.
type RideEvent struct {
	Type          string          `json:"type"`
	RideID        string          `json:"ride_id"`
	RiderID       string          `json:"rider_id,omitempty"`
	DriverID      string          `json:"driver_id,omitempty"`
	CancelledBy   string          `json:"cancelled_by,omitempty"`
	WasRequested  bool            `json:"was_requested,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CorrelationID string          `json:"correlation_id"`
	Timestamp     time.Time       `json:"timestamp"`
}
