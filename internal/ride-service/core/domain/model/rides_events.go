package model

import (
	"encoding/json"
	"time"
)

// RideEvent is the per-ride audit row appended with every successful
// transition, in the same transaction as the transition itself.
type RideEvent struct {
	ID        string // uuid
	CreatedAt time.Time
	RideID    string
	EventType string
	EventData json.RawMessage
}
