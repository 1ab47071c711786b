package websocketdto

// DriverLocationUpdate is relayed to the ride room. The driver client is the
// source of truth for its own position.
type DriverLocationUpdate struct {
	RideID string  `json:"ride_id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Speed  float64 `json:"speed_kmh,omitempty"`
}

// DriverArrived is emitted by the driver client once within the arrival
// threshold of the pickup point. Relay-only, never persisted.
type DriverArrived struct {
	RideID         string  `json:"ride_id"`
	DistanceMeters float64 `json:"distance_meters"`
}

// JoinRide lets a reconnecting participant re-enter its ride room.
type JoinRide struct {
	RideID string `json:"ride_id"`
}
