package websocketdto

// To drivers, broadcast when a rider requests a ride.
type NewAvailableRide struct {
	RideID             string  `json:"ride_id"`
	RideNumber         string  `json:"ride_number"`
	PickupAddress      string  `json:"pickup_address"`
	PickupLat          float64 `json:"pickup_lat"`
	PickupLng          float64 `json:"pickup_lng"`
	DestinationAddress string  `json:"destination_address"`
	DistanceKm         float64 `json:"distance_km"`
	EstimatedFare      float64 `json:"estimated_fare"`
}

// To drivers, broadcast when a requested ride leaves the pool
// (claimed or cancelled). A late copy for an already-claimed ride must be
// tolerated by the client.
type RideTaken struct {
	RideID string `json:"ride_id"`
}

// To the rider, targeted by registered identity at assignment time.
type RideStatusUpdate struct {
	RideID        string      `json:"ride_id"`
	RideNumber    string      `json:"ride_number"`
	Status        string      `json:"status"`
	DriverInfo    *DriverInfo `json:"driver_info,omitempty"`
	FinalFare     *float64    `json:"final_fare,omitempty"`
	Message       string      `json:"message,omitempty"`
	CorrelationID string      `json:"correlation_id"`
}

type DriverInfo struct {
	DriverID string  `json:"driver_id"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	Vehicle  Vehicle `json:"vehicle"`
}

type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Plate string `json:"plate"`
	Color string `json:"color"`
}
