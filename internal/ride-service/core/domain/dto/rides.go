package dto

// API transfer data

type RideRequestDto struct {
	PickupAddress      string `json:"pickup_address"`
	DestinationAddress string `json:"destination_address"`
}

type RideResponseDto struct {
	RideId                   string  `json:"ride_id"`
	RideNumber               string  `json:"ride_number"`
	Status                   string  `json:"status"`
	EstimatedFare            float64 `json:"estimated_fare"`
	EstimatedDistanceKm      float64 `json:"estimated_distance_km"`
	EstimatedDurationMinutes float64 `json:"estimated_duration_minutes"`
	SurgeMultiplier          float64 `json:"surge_multiplier"`
}

type RideAcceptResponseDto struct {
	RideId        string  `json:"ride_id"`
	RideNumber    string  `json:"ride_number"`
	Status        string  `json:"status"`
	RiderId       string  `json:"rider_id"`
	PickupAddress string  `json:"pickup_address"`
	PickupLat     float64 `json:"pickup_lat"`
	PickupLng     float64 `json:"pickup_lng"`
	EstimatedFare float64 `json:"estimated_fare"`
}

type RideCancelRequestDto struct {
	Reason string `json:"reason"`
}

type RideCancelResponseDto struct {
	RideId      string `json:"ride_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
	Message     string `json:"message"`
}

type RideCompleteResponseDto struct {
	RideId        string  `json:"ride_id"`
	Status        string  `json:"status"`
	FinalFare     float64 `json:"final_fare"`
	PaymentStatus string  `json:"payment_status"`
	CompletedAt   string  `json:"completed_at"`
}

type DriverLocationDto struct {
	RideId   string  `json:"ride_id"`
	DriverId string  `json:"driver_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

type RideDetailsDto struct {
	RideId             string   `json:"ride_id"`
	RideNumber         string   `json:"ride_number"`
	Status             string   `json:"status"`
	RiderId            string   `json:"rider_id"`
	DriverId           string   `json:"driver_id,omitempty"`
	PickupAddress      string   `json:"pickup_address"`
	DestinationAddress string   `json:"destination_address"`
	PickupLat          float64  `json:"pickup_lat"`
	PickupLng          float64  `json:"pickup_lng"`
	DestinationLat     float64  `json:"destination_lat"`
	DestinationLng     float64  `json:"destination_lng"`
	RoutePolyline      string   `json:"route_polyline,omitempty"`
	DistanceKm         float64  `json:"distance_km"`
	EstimatedFare      float64  `json:"estimated_fare"`
	FinalFare          *float64 `json:"final_fare,omitempty"`
	Tip                *float64 `json:"tip,omitempty"`
	SurgeMultiplier    float64  `json:"surge_multiplier"`
	PaymentStatus      string   `json:"payment_status"`
	CreatedAt          string   `json:"created_at"`
}
