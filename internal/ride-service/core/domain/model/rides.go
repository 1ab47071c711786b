package model

import "time"

// Ride statuses. ARRIVED is deliberately absent: arrival is a websocket
// notification, never persisted state.
const (
	StatusRequested  = "REQUESTED"
	StatusAccepted   = "ACCEPTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

const (
	PaymentPending   = "PENDING"
	PaymentProcessed = "PROCESSED"
)

const (
	RoleRider  = "RIDER"
	RoleDriver = "DRIVER"
	RoleAdmin  = "ADMIN"
)

// Actor is the authenticated identity attached to every coordinator call.
// Identity is always explicit, never ambient.
type Actor struct {
	ID   string
	Role string
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Ride struct {
	ID         string // uuid
	RideNumber string
	RiderID    string // uuid
	DriverID   string // uuid, empty until assigned, then immutable for audit

	Status string

	PickupAddress      string
	PickupLat          float64
	PickupLng          float64
	DestinationAddress string
	DestinationLat     float64
	DestinationLng     float64

	// Route is stored redundantly: encoded for transport, decoded for
	// consumers that need the point sequence.
	RoutePolyline string
	RoutePoints   []LatLng

	DistanceKm      float64 // fixed at request time, never recomputed
	DurationMinutes float64

	EstimatedFare    float64
	FinalFare        *float64 // set iff status == COMPLETED
	Tip              *float64
	SurgeMultiplier  float64
	PaymentStatus    string
	PaymentIntentRef string

	CancellationReason string

	CreatedAt   time.Time
	MatchedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Active reports whether the ride still blocks the rider from requesting
// another one.
func (r Ride) Active() bool {
	return r.Status == StatusRequested || r.Status == StatusAccepted
}

func (r Ride) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusCancelled
}

// IsParticipant reports whether the actor is the rider or assigned driver.
func (r Ride) IsParticipant(actor Actor) bool {
	switch actor.Role {
	case RoleRider:
		return actor.ID == r.RiderID
	case RoleDriver:
		return r.DriverID != "" && actor.ID == r.DriverID
	}
	return false
}

type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Plate string `json:"plate"`
	Color string `json:"color"`
}

// DriverInfo is read-only presentation enrichment from the profile store.
type DriverInfo struct {
	DriverID string  `json:"driver_id"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	Vehicle  Vehicle `json:"vehicle"`
}
