package ports

import (
	"context"

	"ridelink/internal/ride-service/core/domain/model"
)

type RouteResult struct {
	Polyline        string
	Points          []model.LatLng
	DistanceMeters  float64
	DurationSeconds float64
}

// IRoutingClient is the external geocoding/routing collaborator. NotFound
// and NoRoute are user-facing failures, never retried.
type IRoutingClient interface {
	Geocode(ctx context.Context, address string) (model.LatLng, error)
	Route(ctx context.Context, from, to model.LatLng) (RouteResult, error)
}
