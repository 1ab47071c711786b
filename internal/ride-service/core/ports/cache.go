package ports

import (
	"context"

	"ridelink/internal/ride-service/core/domain/model"
)

// ILocationCache keeps the last known driver position so a rider that missed
// location events over the socket can poll instead.
type ILocationCache interface {
	UpdateDriverLocation(ctx context.Context, driverID string, pos model.LatLng) error
	DriverLocation(ctx context.Context, driverID string) (model.LatLng, error)
	RemoveDriverLocation(ctx context.Context, driverID string) error
}
