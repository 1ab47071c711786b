package ports

import (
	"context"

	"ridelink/internal/ride-service/core/domain/dto"
	"ridelink/internal/ride-service/core/domain/model"
)

type IRidesService interface {
	RequestRide(ctx context.Context, actor model.Actor, req dto.RideRequestDto) (dto.RideResponseDto, error)
	AcceptRide(ctx context.Context, actor model.Actor, rideID string) (dto.RideAcceptResponseDto, error)
	StartRide(ctx context.Context, actor model.Actor, rideID string) (dto.RideDetailsDto, error)
	CompleteRide(ctx context.Context, actor model.Actor, rideID string) (dto.RideCompleteResponseDto, error)
	CancelRide(ctx context.Context, actor model.Actor, rideID string, req dto.RideCancelRequestDto) (dto.RideCancelResponseDto, error)

	// GetRide is the pull-based fallback behind every broadcast event.
	GetRide(ctx context.Context, actor model.Actor, rideID string) (dto.RideDetailsDto, error)

	// DriverLocation is the pull-based fallback for the websocket location
	// stream, read from the geo cache.
	DriverLocation(ctx context.Context, actor model.Actor, rideID string) (dto.DriverLocationDto, error)

	ActiveRides(ctx context.Context, actor model.Actor) ([]dto.RideDetailsDto, error)
}

type IEarningsService interface {
	WeeklyEarnings(ctx context.Context, actor model.Actor, driverID, at string) (dto.WeeklyEarningsDto, error)
	History(ctx context.Context, actor model.Actor, driverID string) ([]dto.EarningsEntryDto, error)
}

type IRatingService interface {
	SubmitRating(ctx context.Context, actor model.Actor, rideID string, req dto.RatingRequestDto) (dto.RatingResponseDto, error)
	AverageRating(ctx context.Context, actor model.Actor, userID string) (dto.AverageRatingDto, error)
}
