package services

import (
	"context"

	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/domain/dto"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	"github.com/google/uuid"
)

type RatingService struct {
	mylog   mylogger.Logger
	ratings ports.IRatingsRepo
	rides   ports.IRidesRepo
}

func NewRatingService(log mylogger.Logger, ratings ports.IRatingsRepo, rides ports.IRidesRepo) ports.IRatingService {
	return &RatingService{
		mylog:   log,
		ratings: ratings,
		rides:   rides,
	}
}

// SubmitRating records one rating per (ride, rater) for a completed ride.
// A tip submitted with the rating lands on the ride, outside the fare that
// was fixed at completion time.
func (s *RatingService) SubmitRating(ctx context.Context, actor model.Actor, rideID string, req dto.RatingRequestDto) (dto.RatingResponseDto, error) {
	log := s.mylog.Action("SubmitRating")

	if req.Score < 1 || req.Score > 5 {
		return dto.RatingResponseDto{}, myerrors.E(myerrors.KindValidation, "score must be between 1 and 5")
	}
	if req.Tip != nil && *req.Tip < 0 {
		return dto.RatingResponseDto{}, myerrors.E(myerrors.KindValidation, "tip must not be negative")
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ride, err := s.rides.GetByID(storeCtx, rideID)
	if err != nil {
		return dto.RatingResponseDto{}, err
	}
	if !ride.IsParticipant(actor) {
		return dto.RatingResponseDto{}, myerrors.ErrForbidden
	}
	if ride.Status != model.StatusCompleted {
		return dto.RatingResponseDto{}, myerrors.ErrRideNotCompleted
	}

	// the ratee is the other party of the ride
	rateeID := ride.DriverID
	if actor.Role == model.RoleDriver {
		rateeID = ride.RiderID
	}

	m := model.Rating{
		ID:      uuid.NewString(),
		RideID:  rideID,
		RaterID: actor.ID,
		RateeID: rateeID,
		Score:   req.Score,
		Review:  req.Review,
	}
	if err := s.ratings.Insert(storeCtx, m); err != nil {
		return dto.RatingResponseDto{}, err
	}

	if req.Tip != nil && *req.Tip > 0 {
		// the rating is already in; a lost tip write must not pretend the
		// rating failed
		if err := s.rides.SetTip(storeCtx, rideID, *req.Tip); err != nil {
			log.Error("tip update failed after rating insert", err, "ride_id", rideID)
		}
	}

	log.Info("rating submitted", "ride_id", rideID, "rater_id", actor.ID, "score", req.Score)

	return dto.RatingResponseDto{
		RideId:  rideID,
		RaterId: actor.ID,
		RateeId: rateeID,
		Score:   req.Score,
		Message: "Rating submitted successfully",
	}, nil
}

// AverageRating is not exposed to riders: a rider cannot look up another
// user's aggregate through this path.
func (s *RatingService) AverageRating(ctx context.Context, actor model.Actor, userID string) (dto.AverageRatingDto, error) {
	if actor.Role == model.RoleRider {
		return dto.AverageRatingDto{}, myerrors.ErrForbidden
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	avg, count, err := s.ratings.AverageFor(storeCtx, userID)
	if err != nil {
		return dto.AverageRatingDto{}, err
	}

	return dto.AverageRatingDto{
		UserId:  userID,
		Average: avg,
		Count:   count,
	}, nil
}
