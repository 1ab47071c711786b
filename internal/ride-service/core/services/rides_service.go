package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/domain/dto"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	messagebrokerdto "ridelink/internal/ride-service/core/domain/message_broker_dto"
	websocketdto "ridelink/internal/ride-service/core/domain/websocket_dto"

	"github.com/google/uuid"
)

const storeTimeout = 15 * time.Second

// rideNumberAttempts bounds the retry on a minted ride number losing the
// uniqueness race to a concurrent request.
const rideNumberAttempts = 3

type RidesService struct {
	mylog     mylogger.Logger
	repo      ports.IRidesRepo
	drivers   ports.IDriversRepo
	broker    ports.IEventsPublisher
	routing   ports.IRoutingClient
	payment   ports.IPaymentClient
	locations ports.ILocationCache

	fare  FareCalculator
	surge float64
}

func NewRidesService(
	log mylogger.Logger,
	repo ports.IRidesRepo,
	drivers ports.IDriversRepo,
	broker ports.IEventsPublisher,
	routing ports.IRoutingClient,
	payment ports.IPaymentClient,
	locations ports.ILocationCache,
	fare FareCalculator,
	surge float64,
) ports.IRidesService {
	if surge <= 0 {
		surge = DefaultSurge
	}
	return &RidesService{
		mylog:     log,
		repo:      repo,
		drivers:   drivers,
		broker:    broker,
		routing:   routing,
		payment:   payment,
		locations: locations,
		fare:      fare,
		surge:     surge,
	}
}

// RequestRide resolves geography through the routing collaborator, then
// inserts the ride conditionally. A routing failure aborts before any write,
// so no partial ride record can exist.
func (rs *RidesService) RequestRide(ctx context.Context, actor model.Actor, req dto.RideRequestDto) (dto.RideResponseDto, error) {
	log := rs.mylog.Action("RequestRide")

	if actor.Role != model.RoleRider {
		return dto.RideResponseDto{}, myerrors.ErrForbidden
	}
	if err := validateRideRequest(req); err != nil {
		return dto.RideResponseDto{}, err
	}

	pickup, err := rs.routing.Geocode(ctx, req.PickupAddress)
	if err != nil {
		log.Warn("pickup geocoding failed", "address", req.PickupAddress)
		return dto.RideResponseDto{}, err
	}
	destination, err := rs.routing.Geocode(ctx, req.DestinationAddress)
	if err != nil {
		log.Warn("destination geocoding failed", "address", req.DestinationAddress)
		return dto.RideResponseDto{}, err
	}
	route, err := rs.routing.Route(ctx, pickup, destination)
	if err != nil {
		log.Warn("route resolution failed", "pickup", req.PickupAddress, "destination", req.DestinationAddress)
		return dto.RideResponseDto{}, err
	}

	distanceKm := route.DistanceMeters / 1000
	estimatedFare := rs.fare.Calculate(distanceKm, rs.surge)

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	m := model.Ride{
		ID:                 uuid.NewString(),
		RiderID:            actor.ID,
		Status:             model.StatusRequested,
		PickupAddress:      req.PickupAddress,
		PickupLat:          pickup.Lat,
		PickupLng:          pickup.Lng,
		DestinationAddress: req.DestinationAddress,
		DestinationLat:     destination.Lat,
		DestinationLng:     destination.Lng,
		RoutePolyline:      route.Polyline,
		RoutePoints:        route.Points,
		DistanceKm:         distanceKm,
		DurationMinutes:    route.DurationSeconds / 60,
		EstimatedFare:      estimatedFare,
		SurgeMultiplier:    rs.surge,
		PaymentStatus:      model.PaymentPending,
	}

	// the number is minted from a count, so two concurrent requests can mint
	// the same one; the unique index rejects the loser and we re-mint
	var rideID, rideNumber string
	for attempt := 1; ; attempt++ {
		numberToday, err := rs.repo.CountCreatedToday(storeCtx)
		if err != nil {
			log.Error("cannot count today's rides", err)
			return dto.RideResponseDto{}, err
		}
		rideNumber = fmt.Sprintf("RIDE_%s_%03d", time.Now().Format("20060102"), numberToday+1)
		m.RideNumber = rideNumber

		rideID, err = rs.repo.CreateRequested(storeCtx, m)
		if err == nil {
			break
		}
		if errors.Is(err, myerrors.ErrRideNumberTaken) && attempt < rideNumberAttempts {
			log.Warn("ride number collision", "ride_number", rideNumber, "attempt", attempt)
			continue
		}
		return dto.RideResponseDto{}, err
	}

	log.Info("ride requested",
		"ride_id", rideID,
		"ride_number", rideNumber,
		"rider_id", actor.ID,
		"distance_km", distanceKm,
		"estimated_fare", estimatedFare,
	)

	rs.publish(ctx, log, messagebrokerdto.RideEvent{
		Type:    messagebrokerdto.RideRequested,
		RideID:  rideID,
		RiderID: actor.ID,
	}, websocketdto.NewAvailableRide{
		RideID:             rideID,
		RideNumber:         rideNumber,
		PickupAddress:      req.PickupAddress,
		PickupLat:          pickup.Lat,
		PickupLng:          pickup.Lng,
		DestinationAddress: req.DestinationAddress,
		DistanceKm:         distanceKm,
		EstimatedFare:      estimatedFare,
	})

	return dto.RideResponseDto{
		RideId:                   rideID,
		RideNumber:               rideNumber,
		Status:                   model.StatusRequested,
		EstimatedFare:            estimatedFare,
		EstimatedDistanceKm:      distanceKm,
		EstimatedDurationMinutes: route.DurationSeconds / 60,
		SurgeMultiplier:          rs.surge,
	}, nil
}

// AcceptRide claims the ride for the driver with a single conditional write.
// Under N concurrent claims exactly one succeeds; the rest see a conflict.
func (rs *RidesService) AcceptRide(ctx context.Context, actor model.Actor, rideID string) (dto.RideAcceptResponseDto, error) {
	log := rs.mylog.Action("AcceptRide")

	if actor.Role != model.RoleDriver {
		return dto.RideAcceptResponseDto{}, myerrors.ErrForbidden
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ride, err := rs.repo.Assign(storeCtx, rideID, actor.ID)
	if err != nil {
		return dto.RideAcceptResponseDto{}, err
	}

	log.Info("ride accepted", "ride_id", rideID, "driver_id", actor.ID)

	update := websocketdto.RideStatusUpdate{
		RideID:        rideID,
		RideNumber:    ride.RideNumber,
		Status:        model.StatusAccepted,
		CorrelationID: newCorrelationID(),
	}
	if info, infoErr := rs.drivers.GetInfo(storeCtx, actor.ID); infoErr == nil {
		update.DriverInfo = &websocketdto.DriverInfo{
			DriverID: info.DriverID,
			Name:     info.Name,
			Rating:   info.Rating,
			Vehicle:  websocketdto.Vehicle(info.Vehicle),
		}
	} else {
		// enrichment only; the assignment itself already committed
		log.Warn("driver info lookup failed", "driver_id", actor.ID)
	}

	rs.publish(ctx, log, messagebrokerdto.RideEvent{
		Type:     messagebrokerdto.RideAccepted,
		RideID:   rideID,
		RiderID:  ride.RiderID,
		DriverID: actor.ID,
	}, update)

	return dto.RideAcceptResponseDto{
		RideId:        ride.ID,
		RideNumber:    ride.RideNumber,
		Status:        ride.Status,
		RiderId:       ride.RiderID,
		PickupAddress: ride.PickupAddress,
		PickupLat:     ride.PickupLat,
		PickupLng:     ride.PickupLng,
		EstimatedFare: ride.EstimatedFare,
	}, nil
}

func (rs *RidesService) StartRide(ctx context.Context, actor model.Actor, rideID string) (dto.RideDetailsDto, error) {
	log := rs.mylog.Action("StartRide")

	if actor.Role != model.RoleDriver {
		return dto.RideDetailsDto{}, myerrors.ErrForbidden
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ride, err := rs.repo.Start(storeCtx, rideID, actor.ID)
	if err != nil {
		return dto.RideDetailsDto{}, err
	}

	log.Info("ride started", "ride_id", rideID, "driver_id", actor.ID)

	rs.publish(ctx, log, messagebrokerdto.RideEvent{
		Type:     messagebrokerdto.RideStarted,
		RideID:   rideID,
		RiderID:  ride.RiderID,
		DriverID: actor.ID,
	}, websocketdto.RideStatusUpdate{
		RideID:        rideID,
		RideNumber:    ride.RideNumber,
		Status:        model.StatusInProgress,
		CorrelationID: newCorrelationID(),
	})

	return rideDetails(ride), nil
}

// CompleteRide prices the ride from the distance fixed at request time,
// captures payment, then runs the completion transaction: status CAS,
// ledger append and weekly upsert commit together or not at all.
func (rs *RidesService) CompleteRide(ctx context.Context, actor model.Actor, rideID string) (dto.RideCompleteResponseDto, error) {
	log := rs.mylog.Action("CompleteRide")

	if actor.Role != model.RoleDriver {
		return dto.RideCompleteResponseDto{}, myerrors.ErrForbidden
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ride, err := rs.repo.GetByID(storeCtx, rideID)
	if err != nil {
		return dto.RideCompleteResponseDto{}, err
	}
	if ride.DriverID != actor.ID {
		return dto.RideCompleteResponseDto{}, myerrors.ErrNotAssignedDriver
	}
	switch ride.Status {
	case model.StatusAccepted, model.StatusInProgress:
	case model.StatusCompleted:
		return dto.RideCompleteResponseDto{}, myerrors.ErrAlreadyCompleted
	default:
		return dto.RideCompleteResponseDto{}, myerrors.ErrInvalidStateForComplete
	}

	finalFare := rs.fare.Calculate(ride.DistanceKm, ride.SurgeMultiplier)

	intentRef, err := rs.payment.CreateIntent(ctx, finalFare)
	if err != nil {
		log.Error("payment intent creation failed", err, "ride_id", rideID)
		return dto.RideCompleteResponseDto{}, myerrors.Wrap(myerrors.KindUpstream, "payment intent creation failed", err)
	}
	if err := rs.payment.Confirm(ctx, intentRef); err != nil {
		log.Error("payment confirmation failed", err, "ride_id", rideID, "intent_ref", intentRef)
		return dto.RideCompleteResponseDto{}, myerrors.Wrap(myerrors.KindUpstream, "payment confirmation failed", err)
	}

	weekStart, weekEnd := BillingPeriod(time.Now())

	completed, err := rs.repo.Complete(storeCtx, ports.CompleteParams{
		RideID:           rideID,
		DriverID:         actor.ID,
		FinalFare:        finalFare,
		PaymentIntentRef: intentRef,
		WeekStart:        weekStart,
		WeekEnd:          weekEnd,
	})
	if err != nil {
		// the CAS lost (for example to a racing cancel): no earnings were
		// credited, surface the conflict as-is
		return dto.RideCompleteResponseDto{}, err
	}

	log.Info("ride completed",
		"ride_id", rideID,
		"driver_id", actor.ID,
		"final_fare", finalFare,
		"week_start", BillingDate(weekStart),
	)

	rs.publish(ctx, log, messagebrokerdto.RideEvent{
		Type:     messagebrokerdto.RideCompleted,
		RideID:   rideID,
		RiderID:  completed.RiderID,
		DriverID: actor.ID,
	}, websocketdto.RideStatusUpdate{
		RideID:        rideID,
		RideNumber:    completed.RideNumber,
		Status:        model.StatusCompleted,
		FinalFare:     &finalFare,
		CorrelationID: newCorrelationID(),
	})

	// the ride is over; a stale geo entry would keep serving the last
	// position to nobody
	if err := rs.locations.RemoveDriverLocation(ctx, actor.ID); err != nil {
		log.Warn("location cleanup failed", "driver_id", actor.ID, "err", err.Error())
	}

	completedAt := time.Now()
	if completed.CompletedAt != nil {
		completedAt = *completed.CompletedAt
	}

	return dto.RideCompleteResponseDto{
		RideId:        rideID,
		Status:        model.StatusCompleted,
		FinalFare:     finalFare,
		PaymentStatus: model.PaymentProcessed,
		CompletedAt:   completedAt.Format(time.RFC3339),
	}, nil
}

func (rs *RidesService) CancelRide(ctx context.Context, actor model.Actor, rideID string, req dto.RideCancelRequestDto) (dto.RideCancelResponseDto, error) {
	log := rs.mylog.Action("CancelRide")

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ride, err := rs.repo.GetByID(storeCtx, rideID)
	if err != nil {
		return dto.RideCancelResponseDto{}, err
	}
	if actor.Role != model.RoleAdmin && !ride.IsParticipant(actor) {
		return dto.RideCancelResponseDto{}, myerrors.ErrForbidden
	}

	wasRequested := ride.Status == model.StatusRequested

	cancelled, err := rs.repo.Cancel(storeCtx, rideID, req.Reason, actor.Role)
	if err != nil {
		return dto.RideCancelResponseDto{}, err
	}

	log.Info("ride cancelled", "ride_id", rideID, "cancelled_by", actor.Role, "reason", req.Reason)

	rs.publish(ctx, log, messagebrokerdto.RideEvent{
		Type:         messagebrokerdto.RideCancelled,
		RideID:       rideID,
		RiderID:      cancelled.RiderID,
		DriverID:     cancelled.DriverID,
		CancelledBy:  actor.Role,
		WasRequested: wasRequested,
	}, websocketdto.RideStatusUpdate{
		RideID:        rideID,
		RideNumber:    cancelled.RideNumber,
		Status:        model.StatusCancelled,
		Message:       req.Reason,
		CorrelationID: newCorrelationID(),
	})

	if cancelled.DriverID != "" {
		if err := rs.locations.RemoveDriverLocation(ctx, cancelled.DriverID); err != nil {
			log.Warn("location cleanup failed", "driver_id", cancelled.DriverID, "err", err.Error())
		}
	}

	cancelledAt := time.Now()
	if cancelled.CancelledAt != nil {
		cancelledAt = *cancelled.CancelledAt
	}

	return dto.RideCancelResponseDto{
		RideId:      rideID,
		Status:      model.StatusCancelled,
		CancelledAt: cancelledAt.Format(time.RFC3339),
		Message:     "Ride cancelled successfully",
	}, nil
}

func (rs *RidesService) GetRide(ctx context.Context, actor model.Actor, rideID string) (dto.RideDetailsDto, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ride, err := rs.repo.GetByID(storeCtx, rideID)
	if err != nil {
		return dto.RideDetailsDto{}, err
	}
	if actor.Role != model.RoleAdmin && !ride.IsParticipant(actor) {
		return dto.RideDetailsDto{}, myerrors.ErrForbidden
	}
	return rideDetails(ride), nil
}

// DriverLocation serves the last position the assigned driver pushed over
// the websocket, read back from the geo cache. Participants and admins only.
func (rs *RidesService) DriverLocation(ctx context.Context, actor model.Actor, rideID string) (dto.DriverLocationDto, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	ride, err := rs.repo.GetByID(storeCtx, rideID)
	if err != nil {
		return dto.DriverLocationDto{}, err
	}
	if actor.Role != model.RoleAdmin && !ride.IsParticipant(actor) {
		return dto.DriverLocationDto{}, myerrors.ErrForbidden
	}
	if ride.DriverID == "" {
		return dto.DriverLocationDto{}, myerrors.ErrLocationUnknown
	}

	pos, err := rs.locations.DriverLocation(storeCtx, ride.DriverID)
	if err != nil {
		return dto.DriverLocationDto{}, err
	}

	return dto.DriverLocationDto{
		RideId:   rideID,
		DriverId: ride.DriverID,
		Lat:      pos.Lat,
		Lng:      pos.Lng,
	}, nil
}

func (rs *RidesService) ActiveRides(ctx context.Context, actor model.Actor) ([]dto.RideDetailsDto, error) {
	if actor.Role != model.RoleAdmin {
		return nil, myerrors.ErrForbidden
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	rides, err := rs.repo.ActiveRides(storeCtx)
	if err != nil {
		return nil, err
	}

	res := make([]dto.RideDetailsDto, 0, len(rides))
	for _, r := range rides {
		res = append(res, rideDetails(r))
	}
	return res, nil
}

// publish hands the event to the fan-out fabric. Best-effort: the transition
// already committed, a lost event is recovered by polling the store.
func (rs *RidesService) publish(ctx context.Context, log mylogger.Logger, ev messagebrokerdto.RideEvent, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("cannot marshal event payload", err, "event_type", ev.Type)
		return
	}
	ev.Payload = data
	ev.CorrelationID = newCorrelationID()
	ev.Timestamp = time.Now()

	if err := rs.broker.PublishRideEvent(ctx, ev); err != nil {
		log.Error("event publish failed", err, "event_type", ev.Type, "ride_id", ev.RideID)
	}
}

func rideDetails(r model.Ride) dto.RideDetailsDto {
	return dto.RideDetailsDto{
		RideId:             r.ID,
		RideNumber:         r.RideNumber,
		Status:             r.Status,
		RiderId:            r.RiderID,
		DriverId:           r.DriverID,
		PickupAddress:      r.PickupAddress,
		DestinationAddress: r.DestinationAddress,
		PickupLat:          r.PickupLat,
		PickupLng:          r.PickupLng,
		DestinationLat:     r.DestinationLat,
		DestinationLng:     r.DestinationLng,
		RoutePolyline:      r.RoutePolyline,
		DistanceKm:         r.DistanceKm,
		EstimatedFare:      r.EstimatedFare,
		FinalFare:          r.FinalFare,
		Tip:                r.Tip,
		SurgeMultiplier:    r.SurgeMultiplier,
		PaymentStatus:      r.PaymentStatus,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
}

func newCorrelationID() string {
	return "req_" + uuid.NewString()
}
