package services

import (
	"context"
	"time"

	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/domain/dto"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"
)

// EarningsService answers read queries against the ledger. All writes happen
// inside the coordinator's completion transaction, never here.
type EarningsService struct {
	mylog mylogger.Logger
	repo  ports.IEarningsRepo
}

func NewEarningsService(log mylogger.Logger, repo ports.IEarningsRepo) ports.IEarningsService {
	return &EarningsService{
		mylog: log,
		repo:  repo,
	}
}

// WeeklyEarnings returns the aggregate for the billing period enclosing at
// (RFC3339; empty means now). Drivers may only query themselves.
func (es *EarningsService) WeeklyEarnings(ctx context.Context, actor model.Actor, driverID, at string) (dto.WeeklyEarningsDto, error) {
	if err := authorizeEarnings(actor, driverID); err != nil {
		return dto.WeeklyEarningsDto{}, err
	}

	ts := time.Now()
	if at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return dto.WeeklyEarningsDto{}, myerrors.E(myerrors.KindValidation, "at must be RFC3339")
		}
		ts = parsed
	}

	weekStart, weekEnd := BillingPeriod(ts)

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	agg, err := es.repo.WeeklyAggregate(storeCtx, driverID, weekStart)
	if err != nil {
		return dto.WeeklyEarningsDto{}, err
	}

	// a driver with no completions this period has an empty, not missing, week
	return dto.WeeklyEarningsDto{
		DriverId:      driverID,
		WeekStart:     BillingDate(weekStart),
		WeekEnd:       BillingDate(weekEnd),
		TotalEarnings: agg.TotalEarnings,
		RideCount:     agg.RideCount,
	}, nil
}

func (es *EarningsService) History(ctx context.Context, actor model.Actor, driverID string) ([]dto.EarningsEntryDto, error) {
	if err := authorizeEarnings(actor, driverID); err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	entries, err := es.repo.History(storeCtx, driverID)
	if err != nil {
		return nil, err
	}

	res := make([]dto.EarningsEntryDto, 0, len(entries))
	for _, e := range entries {
		res = append(res, dto.EarningsEntryDto{
			RideId:    e.RideID,
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}

func authorizeEarnings(actor model.Actor, driverID string) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if actor.Role == model.RoleDriver && actor.ID == driverID {
		return nil
	}
	return myerrors.ErrForbidden
}
