package ports

import (
	"context"
	"time"

	"ridelink/internal/ride-service/core/domain/model"
)

// CompleteParams carries everything the completion transaction writes:
// the status CAS, the ledger entry and the weekly aggregate upsert all
// happen in one transaction or not at all.
type CompleteParams struct {
	RideID           string
	DriverID         string
	FinalFare        float64
	PaymentIntentRef string
	WeekStart        time.Time
	WeekEnd          time.Time
}

type IRidesRepo interface {
	// CreateRequested inserts the ride conditionally: it is a no-op when the
	// rider already has a ride in REQUESTED or ACCEPTED, in which case
	// myerrors.ErrActiveRideExists is returned. Single statement, no
	// query-then-insert race.
	CreateRequested(ctx context.Context, m model.Ride) (string, error)

	GetByID(ctx context.Context, rideID string) (model.Ride, error)

	// Assign is the compare-and-swap at the heart of the system:
	// UPDATE ... SET status='ACCEPTED', driver_id=$d
	// WHERE ride_id=$r AND status='REQUESTED'.
	// Zero rows affected means the race was lost (or the ride is gone);
	// the repo re-reads once to classify the failure.
	Assign(ctx context.Context, rideID, driverID string) (model.Ride, error)

	// Start transitions ACCEPTED -> IN_PROGRESS for the assigned driver.
	Start(ctx context.Context, rideID, driverID string) (model.Ride, error)

	// Complete runs the completion transaction described by CompleteParams.
	// The status CAS guards re-delivery: a second call affects zero rows and
	// the ledger is never touched twice.
	Complete(ctx context.Context, p CompleteParams) (model.Ride, error)

	// Cancel transitions any non-terminal status to CANCELLED.
	Cancel(ctx context.Context, rideID, reason, cancelledBy string) (model.Ride, error)

	SetTip(ctx context.Context, rideID string, tip float64) error

	CountCreatedToday(ctx context.Context) (int64, error)

	ActiveRides(ctx context.Context) ([]model.Ride, error)
}

type IEarningsRepo interface {
	WeeklyAggregate(ctx context.Context, driverID string, weekStart time.Time) (model.WeeklyEarnings, error)
	History(ctx context.Context, driverID string) ([]model.EarningsEntry, error)
}

type IRatingsRepo interface {
	// Insert returns myerrors.ErrDuplicateRating when a rating by the same
	// rater for the same ride already exists (ON CONFLICT DO NOTHING).
	Insert(ctx context.Context, m model.Rating) error
	AverageFor(ctx context.Context, userID string) (float64, int64, error)
}

type IDriversRepo interface {
	GetInfo(ctx context.Context, driverID string) (model.DriverInfo, error)
}
