package db

import (
	"context"
	"errors"
	"time"

	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	"github.com/jackc/pgx/v5"
)

// EarningsRepo is read-only: both ledger writes live inside the ride
// completion transaction in RidesRepo.Complete.
type EarningsRepo struct {
	db *DB
}

func NewEarningsRepo(db *DB) ports.IEarningsRepo {
	return &EarningsRepo{
		db: db,
	}
}

func (er *EarningsRepo) WeeklyAggregate(ctx context.Context, driverID string, weekStart time.Time) (model.WeeklyEarnings, error) {
	q := `
	SELECT driver_id, week_start, week_end, total_earnings, ride_count
	FROM driver_weekly_earnings
	WHERE driver_id = $1 AND week_start = $2`

	var m model.WeeklyEarnings
	err := er.db.pool.QueryRow(ctx, q, driverID, weekStart).Scan(
		&m.DriverID, &m.WeekStart, &m.WeekEnd, &m.TotalEarnings, &m.RideCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// no completions this period: an empty aggregate, not an error
			return model.WeeklyEarnings{
				DriverID:  driverID,
				WeekStart: weekStart,
			}, nil
		}
		return model.WeeklyEarnings{}, myerrors.Wrap(myerrors.KindStorage, "fetch weekly earnings", err)
	}
	return m, nil
}

func (er *EarningsRepo) History(ctx context.Context, driverID string) ([]model.EarningsEntry, error) {
	q := `
	SELECT entry_id, driver_id, ride_id, amount, created_at
	FROM driver_earnings
	WHERE driver_id = $1
	ORDER BY created_at DESC`

	rows, err := er.db.pool.Query(ctx, q, driverID)
	if err != nil {
		return nil, myerrors.Wrap(myerrors.KindStorage, "list earnings", err)
	}
	defer rows.Close()

	var entries []model.EarningsEntry
	for rows.Next() {
		var e model.EarningsEntry
		if err := rows.Scan(&e.ID, &e.DriverID, &e.RideID, &e.Amount, &e.CreatedAt); err != nil {
			return nil, myerrors.Wrap(myerrors.KindStorage, "scan earnings entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, myerrors.Wrap(myerrors.KindStorage, "iterate earnings", err)
	}
	return entries, nil
}
