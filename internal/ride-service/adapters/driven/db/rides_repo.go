package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type RidesRepo struct {
	db *DB
}

func NewRidesRepo(db *DB) ports.IRidesRepo {
	return &RidesRepo{
		db: db,
	}
}

const rideColumns = `
	ride_id, ride_number, rider_id, driver_id, status,
	pickup_address, pickup_lat, pickup_lng,
	destination_address, destination_lat, destination_lng,
	route_polyline, route_points, distance_km, duration_minutes,
	estimated_fare, final_fare, tip, surge_multiplier,
	payment_status, payment_intent_ref, cancellation_reason,
	created_at, matched_at, started_at, completed_at, cancelled_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (model.Ride, error) {
	var (
		m            model.Ride
		driverID     sql.NullString
		routePoints  []byte
		finalFare    sql.NullFloat64
		tip          sql.NullFloat64
		intentRef    sql.NullString
		cancelReason sql.NullString
		matchedAt    sql.NullTime
		startedAt    sql.NullTime
		completedAt  sql.NullTime
		cancelledAt  sql.NullTime
	)

	err := row.Scan(
		&m.ID, &m.RideNumber, &m.RiderID, &driverID, &m.Status,
		&m.PickupAddress, &m.PickupLat, &m.PickupLng,
		&m.DestinationAddress, &m.DestinationLat, &m.DestinationLng,
		&m.RoutePolyline, &routePoints, &m.DistanceKm, &m.DurationMinutes,
		&m.EstimatedFare, &finalFare, &tip, &m.SurgeMultiplier,
		&m.PaymentStatus, &intentRef, &cancelReason,
		&m.CreatedAt, &matchedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if err != nil {
		return model.Ride{}, err
	}

	m.DriverID = driverID.String
	m.PaymentIntentRef = intentRef.String
	m.CancellationReason = cancelReason.String
	if finalFare.Valid {
		m.FinalFare = &finalFare.Float64
	}
	if tip.Valid {
		m.Tip = &tip.Float64
	}
	if len(routePoints) > 0 {
		if err := json.Unmarshal(routePoints, &m.RoutePoints); err != nil {
			return model.Ride{}, fmt.Errorf("failed to unmarshal route points: %w", err)
		}
	}
	m.MatchedAt = nullableTime(matchedAt)
	m.StartedAt = nullableTime(startedAt)
	m.CompletedAt = nullableTime(completedAt)
	m.CancelledAt = nullableTime(cancelledAt)

	return m, nil
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// CreateRequested inserts the ride only when the rider has no ride in
// REQUESTED or ACCEPTED. The WHERE NOT EXISTS is a fast path; the unique
// partial index on (rider_id) WHERE active is the authoritative guard, since
// under READ COMMITTED two concurrent inserts can each miss the other's
// uncommitted row.
func (rr *RidesRepo) CreateRequested(ctx context.Context, m model.Ride) (string, error) {
	points, err := json.Marshal(m.RoutePoints)
	if err != nil {
		return "", fmt.Errorf("failed to marshal route points: %w", err)
	}

	q := `
	INSERT INTO rides (
		ride_id, ride_number, rider_id, status,
		pickup_address, pickup_lat, pickup_lng,
		destination_address, destination_lat, destination_lng,
		route_polyline, route_points, distance_km, duration_minutes,
		estimated_fare, surge_multiplier, payment_status
	)
	SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
	WHERE NOT EXISTS (
		SELECT 1 FROM rides
		WHERE rider_id = $3 AND status IN ('REQUESTED', 'ACCEPTED')
	)`

	tx, err := rr.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", myerrors.Wrap(myerrors.KindStorage, "begin tx", err)
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	tag, err := tx.Exec(ctx, q,
		m.ID, m.RideNumber, m.RiderID, model.StatusRequested,
		m.PickupAddress, m.PickupLat, m.PickupLng,
		m.DestinationAddress, m.DestinationLat, m.DestinationLng,
		m.RoutePolyline, points, m.DistanceKm, m.DurationMinutes,
		m.EstimatedFare, m.SurgeMultiplier, m.PaymentStatus,
	)
	if err != nil {
		return "", classifyInsertError(err)
	}
	if tag.RowsAffected() == 0 {
		return "", myerrors.ErrActiveRideExists
	}

	if err := insertRideEvent(ctx, tx, m.ID, "ride_requested", nil); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", myerrors.Wrap(myerrors.KindStorage, "commit", err)
	}
	return m.ID, nil
}

// classifyInsertError maps a unique-index violation onto the precise
// conflict the caller can act on.
func classifyInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "idx_rides_rider_active":
			return myerrors.ErrActiveRideExists
		case "uq_rides_ride_number":
			return myerrors.ErrRideNumberTaken
		}
	}
	return myerrors.Wrap(myerrors.KindStorage, "insert ride", err)
}

func (rr *RidesRepo) GetByID(ctx context.Context, rideID string) (model.Ride, error) {
	q := `SELECT` + rideColumns + ` FROM rides WHERE ride_id = $1`

	m, err := scanRide(rr.db.pool.QueryRow(ctx, q, rideID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Ride{}, myerrors.ErrRideNotFound
		}
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "fetch ride", err)
	}
	return m, nil
}

// Assign is the one genuinely racy transition: N drivers may claim the same
// ride at once. The WHERE clause is the whole protocol; there is no
// read-then-write and no application lock.
func (rr *RidesRepo) Assign(ctx context.Context, rideID, driverID string) (model.Ride, error) {
	q := `
	UPDATE rides
	SET status = 'ACCEPTED', driver_id = $2, matched_at = now()
	WHERE ride_id = $1 AND status = 'REQUESTED'
	RETURNING` + rideColumns

	tx, err := rr.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "begin tx", err)
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	m, err := scanRide(tx.QueryRow(ctx, q, rideID, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost the race, or no such ride; one re-read to tell the two apart
			return model.Ride{}, rr.classifyAssignFailure(ctx, rideID)
		}
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "assign ride", err)
	}

	if err := insertRideEvent(ctx, tx, rideID, "ride_accepted", map[string]string{"driver_id": driverID}); err != nil {
		return model.Ride{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "commit", err)
	}
	return m, nil
}

func (rr *RidesRepo) classifyAssignFailure(ctx context.Context, rideID string) error {
	var status string
	err := rr.db.pool.QueryRow(ctx, `SELECT status FROM rides WHERE ride_id = $1`, rideID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return myerrors.ErrRideNotFound
		}
		return myerrors.Wrap(myerrors.KindStorage, "fetch ride status", err)
	}
	return myerrors.ErrAlreadyAssigned
}

func (rr *RidesRepo) Start(ctx context.Context, rideID, driverID string) (model.Ride, error) {
	q := `
	UPDATE rides
	SET status = 'IN_PROGRESS', started_at = now()
	WHERE ride_id = $1 AND driver_id = $2 AND status = 'ACCEPTED'
	RETURNING` + rideColumns

	tx, err := rr.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "begin tx", err)
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	m, err := scanRide(tx.QueryRow(ctx, q, rideID, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Ride{}, rr.classifyGuardFailure(ctx, rideID, driverID, myerrors.ErrInvalidStateForStart)
		}
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "start ride", err)
	}

	if err := insertRideEvent(ctx, tx, rideID, "ride_started", nil); err != nil {
		return model.Ride{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "commit", err)
	}
	return m, nil
}

// Complete runs the whole money pipeline in one transaction. The status CAS
// in the first statement guards everything after it: on re-delivery zero
// rows match and neither ledger write happens.
func (rr *RidesRepo) Complete(ctx context.Context, p ports.CompleteParams) (model.Ride, error) {
	q1 := `
	UPDATE rides
	SET status = 'COMPLETED',
		final_fare = $3,
		payment_status = 'PROCESSED',
		payment_intent_ref = $4,
		completed_at = now()
	WHERE ride_id = $1 AND driver_id = $2 AND status IN ('ACCEPTED', 'IN_PROGRESS')
	RETURNING` + rideColumns

	q2 := `
	INSERT INTO driver_earnings (entry_id, driver_id, ride_id, amount)
	VALUES ($1, $2, $3, $4)`

	q3 := `
	INSERT INTO driver_weekly_earnings (driver_id, week_start, week_end, total_earnings, ride_count)
	VALUES ($1, $2, $3, $4, 1)
	ON CONFLICT (driver_id, week_start) DO UPDATE
	SET total_earnings = driver_weekly_earnings.total_earnings + EXCLUDED.total_earnings,
		ride_count = driver_weekly_earnings.ride_count + 1`

	tx, err := rr.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "begin tx", err)
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	m, err := scanRide(tx.QueryRow(ctx, q1, p.RideID, p.DriverID, p.FinalFare, p.PaymentIntentRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Ride{}, rr.classifyGuardFailure(ctx, p.RideID, p.DriverID, myerrors.ErrInvalidStateForComplete)
		}
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "complete ride", err)
	}

	if _, err := tx.Exec(ctx, q2, uuid.NewString(), p.DriverID, p.RideID, p.FinalFare); err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "insert earnings entry", err)
	}

	if _, err := tx.Exec(ctx, q3, p.DriverID, p.WeekStart, p.WeekEnd, p.FinalFare); err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "upsert weekly earnings", err)
	}

	if err := insertRideEvent(ctx, tx, p.RideID, "ride_completed", map[string]any{
		"final_fare": p.FinalFare,
		"driver_id":  p.DriverID,
	}); err != nil {
		return model.Ride{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "commit", err)
	}
	return m, nil
}

// classifyGuardFailure turns a zero-row conditional update into the precise
// transition error.
func (rr *RidesRepo) classifyGuardFailure(ctx context.Context, rideID, driverID string, invalidState error) error {
	var (
		status   string
		driverDB sql.NullString
	)
	err := rr.db.pool.QueryRow(ctx, `SELECT status, driver_id FROM rides WHERE ride_id = $1`, rideID).
		Scan(&status, &driverDB)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return myerrors.ErrRideNotFound
		}
		return myerrors.Wrap(myerrors.KindStorage, "fetch ride status", err)
	}
	if driverDB.String != driverID {
		return myerrors.ErrNotAssignedDriver
	}
	if status == model.StatusCompleted {
		return myerrors.ErrAlreadyCompleted
	}
	return invalidState
}

func (rr *RidesRepo) Cancel(ctx context.Context, rideID, reason, cancelledBy string) (model.Ride, error) {
	q := `
	UPDATE rides
	SET status = 'CANCELLED',
		cancelled_at = now(),
		cancellation_reason = $2
	WHERE ride_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED')
	RETURNING` + rideColumns

	tx, err := rr.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "begin tx", err)
	}
	defer tx.Rollback(ctx) // Safe rollback if not committed

	m, err := scanRide(tx.QueryRow(ctx, q, rideID, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Ride{}, rr.classifyCancelFailure(ctx, rideID)
		}
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "cancel ride", err)
	}

	if err := insertRideEvent(ctx, tx, rideID, "ride_cancelled", map[string]string{
		"reason":       reason,
		"cancelled_by": cancelledBy,
	}); err != nil {
		return model.Ride{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Ride{}, myerrors.Wrap(myerrors.KindStorage, "commit", err)
	}
	return m, nil
}

func (rr *RidesRepo) classifyCancelFailure(ctx context.Context, rideID string) error {
	var status string
	err := rr.db.pool.QueryRow(ctx, `SELECT status FROM rides WHERE ride_id = $1`, rideID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return myerrors.ErrRideNotFound
		}
		return myerrors.Wrap(myerrors.KindStorage, "fetch ride status", err)
	}
	if status == model.StatusCompleted {
		return myerrors.ErrAlreadyCompleted
	}
	return myerrors.ErrAlreadyCancelled
}

func (rr *RidesRepo) SetTip(ctx context.Context, rideID string, tip float64) error {
	q := `UPDATE rides SET tip = $2 WHERE ride_id = $1 AND status = 'COMPLETED'`

	tag, err := rr.db.pool.Exec(ctx, q, rideID, tip)
	if err != nil {
		return myerrors.Wrap(myerrors.KindStorage, "set tip", err)
	}
	if tag.RowsAffected() == 0 {
		return myerrors.ErrRideNotFound
	}
	return nil
}

func (rr *RidesRepo) CountCreatedToday(ctx context.Context) (int64, error) {
	q := `SELECT COUNT(*) FROM rides WHERE created_at::date = current_date`

	var count int64
	if err := rr.db.pool.QueryRow(ctx, q).Scan(&count); err != nil {
		return 0, myerrors.Wrap(myerrors.KindStorage, "count rides", err)
	}
	return count, nil
}

func (rr *RidesRepo) ActiveRides(ctx context.Context) ([]model.Ride, error) {
	q := `SELECT` + rideColumns + `
	FROM rides
	WHERE status IN ('REQUESTED', 'ACCEPTED', 'IN_PROGRESS')
	ORDER BY created_at DESC`

	rows, err := rr.db.pool.Query(ctx, q)
	if err != nil {
		return nil, myerrors.Wrap(myerrors.KindStorage, "list active rides", err)
	}
	defer rows.Close()

	var rides []model.Ride
	for rows.Next() {
		m, err := scanRide(rows)
		if err != nil {
			return nil, myerrors.Wrap(myerrors.KindStorage, "scan ride", err)
		}
		rides = append(rides, m)
	}
	if err := rows.Err(); err != nil {
		return nil, myerrors.Wrap(myerrors.KindStorage, "iterate rides", err)
	}
	return rides, nil
}

func insertRideEvent(ctx context.Context, tx pgx.Tx, rideID, eventType string, data any) error {
	payload := []byte("{}")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return myerrors.Wrap(myerrors.KindStorage, "marshal event data", err)
		}
		payload = b
	}

	q := `INSERT INTO ride_events (event_id, ride_id, event_type, event_data) VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, q, uuid.NewString(), rideID, eventType, payload); err != nil {
		return myerrors.Wrap(myerrors.KindStorage, "insert ride event", err)
	}
	return nil
}
