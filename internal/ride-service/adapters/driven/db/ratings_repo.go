package db

import (
	"context"

	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"
)

type RatingsRepo struct {
	db *DB
}

func NewRatingsRepo(db *DB) ports.IRatingsRepo {
	return &RatingsRepo{
		db: db,
	}
}

// Insert relies on the (ride_id, rater_id) primary key: a duplicate rating
// affects zero rows instead of failing mid-flight.
func (rp *RatingsRepo) Insert(ctx context.Context, m model.Rating) error {
	q := `
	INSERT INTO ratings (rating_id, ride_id, rater_id, ratee_id, score, review)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (ride_id, rater_id) DO NOTHING`

	tag, err := rp.db.pool.Exec(ctx, q, m.ID, m.RideID, m.RaterID, m.RateeID, m.Score, m.Review)
	if err != nil {
		return myerrors.Wrap(myerrors.KindStorage, "insert rating", err)
	}
	if tag.RowsAffected() == 0 {
		return myerrors.ErrDuplicateRating
	}
	return nil
}

func (rp *RatingsRepo) AverageFor(ctx context.Context, userID string) (float64, int64, error) {
	q := `
	SELECT COALESCE(AVG(score), 0), COUNT(*)
	FROM ratings
	WHERE ratee_id = $1`

	var (
		avg   float64
		count int64
	)
	if err := rp.db.pool.QueryRow(ctx, q, userID).Scan(&avg, &count); err != nil {
		return 0, 0, myerrors.Wrap(myerrors.KindStorage, "average rating", err)
	}
	return avg, count, nil
}
