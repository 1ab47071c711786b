package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	"github.com/jackc/pgx/v5"
)

// DriversRepo reads display name / vehicle info for presentation
// enrichment. The profile store itself is owned elsewhere.
type DriversRepo struct {
	db *DB
}

func NewDriversRepo(db *DB) ports.IDriversRepo {
	return &DriversRepo{
		db: db,
	}
}

func (dr *DriversRepo) GetInfo(ctx context.Context, driverID string) (model.DriverInfo, error) {
	q := `SELECT driver_id, name, rating, vehicle_attrs FROM drivers WHERE driver_id = $1`

	var (
		info     model.DriverInfo
		jsonData []byte
	)
	err := dr.db.pool.QueryRow(ctx, q, driverID).Scan(&info.DriverID, &info.Name, &info.Rating, &jsonData)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DriverInfo{}, myerrors.ErrDriverNotFound
		}
		return model.DriverInfo{}, myerrors.Wrap(myerrors.KindStorage, "fetch driver", err)
	}

	if len(jsonData) > 0 {
		if err := json.Unmarshal(jsonData, &info.Vehicle); err != nil {
			return model.DriverInfo{}, fmt.Errorf("failed to unmarshal vehicle details: %w", err)
		}
	}
	return info, nil
}
