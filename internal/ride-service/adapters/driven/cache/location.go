package cache

import (
	"context"
	"fmt"

	"ridelink/internal/config"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	"github.com/redis/go-redis/v9"
)

const driverLocationKey = "drivers:locations"

// LocationStore keeps last known driver positions in a Redis geo set. It
// backs the pull fallback for riders that missed location events on the
// socket; the socket stream itself never reads from here.
type LocationStore struct {
	client *redis.Client
}

func New(cfg *config.Redisconfig) *LocationStore {
	return &LocationStore{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		}),
	}
}

func NewWithClient(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

var _ ports.ILocationCache = (*LocationStore)(nil)

func (s *LocationStore) UpdateDriverLocation(ctx context.Context, driverID string, pos model.LatLng) error {
	return s.client.GeoAdd(ctx, driverLocationKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *LocationStore) DriverLocation(ctx context.Context, driverID string) (model.LatLng, error) {
	res, err := s.client.GeoPos(ctx, driverLocationKey, driverID).Result()
	if err != nil {
		return model.LatLng{}, myerrors.Wrap(myerrors.KindStorage, "geo pos lookup", err)
	}
	if len(res) == 0 || res[0] == nil {
		return model.LatLng{}, myerrors.ErrLocationUnknown
	}
	return model.LatLng{Lat: res[0].Latitude, Lng: res[0].Longitude}, nil
}

func (s *LocationStore) RemoveDriverLocation(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, driverLocationKey, driverID).Err()
}

func (s *LocationStore) Close() error {
	return s.client.Close()
}
