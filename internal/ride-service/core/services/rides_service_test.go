package services

import (
	"context"
	"sync"
	"testing"

	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/domain/dto"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	messagebrokerdto "ridelink/internal/ride-service/core/domain/message_broker_dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) mylogger.Logger {
	t.Helper()
	log, err := mylogger.New(mylogger.LevelError)
	require.NoError(t, err)
	return log
}

type rideFixture struct {
	service   ports.IRidesService
	repo      *mockRidesRepo
	broker    *mockPublisher
	routing   *mockRouting
	payment   *mockPayment
	locations *mockLocationCache
}

func newRideFixture(t *testing.T, surge float64) *rideFixture {
	t.Helper()
	repo := newMockRidesRepo()
	broker := &mockPublisher{}
	routing := &mockRouting{}
	payment := &mockPayment{}
	locations := newMockLocationCache()
	drivers := &mockDriversRepo{info: map[string]model.DriverInfo{
		"driver-1": {DriverID: "driver-1", Name: "Dana", Rating: 4.8},
	}}

	service := NewRidesService(
		testLogger(t),
		repo,
		drivers,
		broker,
		routing,
		payment,
		locations,
		NewFareCalculator(DefaultBaseFare, DefaultPerKmRate),
		surge,
	)
	return &rideFixture{service: service, repo: repo, broker: broker, routing: routing, payment: payment, locations: locations}
}

var (
	rider  = model.Actor{ID: "rider-1", Role: model.RoleRider}
	driver = model.Actor{ID: "driver-1", Role: model.RoleDriver}
	admin  = model.Actor{ID: "admin-1", Role: model.RoleAdmin}
)

func requestedRide(t *testing.T, f *rideFixture) dto.RideResponseDto {
	t.Helper()
	res, err := f.service.RequestRide(context.Background(), rider, dto.RideRequestDto{
		PickupAddress:      "Abay 10",
		DestinationAddress: "Dostyk 99",
	})
	require.NoError(t, err)
	return res
}

func TestRequestRide(t *testing.T) {
	f := newRideFixture(t, 1.0)

	res := requestedRide(t, f)

	assert.Equal(t, model.StatusRequested, res.Status)
	assert.Equal(t, 5.0, res.EstimatedDistanceKm)
	// (2.50 + 5 * 1.20) * 1.0
	assert.Equal(t, 8.50, res.EstimatedFare)
	assert.Regexp(t, `^RIDE_\d{8}_\d{3}$`, res.RideNumber)

	ev, ok := f.broker.lastOfType(messagebrokerdto.RideRequested)
	require.True(t, ok, "ride_requested event must be published")
	assert.Equal(t, res.RideId, ev.RideID)
	assert.Equal(t, rider.ID, ev.RiderID)
}

func TestRequestRide_DriverForbidden(t *testing.T) {
	f := newRideFixture(t, 1.0)

	_, err := f.service.RequestRide(context.Background(), driver, dto.RideRequestDto{
		PickupAddress:      "Abay 10",
		DestinationAddress: "Dostyk 99",
	})
	assert.ErrorIs(t, err, myerrors.ErrForbidden)
}

func TestRequestRide_SecondActiveRideRejected(t *testing.T) {
	f := newRideFixture(t, 1.0)

	requestedRide(t, f)

	_, err := f.service.RequestRide(context.Background(), rider, dto.RideRequestDto{
		PickupAddress:      "Abay 10",
		DestinationAddress: "Tole Bi 55",
	})
	assert.ErrorIs(t, err, myerrors.ErrActiveRideExists)
}

func TestRequestRide_GeocodeFailureWritesNothing(t *testing.T) {
	f := newRideFixture(t, 1.0)
	f.routing.geocodeErr = myerrors.ErrAddressNotFound

	_, err := f.service.RequestRide(context.Background(), rider, dto.RideRequestDto{
		PickupAddress:      "nowhere",
		DestinationAddress: "Dostyk 99",
	})
	assert.ErrorIs(t, err, myerrors.ErrAddressNotFound)

	rides, err := f.repo.ActiveRides(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rides, "a routing failure must not leave a partial ride")
	assert.Empty(t, f.broker.published())
}

func TestRequestRide_SameAddressRejected(t *testing.T) {
	f := newRideFixture(t, 1.0)

	_, err := f.service.RequestRide(context.Background(), rider, dto.RideRequestDto{
		PickupAddress:      "Abay 10",
		DestinationAddress: " abay 10 ",
	})
	assert.Equal(t, myerrors.KindValidation, myerrors.KindOf(err))
}

func TestAcceptRide_ExactlyOneWinnerUnderContention(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	const drivers = 8
	errs := make([]error, drivers)

	var wg sync.WaitGroup
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := model.Actor{ID: string(rune('a'+i)) + "-driver", Role: model.RoleDriver}
			_, errs[i] = f.service.AcceptRide(context.Background(), actor, res.RideId)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, myerrors.ErrAlreadyAssigned)
		}
	}
	assert.Equal(t, 1, wins, "exactly one driver may claim a ride")
}

func TestAcceptRide_RiderForbidden(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), rider, res.RideId)
	assert.ErrorIs(t, err, myerrors.ErrForbidden)
}

func TestAcceptRide_CancelledRide(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.CancelRide(context.Background(), rider, res.RideId, dto.RideCancelRequestDto{Reason: "changed my mind"})
	require.NoError(t, err)

	_, err = f.service.AcceptRide(context.Background(), driver, res.RideId)
	assert.ErrorIs(t, err, myerrors.ErrAlreadyCancelled)
}

func TestStartRide_OnlyAssignedDriver(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)

	other := model.Actor{ID: "driver-2", Role: model.RoleDriver}
	_, err = f.service.StartRide(context.Background(), other, res.RideId)
	assert.ErrorIs(t, err, myerrors.ErrNotAssignedDriver)

	details, err := f.service.StartRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, details.Status)
}

func TestCompleteRide(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)
	_, err = f.service.StartRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)

	done, err := f.service.CompleteRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, 8.50, done.FinalFare)
	assert.Equal(t, model.PaymentProcessed, done.PaymentStatus)

	entries := f.repo.earningsFor(driver.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, 8.50, entries[0].Amount)
}

func TestCompleteRide_SecondCallCreditsNothing(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)
	_, err = f.service.CompleteRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)

	_, err = f.service.CompleteRide(context.Background(), driver, res.RideId)
	assert.ErrorIs(t, err, myerrors.ErrAlreadyCompleted)

	entries := f.repo.earningsFor(driver.ID)
	assert.Len(t, entries, 1, "a re-delivered completion must not credit earnings twice")
}

func TestCompleteRide_FareUsesCapturedSurge(t *testing.T) {
	// surge 2.0 captured at request time
	f := newRideFixture(t, 2.0)
	f.routing.distanceM = 10000
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)

	done, err := f.service.CompleteRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)

	// (2.50 + 10 * 1.20) * 2.0
	assert.Equal(t, 29.00, done.FinalFare)
	assert.Equal(t, res.EstimatedFare, done.FinalFare, "estimate and final price must agree when distance is unchanged")
}

func TestCancelRide_CompletedRideStaysCompleted(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)
	_, err = f.service.CompleteRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)

	_, err = f.service.CancelRide(context.Background(), rider, res.RideId, dto.RideCancelRequestDto{})
	assert.ErrorIs(t, err, myerrors.ErrAlreadyCompleted)

	details, err := f.service.GetRide(context.Background(), rider, res.RideId)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, details.Status)
}

func TestCancelRide_StrangerForbidden(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	stranger := model.Actor{ID: "rider-2", Role: model.RoleRider}
	_, err := f.service.CancelRide(context.Background(), stranger, res.RideId, dto.RideCancelRequestDto{})
	assert.ErrorIs(t, err, myerrors.ErrForbidden)
}

func TestCancelRide_RequestedFlagOnEvent(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.CancelRide(context.Background(), rider, res.RideId, dto.RideCancelRequestDto{Reason: "waited too long"})
	require.NoError(t, err)

	ev, ok := f.broker.lastOfType(messagebrokerdto.RideCancelled)
	require.True(t, ok)
	assert.True(t, ev.WasRequested, "a cancel before assignment must tell drivers the ride left the pool")
	assert.Equal(t, model.RoleRider, ev.CancelledBy)
}

// collidingRidesRepo rejects the first N inserts with a ride-number conflict,
// the way the unique index does when two requests mint the same number.
type collidingRidesRepo struct {
	*mockRidesRepo
	collisions int
}

func (c *collidingRidesRepo) CreateRequested(ctx context.Context, r model.Ride) (string, error) {
	c.mockRidesRepo.mu.Lock()
	if c.collisions > 0 {
		c.collisions--
		c.mockRidesRepo.mu.Unlock()
		return "", myerrors.ErrRideNumberTaken
	}
	c.mockRidesRepo.mu.Unlock()
	return c.mockRidesRepo.CreateRequested(ctx, r)
}

func TestRequestRide_RideNumberCollisionRetried(t *testing.T) {
	repo := &collidingRidesRepo{mockRidesRepo: newMockRidesRepo(), collisions: 1}
	service := NewRidesService(
		testLogger(t),
		repo,
		&mockDriversRepo{},
		&mockPublisher{},
		&mockRouting{},
		&mockPayment{},
		newMockLocationCache(),
		NewFareCalculator(DefaultBaseFare, DefaultPerKmRate),
		1.0,
	)

	res, err := service.RequestRide(context.Background(), rider, dto.RideRequestDto{
		PickupAddress:      "Abay 10",
		DestinationAddress: "Dostyk 99",
	})
	require.NoError(t, err, "a lost ride-number race must be retried, not surfaced")
	assert.Regexp(t, `^RIDE_\d{8}_\d{3}$`, res.RideNumber)
}

func TestRequestRide_RideNumberCollisionExhausted(t *testing.T) {
	repo := &collidingRidesRepo{mockRidesRepo: newMockRidesRepo(), collisions: rideNumberAttempts}
	service := NewRidesService(
		testLogger(t),
		repo,
		&mockDriversRepo{},
		&mockPublisher{},
		&mockRouting{},
		&mockPayment{},
		newMockLocationCache(),
		NewFareCalculator(DefaultBaseFare, DefaultPerKmRate),
		1.0,
	)

	_, err := service.RequestRide(context.Background(), rider, dto.RideRequestDto{
		PickupAddress:      "Abay 10",
		DestinationAddress: "Dostyk 99",
	})
	assert.ErrorIs(t, err, myerrors.ErrRideNumberTaken)
}

func TestDriverLocation(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)

	require.NoError(t, f.locations.UpdateDriverLocation(context.Background(), driver.ID, model.LatLng{Lat: 43.25, Lng: 76.91}))

	loc, err := f.service.DriverLocation(context.Background(), rider, res.RideId)
	require.NoError(t, err)
	assert.Equal(t, driver.ID, loc.DriverId)
	assert.Equal(t, 43.25, loc.Lat)
	assert.Equal(t, 76.91, loc.Lng)

	stranger := model.Actor{ID: "rider-2", Role: model.RoleRider}
	_, err = f.service.DriverLocation(context.Background(), stranger, res.RideId)
	assert.ErrorIs(t, err, myerrors.ErrForbidden)
}

func TestDriverLocation_NoDriverAssigned(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.DriverLocation(context.Background(), rider, res.RideId)
	assert.ErrorIs(t, err, myerrors.ErrLocationUnknown)
}

func TestCompleteRide_ClearsDriverLocation(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)
	require.NoError(t, f.locations.UpdateDriverLocation(context.Background(), driver.ID, model.LatLng{Lat: 1, Lng: 1}))

	_, err = f.service.CompleteRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)
	assert.False(t, f.locations.has(driver.ID), "a finished ride must not keep serving the driver's last position")
}

func TestCancelRide_ClearsDriverLocation(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.AcceptRide(context.Background(), driver, res.RideId)
	require.NoError(t, err)
	require.NoError(t, f.locations.UpdateDriverLocation(context.Background(), driver.ID, model.LatLng{Lat: 1, Lng: 1}))

	_, err = f.service.CancelRide(context.Background(), driver, res.RideId, dto.RideCancelRequestDto{Reason: "flat tire"})
	require.NoError(t, err)
	assert.False(t, f.locations.has(driver.ID))
}

func TestGetRide_Authorization(t *testing.T) {
	f := newRideFixture(t, 1.0)
	res := requestedRide(t, f)

	_, err := f.service.GetRide(context.Background(), rider, res.RideId)
	assert.NoError(t, err)

	_, err = f.service.GetRide(context.Background(), admin, res.RideId)
	assert.NoError(t, err)

	stranger := model.Actor{ID: "rider-2", Role: model.RoleRider}
	_, err = f.service.GetRide(context.Background(), stranger, res.RideId)
	assert.ErrorIs(t, err, myerrors.ErrForbidden)
}

func TestActiveRides_AdminOnly(t *testing.T) {
	f := newRideFixture(t, 1.0)
	requestedRide(t, f)

	_, err := f.service.ActiveRides(context.Background(), rider)
	assert.ErrorIs(t, err, myerrors.ErrForbidden)

	rides, err := f.service.ActiveRides(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, rides, 1)
}
