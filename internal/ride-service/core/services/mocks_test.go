package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	messagebrokerdto "ridelink/internal/ride-service/core/domain/message_broker_dto"
)

// mockRidesRepo mirrors the conditional-write semantics of the SQL store so
// the lifecycle invariants can be exercised under real goroutine races.
type mockRidesRepo struct {
	mu     sync.Mutex
	rides  map[string]model.Ride
	ledger map[string][]model.EarningsEntry
	weekly map[string]model.WeeklyEarnings
}

func newMockRidesRepo() *mockRidesRepo {
	return &mockRidesRepo{
		rides:  make(map[string]model.Ride),
		ledger: make(map[string][]model.EarningsEntry),
		weekly: make(map[string]model.WeeklyEarnings),
	}
}

func (m *mockRidesRepo) put(r model.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = r
}

func (m *mockRidesRepo) CreateRequested(ctx context.Context, r model.Ride) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rides {
		if existing.RiderID == r.RiderID && existing.Active() {
			return "", myerrors.ErrActiveRideExists
		}
		if existing.RideNumber == r.RideNumber {
			return "", myerrors.ErrRideNumberTaken
		}
	}
	r.CreatedAt = time.Now()
	m.rides[r.ID] = r
	return r.ID, nil
}

func (m *mockRidesRepo) GetByID(ctx context.Context, rideID string) (model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return model.Ride{}, myerrors.ErrRideNotFound
	}
	return r, nil
}

func (m *mockRidesRepo) Assign(ctx context.Context, rideID, driverID string) (model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return model.Ride{}, myerrors.ErrRideNotFound
	}
	switch r.Status {
	case model.StatusRequested:
	case model.StatusCancelled:
		return model.Ride{}, myerrors.ErrAlreadyCancelled
	case model.StatusCompleted:
		return model.Ride{}, myerrors.ErrAlreadyCompleted
	default:
		return model.Ride{}, myerrors.ErrAlreadyAssigned
	}
	now := time.Now()
	r.Status = model.StatusAccepted
	r.DriverID = driverID
	r.MatchedAt = &now
	m.rides[rideID] = r
	return r, nil
}

func (m *mockRidesRepo) Start(ctx context.Context, rideID, driverID string) (model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return model.Ride{}, myerrors.ErrRideNotFound
	}
	if r.DriverID != driverID {
		return model.Ride{}, myerrors.ErrNotAssignedDriver
	}
	if r.Status != model.StatusAccepted {
		return model.Ride{}, myerrors.ErrInvalidStateForStart
	}
	now := time.Now()
	r.Status = model.StatusInProgress
	r.StartedAt = &now
	m.rides[rideID] = r
	return r, nil
}

func (m *mockRidesRepo) Complete(ctx context.Context, p ports.CompleteParams) (model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[p.RideID]
	if !ok {
		return model.Ride{}, myerrors.ErrRideNotFound
	}
	if r.DriverID != p.DriverID {
		return model.Ride{}, myerrors.ErrNotAssignedDriver
	}
	switch r.Status {
	case model.StatusAccepted, model.StatusInProgress:
	case model.StatusCompleted:
		return model.Ride{}, myerrors.ErrAlreadyCompleted
	default:
		return model.Ride{}, myerrors.ErrInvalidStateForComplete
	}

	now := time.Now()
	r.Status = model.StatusCompleted
	r.FinalFare = &p.FinalFare
	r.PaymentStatus = model.PaymentProcessed
	r.PaymentIntentRef = p.PaymentIntentRef
	r.CompletedAt = &now
	m.rides[p.RideID] = r

	m.ledger[p.DriverID] = append(m.ledger[p.DriverID], model.EarningsEntry{
		DriverID:  p.DriverID,
		RideID:    p.RideID,
		Amount:    p.FinalFare,
		CreatedAt: now,
	})
	key := p.DriverID + "|" + p.WeekStart.Format("2006-01-02")
	agg := m.weekly[key]
	agg.DriverID = p.DriverID
	agg.WeekStart = p.WeekStart
	agg.WeekEnd = p.WeekEnd
	agg.TotalEarnings += p.FinalFare
	agg.RideCount++
	m.weekly[key] = agg

	return r, nil
}

func (m *mockRidesRepo) Cancel(ctx context.Context, rideID, reason, cancelledBy string) (model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return model.Ride{}, myerrors.ErrRideNotFound
	}
	switch r.Status {
	case model.StatusCompleted:
		return model.Ride{}, myerrors.ErrAlreadyCompleted
	case model.StatusCancelled:
		return model.Ride{}, myerrors.ErrAlreadyCancelled
	}
	now := time.Now()
	r.Status = model.StatusCancelled
	r.CancellationReason = reason
	r.CancelledAt = &now
	m.rides[rideID] = r
	return r, nil
}

func (m *mockRidesRepo) SetTip(ctx context.Context, rideID string, tip float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[rideID]
	if !ok {
		return myerrors.ErrRideNotFound
	}
	if r.Status != model.StatusCompleted {
		return myerrors.ErrRideNotCompleted
	}
	r.Tip = &tip
	m.rides[rideID] = r
	return nil
}

func (m *mockRidesRepo) CountCreatedToday(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rides)), nil
}

func (m *mockRidesRepo) ActiveRides(ctx context.Context) ([]model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.Ride
	for _, r := range m.rides {
		if !r.Terminal() {
			res = append(res, r)
		}
	}
	return res, nil
}

func (m *mockRidesRepo) earningsFor(driverID string) []model.EarningsEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.EarningsEntry(nil), m.ledger[driverID]...)
}

type mockEarningsRepo struct {
	mu     sync.Mutex
	weekly map[string]model.WeeklyEarnings
	hist   map[string][]model.EarningsEntry
}

func newMockEarningsRepo() *mockEarningsRepo {
	return &mockEarningsRepo{
		weekly: make(map[string]model.WeeklyEarnings),
		hist:   make(map[string][]model.EarningsEntry),
	}
}

func (m *mockEarningsRepo) WeeklyAggregate(ctx context.Context, driverID string, weekStart time.Time) (model.WeeklyEarnings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := driverID + "|" + weekStart.Format("2006-01-02")
	if agg, ok := m.weekly[key]; ok {
		return agg, nil
	}
	// missing row means an empty week, not an error
	return model.WeeklyEarnings{DriverID: driverID, WeekStart: weekStart}, nil
}

func (m *mockEarningsRepo) History(ctx context.Context, driverID string) ([]model.EarningsEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.EarningsEntry(nil), m.hist[driverID]...), nil
}

type mockRatingsRepo struct {
	mu      sync.Mutex
	ratings map[string]model.Rating
}

func newMockRatingsRepo() *mockRatingsRepo {
	return &mockRatingsRepo{ratings: make(map[string]model.Rating)}
}

func (m *mockRatingsRepo) Insert(ctx context.Context, r model.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := r.RideID + "|" + r.RaterID
	if _, ok := m.ratings[key]; ok {
		return myerrors.ErrDuplicateRating
	}
	m.ratings[key] = r
	return nil
}

func (m *mockRatingsRepo) AverageFor(ctx context.Context, userID string) (float64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	var count int64
	for _, r := range m.ratings {
		if r.RateeID == userID {
			sum += float64(r.Score)
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

type mockDriversRepo struct {
	info map[string]model.DriverInfo
}

func (m *mockDriversRepo) GetInfo(ctx context.Context, driverID string) (model.DriverInfo, error) {
	if info, ok := m.info[driverID]; ok {
		return info, nil
	}
	return model.DriverInfo{}, myerrors.ErrDriverNotFound
}

// mockPublisher records published events for assertions.
type mockPublisher struct {
	mu     sync.Mutex
	events []messagebrokerdto.RideEvent
}

func (m *mockPublisher) PublishRideEvent(ctx context.Context, ev messagebrokerdto.RideEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) published() []messagebrokerdto.RideEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]messagebrokerdto.RideEvent(nil), m.events...)
}

func (m *mockPublisher) lastOfType(eventType string) (messagebrokerdto.RideEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Type == eventType {
			return m.events[i], true
		}
	}
	return messagebrokerdto.RideEvent{}, false
}

// mockRouting resolves every address to a fixed point pair 5 km apart.
type mockRouting struct {
	geocodeErr error
	routeErr   error
	distanceM  float64
	durationS  float64
}

func (m *mockRouting) Geocode(ctx context.Context, address string) (model.LatLng, error) {
	if m.geocodeErr != nil {
		return model.LatLng{}, m.geocodeErr
	}
	return model.LatLng{Lat: 43.238949, Lng: 76.889709}, nil
}

func (m *mockRouting) Route(ctx context.Context, from, to model.LatLng) (ports.RouteResult, error) {
	if m.routeErr != nil {
		return ports.RouteResult{}, m.routeErr
	}
	dist := m.distanceM
	if dist == 0 {
		dist = 5000
	}
	dur := m.durationS
	if dur == 0 {
		dur = 600
	}
	return ports.RouteResult{
		Polyline:        "_p~iF~ps|U",
		DistanceMeters:  dist,
		DurationSeconds: dur,
	}, nil
}

// mockLocationCache is an in-memory stand-in for the geo store.
type mockLocationCache struct {
	mu        sync.Mutex
	positions map[string]model.LatLng
}

func newMockLocationCache() *mockLocationCache {
	return &mockLocationCache{positions: make(map[string]model.LatLng)}
}

func (m *mockLocationCache) UpdateDriverLocation(ctx context.Context, driverID string, pos model.LatLng) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[driverID] = pos
	return nil
}

func (m *mockLocationCache) DriverLocation(ctx context.Context, driverID string) (model.LatLng, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[driverID]
	if !ok {
		return model.LatLng{}, myerrors.ErrLocationUnknown
	}
	return pos, nil
}

func (m *mockLocationCache) RemoveDriverLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, driverID)
	return nil
}

func (m *mockLocationCache) has(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.positions[driverID]
	return ok
}

type mockPayment struct {
	mu        sync.Mutex
	intents   int
	confirms  int
	createErr error
}

func (m *mockPayment) CreateIntent(ctx context.Context, amount float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.intents++
	return fmt.Sprintf("pi_test_%d", m.intents), nil
}

func (m *mockPayment) Confirm(ctx context.Context, intentRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirms++
	return nil
}
