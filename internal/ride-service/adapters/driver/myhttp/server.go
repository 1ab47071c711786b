package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ridelink/internal/config"
	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/adapters/driven/bm"
	"ridelink/internal/ride-service/adapters/driven/cache"
	"ridelink/internal/ride-service/adapters/driven/consumer"
	"ridelink/internal/ride-service/adapters/driven/db"
	"ridelink/internal/ride-service/adapters/driven/payment"
	"ridelink/internal/ride-service/adapters/driven/routing"
	"ridelink/internal/ride-service/adapters/driver/myhttp/handle"
	"ridelink/internal/ride-service/adapters/driver/myhttp/middleware"
	"ridelink/internal/ride-service/adapters/driver/myhttp/ws"
	"ridelink/internal/ride-service/core/ports"
	"ridelink/internal/ride-service/core/services"
)

const WaitTime = 10

type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	srv    *http.Server
	mylog  mylogger.Logger
	db     *db.DB
	mb     ports.IEventsBroker
	cache  *cache.LocationStore
	ctx    context.Context
	appCtx context.Context
	mu     sync.Mutex
	wg     sync.WaitGroup
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	return &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}
}

// Run initializes adapters and routes, then listens. It returns when the
// server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	database, err := db.New(s.ctx, s.cfg.DB, mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = database
	mylog.Info("Successful database connection")

	mb, err := bm.New(s.appCtx, *s.cfg.RabbitMq, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	s.mb = mb
	mylog.Info("Successful message broker connection")

	s.cache = cache.New(s.cfg.Redis)

	if err := s.Configure(); err != nil {
		return fmt.Errorf("failed to configure routes: %w", err)
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.Port),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.Port)

	mylog.Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down HTTP server...")

	s.wg.Wait()

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Error("Failed to close message broker", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.mylog.Error("Failed to close location cache", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Error("Failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Info("Database closed")
	}

	s.mylog.Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Configure wires repositories, services and handlers onto the mux.
func (s *Server) Configure() error {
	// Repositories
	rideRepo := db.NewRidesRepo(s.db)
	earningsRepo := db.NewEarningsRepo(s.db)
	ratingsRepo := db.NewRatingsRepo(s.db)
	driversRepo := db.NewDriversRepo(s.db)

	// Driven collaborators
	routingClient := routing.New(s.cfg.Routing)
	paymentClient := payment.NewStub()

	// Services
	fare := services.NewFareCalculator(s.cfg.Fare.BaseFare, s.cfg.Fare.PerKmRate)
	rideService := services.NewRidesService(s.mylog, rideRepo, driversRepo, s.mb, routingClient, paymentClient, s.cache, fare, s.cfg.Fare.SurgeMultiplier)
	earningsService := services.NewEarningsService(s.mylog, earningsRepo)
	ratingService := services.NewRatingService(s.mylog, ratingsRepo, rideRepo)

	// Websocket sessions and the broker-to-socket pump
	dispatcher := ws.NewDispatcher(s.mylog, s.mb, s.cache)
	pump := consumer.New(s.appCtx, s.mylog, dispatcher, s.mb)
	if err := pump.Run(); err != nil {
		return fmt.Errorf("failed to start notification pump: %w", err)
	}

	// Handlers
	rideHandler := handle.NewRidesHandler(rideService, s.mylog)
	earningsHandler := handle.NewEarningsHandler(earningsService, s.mylog)
	ratingsHandler := handle.NewRatingsHandler(ratingService, s.mylog)

	auth := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Wrap(h)
	}

	s.mux.Handle("POST /rides", protect(rideHandler.RequestRide()))
	s.mux.Handle("GET /rides/{ride_id}", protect(rideHandler.GetRide()))
	s.mux.Handle("GET /rides/{ride_id}/driver_location", protect(rideHandler.DriverLocation()))
	s.mux.Handle("POST /rides/{ride_id}/accept", protect(rideHandler.AcceptRide()))
	s.mux.Handle("POST /rides/{ride_id}/start", protect(rideHandler.StartRide()))
	s.mux.Handle("POST /rides/{ride_id}/complete", protect(rideHandler.CompleteRide()))
	s.mux.Handle("POST /rides/{ride_id}/cancel", protect(rideHandler.CancelRide()))
	s.mux.Handle("POST /rides/{ride_id}/rating", protect(ratingsHandler.SubmitRating()))

	s.mux.Handle("GET /drivers/{driver_id}/earnings", protect(earningsHandler.WeeklyEarnings()))
	s.mux.Handle("GET /drivers/{driver_id}/earnings/history", protect(earningsHandler.History()))
	s.mux.Handle("GET /users/{user_id}/rating", protect(ratingsHandler.AverageRating()))

	s.mux.Handle("GET /admin/rides/active", protect(rideHandler.ActiveRides()))

	s.mux.Handle("GET /ws", protect(dispatcher.Handler()))

	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if s.db.IsAlive() != nil || !s.mb.IsAlive() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return nil
}
