package handle

import (
	"fmt"
	"net/http"

	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/ports"
)

type EarningsHandler struct {
	earningsService ports.IEarningsService
	log             mylogger.Logger
}

func NewEarningsHandler(es ports.IEarningsService, log mylogger.Logger) *EarningsHandler {
	return &EarningsHandler{
		earningsService: es,
		log:             log,
	}
}

// WeeklyEarnings resolves the billing week containing ?at= (RFC3339,
// defaults to now when absent).
func (eh *EarningsHandler) WeeklyEarnings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := eh.earningsService.WeeklyEarnings(r.Context(), actor, r.PathValue("driver_id"), r.URL.Query().Get("at"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (eh *EarningsHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := eh.earningsService.History(r.Context(), actor, r.PathValue("driver_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}
