package handle

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ridelink/internal/mylogger"
	"ridelink/internal/ride-service/core/domain/dto"
	"ridelink/internal/ride-service/core/domain/model"
	"ridelink/internal/ride-service/core/ports"
)

type RidesHandler struct {
	ridesService ports.IRidesService
	log          mylogger.Logger
}

func NewRidesHandler(rs ports.IRidesService, log mylogger.Logger) *RidesHandler {
	return &RidesHandler{
		ridesService: rs,
		log:          log,
	}
}

func (rh *RidesHandler) RequestRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		req := dto.RideRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ridesService.RequestRide(r.Context(), actor, req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (rh *RidesHandler) AcceptRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := rh.ridesService.AcceptRide(r.Context(), actor, r.PathValue("ride_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) StartRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := rh.ridesService.StartRide(r.Context(), actor, r.PathValue("ride_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) CompleteRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := rh.ridesService.CompleteRide(r.Context(), actor, r.PathValue("ride_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) CancelRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		req := dto.RideCancelRequestDto{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				JsonError(w, http.StatusBadRequest, err)
				return
			}
		}

		res, err := rh.ridesService.CancelRide(r.Context(), actor, r.PathValue("ride_id"), req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) GetRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := rh.ridesService.GetRide(r.Context(), actor, r.PathValue("ride_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) DriverLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := rh.ridesService.DriverLocation(r.Context(), actor, r.PathValue("ride_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) ActiveRides() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := rh.ridesService.ActiveRides(r.Context(), actor)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}
