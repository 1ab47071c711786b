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

type RatingsHandler struct {
	ratingService ports.IRatingService
	log           mylogger.Logger
}

func NewRatingsHandler(rs ports.IRatingService, log mylogger.Logger) *RatingsHandler {
	return &RatingsHandler{
		ratingService: rs,
		log:           log,
	}
}

func (rh *RatingsHandler) SubmitRating() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		req := dto.RatingRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ratingService.SubmitRating(r.Context(), actor, r.PathValue("ride_id"), req)
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (rh *RatingsHandler) AverageRating() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := model.ActorFrom(r.Context())
		if !ok {
			JsonError(w, http.StatusUnauthorized, fmt.Errorf("no authenticated actor"))
			return
		}

		res, err := rh.ratingService.AverageRating(r.Context(), actor, r.PathValue("user_id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}
