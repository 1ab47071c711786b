package services

import (
	"strings"

	"ridelink/internal/ride-service/core/domain/dto"
	"ridelink/internal/ride-service/core/myerrors"
)

const maxAddressLen = 255

func validateRideRequest(req dto.RideRequestDto) error {
	if err := validateAddress("pickup_address", req.PickupAddress); err != nil {
		return err
	}
	if err := validateAddress("destination_address", req.DestinationAddress); err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(req.PickupAddress), strings.TrimSpace(req.DestinationAddress)) {
		return myerrors.E(myerrors.KindValidation, "pickup and destination are the same")
	}
	return nil
}

func validateAddress(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return myerrors.E(myerrors.KindValidation, field+" is empty")
	}
	if len(s) > maxAddressLen {
		return myerrors.E(myerrors.KindValidation, field+" exceeds 255 characters")
	}
	return nil
}
