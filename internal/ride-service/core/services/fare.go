package services

import "math"

// Default pricing constants, overridable through config.
const (
	DefaultBaseFare  = 2.50
	DefaultPerKmRate = 1.20
	DefaultSurge     = 1.0
)

// FareCalculator is a pure pricing function. Surge multiplies the whole
// subtotal: fare = (base + distanceKm * perKm) * surge. The multiplier is
// captured on the ride at request time and is never recomputed, so the
// amount the rider saw is the amount billed.
type FareCalculator struct {
	BaseFare  float64
	PerKmRate float64
}

func NewFareCalculator(baseFare, perKmRate float64) FareCalculator {
	return FareCalculator{
		BaseFare:  baseFare,
		PerKmRate: perKmRate,
	}
}

// Calculate returns the fare rounded to cents.
func (fc FareCalculator) Calculate(distanceKm, surgeMultiplier float64) float64 {
	if surgeMultiplier <= 0 {
		surgeMultiplier = DefaultSurge
	}
	subtotal := fc.BaseFare + distanceKm*fc.PerKmRate
	return math.Round(subtotal*surgeMultiplier*100) / 100
}
