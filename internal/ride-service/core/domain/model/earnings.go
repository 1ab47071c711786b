package model

import "time"

// EarningsEntry is one immutable row per completed ride.
type EarningsEntry struct {
	ID        string
	DriverID  string
	RideID    string
	Amount    float64
	CreatedAt time.Time
}

// WeeklyEarnings is the per-driver aggregate for one Saturday-to-Friday
// billing period. Created lazily on first completion, incremented atomically
// after that.
type WeeklyEarnings struct {
	DriverID      string
	WeekStart     time.Time
	WeekEnd       time.Time
	TotalEarnings float64
	RideCount     int64
}
