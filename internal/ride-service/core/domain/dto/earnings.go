package dto

type WeeklyEarningsDto struct {
	DriverId      string  `json:"driver_id"`
	WeekStart     string  `json:"week_start"` // calendar date, 2006-01-02
	WeekEnd       string  `json:"week_end"`
	TotalEarnings float64 `json:"total_earnings"`
	RideCount     int64   `json:"ride_count"`
}

type EarningsEntryDto struct {
	RideId    string  `json:"ride_id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}
