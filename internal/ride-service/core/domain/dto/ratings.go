package dto

type RatingRequestDto struct {
	Score  int      `json:"score"`
	Review string   `json:"review,omitempty"`
	Tip    *float64 `json:"tip,omitempty"`
}

type RatingResponseDto struct {
	RideId  string `json:"ride_id"`
	RaterId string `json:"rater_id"`
	RateeId string `json:"ratee_id"`
	Score   int    `json:"score"`
	Message string `json:"message"`
}

type AverageRatingDto struct {
	UserId  string  `json:"user_id"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}
