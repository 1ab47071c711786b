package model

import "time"

// Rating is one post-completion score. At most one per (ride, rater).
type Rating struct {
	ID        string
	RideID    string
	RaterID   string
	RateeID   string
	Score     int
	Review    string
	CreatedAt time.Time
}
