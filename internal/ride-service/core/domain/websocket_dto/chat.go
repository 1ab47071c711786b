package websocketdto

// ChatMessage is relayed within the ride room, rider <-> driver.
type ChatMessage struct {
	RideID   string `json:"ride_id"`
	SenderID string `json:"sender_id"`
	Role     string `json:"role"`
	Text     string `json:"text"`
	SentAt   string `json:"sent_at"`
}
