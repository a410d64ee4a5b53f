package domain

import "time"

type Favorite struct {
	UserID    uint      `json:"user_id"`
	EventID   uint      `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}
