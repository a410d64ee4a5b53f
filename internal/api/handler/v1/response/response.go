package response

import "github.com/eventdesk/eventdesk-api/internal/domain"

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expires_at"`
	User      domain.User `json:"user"`
}

type FavoriteResponse struct {
	EventID    uint `json:"event_id"`
	IsFavorite bool `json:"is_favorite"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
