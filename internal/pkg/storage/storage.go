package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadInput struct {
	Key         string
	ContentType string
	Body        io.Reader
	Size        int64
}

// Service stores event assets and returns their public URL.
type Service interface {
	PutObject(ctx context.Context, in UploadInput) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// BannerKey is the object key of an event's banner image. Uploading a new
// banner overwrites the previous one.
func BannerKey(eventID uint) string {
	return fmt.Sprintf("events/%d/banner", eventID)
}
