package minio

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/pkg/storage"
)

func TestObjectURL(t *testing.T) {
	core, err := minio.New("localhost:9000", &minio.Options{
		Creds: credentials.NewStaticV4("key", "secret", ""),
	})
	require.NoError(t, err)

	key := storage.BannerKey(7)

	c := &Client{core: core, bucket: "event-banners"}
	assert.Equal(t, "http://localhost:9000/event-banners/events/7/banner", c.objectURL(key))

	c.publicURL = "https://cdn.example.com/banners/"
	assert.Equal(t, "https://cdn.example.com/banners/events/7/banner", c.objectURL("/"+key))
}
