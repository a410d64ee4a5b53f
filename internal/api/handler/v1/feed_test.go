package v1

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/domain"
)

func TestFeedDeliversChangesPerEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFeedHandler(&stubEvents{}, nil)
	go feed.Run(ctx)

	r := gin.New()
	r.GET("/events/:eventID/feed", feed.HandleFeed)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events/4/feed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return feed.Subscribers(4) == 1 }, time.Second, 10*time.Millisecond)

	feed.Publish(domain.ParticipantChange{EventID: 5, ParticipantID: 1, From: domain.StatusPending, To: domain.StatusApproved})
	feed.Publish(domain.ParticipantChange{EventID: 4, ParticipantID: 2, From: domain.StatusPending, To: domain.StatusRejected})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.ParticipantChange
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, uint(4), got.EventID)
	assert.Equal(t, uint(2), got.ParticipantID)
	assert.Equal(t, domain.StatusRejected, got.To)
}

func TestFeedUnsubscribesOnClose(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFeedHandler(&stubEvents{}, nil)
	go feed.Run(ctx)

	r := gin.New()
	r.GET("/events/:eventID/feed", feed.HandleFeed)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events/8/feed", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return feed.Subscribers(8) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return feed.Subscribers(8) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFeedRejectsForeignOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	feed := NewFeedHandler(&stubEvents{}, []string{"https://admin.example.com"})

	r := gin.New()
	r.GET("/events/:eventID/feed", feed.HandleFeed)
	srv := httptest.NewServer(r)
	defer srv.Close()

	header := map[string][]string{"Origin": {"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events/1/feed", header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestFeedUnknownEventNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFeedHandler(&stubEvents{}, nil)
	go feed.Run(ctx)

	r := gin.New()
	r.GET("/events/:eventID/feed", feed.HandleFeed)
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events/404/feed", nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Zero(t, feed.Subscribers(404))
}
