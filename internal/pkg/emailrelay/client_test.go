package emailrelay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, retries uint64) *Client {
	c := NewClient(Config{
		Endpoint:   url,
		ServiceID:  "service",
		TemplateID: "template",
		UserID:     "user",
		MaxRetries: retries,
	})
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	return c
}

func TestSendPostsPayload(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 0).Send(context.Background(), Message{
		Params: map[string]string{"to_email": "ada@example.com", "message": "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, "service", got.ServiceID)
	assert.Equal(t, "template", got.TemplateID)
	assert.Equal(t, "user", got.UserID)
	assert.Equal(t, "hello", got.TemplateParams["message"])
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 2).Send(context.Background(), Message{TemplateID: "other"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The template ID is invalid"))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 3).Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrRelayRejected)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDisabledClientDrops(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Send(context.Background(), Message{}))
}
