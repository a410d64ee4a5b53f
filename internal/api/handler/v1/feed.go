package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/eventdesk/eventdesk-api/internal/api/handler/v1/response"
	"github.com/eventdesk/eventdesk-api/internal/domain"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
	feedSendBuffer = 64
)

type FeedEventReader interface {
	Get(ctx context.Context, id uint) (domain.Event, error)
}

type feedClient struct {
	conn    *websocket.Conn
	send    chan []byte
	eventID uint
}

// FeedHandler pushes committed participant transitions to the admins
// watching an event. It is the service layer's Publisher.
type FeedHandler struct {
	events     FeedEventReader
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
	clients    map[uint]map[*feedClient]struct{}
	broadcast  chan domain.ParticipantChange
	register   chan *feedClient
	unregister chan *feedClient
	done       chan struct{}
}

func NewFeedHandler(events FeedEventReader, allowedOrigins []string) *FeedHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &FeedHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
		events:     events,
		clients:    make(map[uint]map[*feedClient]struct{}),
		broadcast:  make(chan domain.ParticipantChange, 256),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		done:       make(chan struct{}),
	}
}

// Run owns the subscriber set until ctx is done.
func (h *FeedHandler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, subs := range h.clients {
				for client := range subs {
					close(client.send)
				}
			}
			h.clients = make(map[uint]map[*feedClient]struct{})
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.eventID] == nil {
				h.clients[client.eventID] = make(map[*feedClient]struct{})
			}
			h.clients[client.eventID][client] = struct{}{}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		case change := <-h.broadcast:
			message, err := json.Marshal(change)
			if err != nil {
				zap.L().Error("failed to encode participant change", zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.clients[change.EventID] {
				select {
				case client.send <- message:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *FeedHandler) remove(client *feedClient) {
	subs, ok := h.clients[client.eventID]
	if !ok {
		return
	}
	if _, ok = subs[client]; !ok {
		return
	}

	delete(subs, client)
	close(client.send)
	if len(subs) == 0 {
		delete(h.clients, client.eventID)
	}
}

// Publish never blocks the caller; changes are dropped when the hub lags.
func (h *FeedHandler) Publish(change domain.ParticipantChange) {
	select {
	case h.broadcast <- change:
	default:
		zap.L().Warn("participant feed is full, dropping change",
			zap.Uint("event_id", change.EventID),
			zap.Uint("participant_id", change.ParticipantID),
		)
	}
}

func (h *FeedHandler) Subscribers(eventID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[eventID])
}

// HandleFeed godoc
// @Summary      Live participant feed
// @Description  Upgrades to a websocket that receives every participant status change of the event as JSON.
// @Tags         admin
// @Param        eventID   path      int  true  "Event ID"
// @Success      101       {object}  domain.ParticipantChange
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/events/{eventID}/participants/feed [get]
// @Security BearerAuth
func (h *FeedHandler) HandleFeed(ctx *gin.Context) {
	eventID, respErr := pathID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if _, err := h.events.Get(ctx, eventID); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
			return
		}
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleFeed -> h.events.Get -> %w", err)))
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Uint("event_id", eventID), zap.Error(err))
		return
	}

	client := &feedClient{
		conn:    conn,
		send:    make(chan []byte, feedSendBuffer),
		eventID: eventID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; the feed is one-way.
func (c *feedClient) readPump(h *FeedHandler) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("participant feed closed", zap.Uint("event_id", c.eventID), zap.Error(err))
			}
			return
		}
	}
}
