package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/gin-gonic/gin"
)

// Hub fans content status events out to the SSE streams of their owner.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan model.ContentStatusEvent]struct{}
}

func NewContentHub() *Hub {
	return &Hub{users: make(map[string]map[chan model.ContentStatusEvent]struct{})}
}

var _ repository.IStatusNotifier = (*Hub)(nil)

// Serve streams events for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.Subscribe(userID)
	defer h.Unsubscribe(userID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: " + evt.Type + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) Subscribe(userID string) chan model.ContentStatusEvent {
	ch := make(chan model.ContentStatusEvent, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan model.ContentStatusEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(userID string, ch chan model.ContentStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// NotifyStatus never blocks; slow subscribers miss events.
func (h *Hub) NotifyStatus(_ context.Context, evt *model.ContentStatusEvent) error {
	if evt == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[evt.UserID] {
		select {
		case ch <- *evt:
		default:
		}
	}
	return nil
}
