package transport

import (
	"time"

	"cartview/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// push is what the UI receives on every change to the shopper's cart.
type push struct {
	Type   string `json:"type"`
	Origin string `json:"origin"`
	// Self is true when the change came from the receiving session.
	Self bool `json:"self"`
}

// Events upgrades to a websocket and forwards cart changes for the caller's
// user until either side goes away.
func (h *Handler) Events(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	log := logger.FromCtx(c.Request.Context()).With(zap.String("session_id", s.ID()))

	// Subscribe before upgrading so no change slips in between.
	changes, cancel := h.bus.Subscribe()
	defer cancel()
	detach := s.Attach()
	defer detach()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-s.Done():
			return
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			if ev.UserID != s.UserID() {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			msg := push{Type: "cartUpdated", Origin: ev.Origin, Self: ev.Origin == s.ID()}
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
