package handlers

import (
	"net/http"
	"time"

	"olo_mining/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS upgrades to the live view. The install token travels in ?token=.
func (h *Handler) WS(hub *ws.Hub, allowedOrigin string, interval time.Duration) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
	view := ws.LiveView{Mining: h.Mining, Tasks: h.Tasks}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		id, err := h.Sessions.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("ws upgrade failed", "install_id", id, "error", err)
			return
		}

		ws.NewClient(id, conn, hub, view, interval).Run()
	}
}
