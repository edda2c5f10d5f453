package ws

import (
	"log"
	"net/http"
	"strings"

	"collabcore/internal/collab"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// upgrader allows local development origins; production deployments should
// tighten CheckOrigin to the real frontend host.
var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" { // some clients omit Origin entirely
		return true
	}
	allowedPrefixes := []string{
		"http://localhost",
		"http://127.0.0.1",
		"https://localhost",
		"https://127.0.0.1",
	}
	for _, p := range allowedPrefixes {
		if strings.HasPrefix(origin, p) {
			return true
		}
	}
	return false
}}

type Manager struct {
	h   *Hub
	svc collab.Service
	sem *collab.SemaphoreControl
}

func NewManager(h *Hub, svc collab.Service, sem *collab.SemaphoreControl) *Manager {
	return &Manager{h: h, svc: svc, sem: sem}
}

func (m *Manager) WebSocketConnect(c *gin.Context, h *Hub) {
	// userId/username are set by the auth middleware ahead of this handler.
	userIDUint64 := c.GetUint64("userId")
	username := c.GetString("username")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}
	defer conn.Close()

	msg := ServerMessage{Type: "welcome", Content: "connected"}

	wsConn := NewConn(conn, m.h, "", userIDUint64, username, m.svc, m.sem)

	// start the write loop first so anything queued on send is flushed
	// promptly once the read loop starts producing messages.
	go wsConn.writeLoop()
	wsConn.send <- msg

	wsConn.readLoop(c.Request.Context())
}
