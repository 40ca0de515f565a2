package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// AnnotationsHandler pushes every frame's annotations to WebSocket clients as JSON.
type AnnotationsHandler struct {
	hub *Hub
}

// NewAnnotationsHandler creates a new AnnotationsHandler reading from hub.
func NewAnnotationsHandler(hub *Hub) *AnnotationsHandler {
	return &AnnotationsHandler{hub: hub}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *AnnotationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	// Detect client disconnects by reading until error
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var lastSeq uint64
	for {
		if _, res := h.hub.Latest(); res != nil && res.Seq != lastSeq {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(res); err != nil {
				return
			}
			lastSeq = res.Seq
		}

		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-updates:
		}
	}
}
