package api

import (
	"net/http"
	"time"

	"sunclock/internal/chart"
	"sunclock/internal/log"
	"sunclock/internal/solar"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamMessage is one frame of the live dial feed.
type streamMessage struct {
	Report *solar.Report `json:"report,omitempty"`
	Dial   *chart.Dial   `json:"dial,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func (s *Server) snapshot() streamMessage {
	report, err := s.current()
	if err != nil {
		return streamMessage{Error: err.Error()}
	}
	dial, err := chart.Build(report)
	if err != nil {
		return streamMessage{Error: err.Error()}
	}
	return streamMessage{Report: report, Dial: dial}
}

// streamHandler pushes a fresh dial every refresh period until the client
// goes away.
func (s *Server) streamHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	log.Debugw("WebSocket client connected", "remote", conn.RemoteAddr().String())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warnf("WebSocket error: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Duration(s.refresh) * time.Second)
	defer ticker.Stop()

	for {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(s.snapshot()); err != nil {
			log.Debugw("WebSocket write failed", "error", err)
			return
		}
		select {
		case <-closed:
			log.Debugw("WebSocket client disconnected", "remote", conn.RemoteAddr().String())
			return
		case <-ticker.C:
		}
	}
}
