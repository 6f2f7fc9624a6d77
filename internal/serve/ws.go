package serve

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Same-origin policy is the deployment's concern; the server binds to
	// loopback by default.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// handleDiscussionEvents streams a discussion's round events over WebSocket:
// the backlog first, then live events until the discussion finishes.
func (s *Server) handleDiscussionEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.discussions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeDiscussionNotFound, "no discussion with id %q", id)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "id", id, "error", err)
		return
	}
	defer conn.Close()

	backlog, live, done := rec.subscribe()
	for _, ev := range backlog {
		if err := writeEvent(conn, ev); err != nil {
			return
		}
	}
	if done {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "discussion finished"),
			time.Now().Add(wsWriteTimeout))
		return
	}

	for ev := range live {
		if err := writeEvent(conn, ev); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "discussion finished"),
		time.Now().Add(wsWriteTimeout))
}

func writeEvent(conn *websocket.Conn, ev any) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(ev)
}
