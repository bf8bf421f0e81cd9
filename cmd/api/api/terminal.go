package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/miragehq/mirage/lib/logger"
	"github.com/miragehq/mirage/lib/middleware"
	"github.com/miragehq/mirage/lib/sessions"
	"github.com/miragehq/mirage/lib/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now - can be tightened in production
		return true
	},
}

// TerminalHandler handles GET /instances/{id}/terminal. It opens a
// command session against the instance and bridges it over a
// WebSocket: each text message is executed as one command and its
// output written back as a text message. The session is discarded when
// the socket closes.
func (s *ApiService) TerminalHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	ownerId := middleware.OwnerFromContext(ctx)
	id := chi.URLParam(r, "id")

	sess, err := s.ControlPlane.Connect(ctx, ownerId, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "instance not found")
		case errors.Is(err, sessions.ErrTooManySessions):
			writeError(w, http.StatusTooManyRequests, "too_many_sessions", "session connect rate exceeded")
		default:
			log.ErrorContext(ctx, "failed to open terminal session", "instance_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to open terminal session")
		}
		return
	}
	defer func() {
		_ = s.ControlPlane.Disconnect(ctx, sess.Id)
	}()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	log.InfoContext(ctx, "terminal session started", "session_id", sess.Id, "instance_id", id)

	for {
		msgType, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.DebugContext(ctx, "terminal websocket read error", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		output, err := s.ControlPlane.Exec(ctx, sess.Id, string(message))
		if err != nil {
			// Session vanished under us; nothing left to serve.
			return
		}
		if err := ws.WriteMessage(websocket.TextMessage, []byte(output)); err != nil {
			log.DebugContext(ctx, "terminal websocket write error", "error", err)
			return
		}
	}
}
