package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/miragehq/mirage/lib/logger"
	"github.com/miragehq/mirage/lib/middleware"
	"github.com/miragehq/mirage/lib/sessions"
	"github.com/miragehq/mirage/lib/store"
)

// execRequest is the POST /sessions/{sessionId}/exec body.
type execRequest struct {
	Command string `json:"command"`
}

// ConnectHandler handles POST /instances/{id}/connect
func (s *ApiService) ConnectHandler(w http.ResponseWriter, r *http.Request) {
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
			log.ErrorContext(ctx, "failed to open session", "instance_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to open session")
		}
		return
	}

	log.InfoContext(ctx, "session opened", "session_id", sess.Id, "instance_id", id)
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id":  sess.Id,
		"instance_id": sess.InstanceId,
	})
}

// ExecHandler handles POST /sessions/{sessionId}/exec
func (s *ApiService) ExecHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionId := chi.URLParam(r, "sessionId")

	var req execRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	output, err := s.ControlPlane.Exec(ctx, sessionId, req.Command)
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session_not_found", "session not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to execute command")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"output": output})
}

// DisconnectHandler handles DELETE /sessions/{sessionId}
func (s *ApiService) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionId := chi.URLParam(r, "sessionId")

	if err := s.ControlPlane.Disconnect(ctx, sessionId); err != nil {
		switch {
		case errors.Is(err, sessions.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session_not_found", "session not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to discard session")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
