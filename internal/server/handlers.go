package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/assist/internal/assistant"
	"github.com/hyperjump/assist/internal/config"
	"github.com/hyperjump/assist/internal/metrics"
	"github.com/hyperjump/assist/internal/models"
	"github.com/hyperjump/assist/internal/search"
	"github.com/hyperjump/assist/internal/session"
	"github.com/hyperjump/assist/internal/storage"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, assistant.ErrEmptyPrompt.Error())
		return
	}

	ctx := r.Context()
	logger := s.logger.With(zap.String("request_id", middleware.GetReqID(ctx)))

	handle, err := s.sessions.Acquire(ctx, req.SessionID)
	if err != nil {
		logger.Error("Failed to acquire session", zap.String("session_id", req.SessionID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, assistant.ErrGenerationFailed.Error())
		return
	}
	defer handle.Release()
	metrics.ActiveSessions.Set(float64(s.sessions.Count()))
	if req.SessionID != "" && handle.Created {
		logger.Debug("Session expired or unknown, started a new one",
			zap.String("requested", req.SessionID), zap.String("session_id", handle.ID))
	}

	resp, err := s.assistant.Respond(ctx, handle.Session, req.Turn())
	if err != nil {
		status, message := chatErrorStatus(err)
		logger.Error("Chat turn failed", zap.String("session_id", handle.ID), zap.Int("status", status), zap.Error(err))
		s.respondError(w, status, message)
		return
	}
	resp.SessionID = handle.ID
	s.respondJSON(w, http.StatusOK, resp)
}

// chatErrorStatus maps a turn error to an HTTP status and client message.
func chatErrorStatus(err error) (int, string) {
	var qe *search.QueryError
	switch {
	case errors.Is(err, assistant.ErrEmptyPrompt):
		return http.StatusBadRequest, assistant.ErrEmptyPrompt.Error()
	case errors.Is(err, assistant.ErrGenerationFailed):
		return http.StatusInternalServerError, assistant.ErrGenerationFailed.Error()
	case errors.As(err, &qe):
		return http.StatusInternalServerError, qe.Error()
	default:
		return http.StatusInternalServerError, assistant.ErrGenerationFailed.Error()
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ActiveSessions.Set(float64(s.sessions.Count()))
	s.logger.Debug("Session deleted", zap.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"llm_provider":   s.config.LLM.Provider,
		"index_provider": s.config.Index.Provider,
		"sessions":       s.sessions.Count(),
	}
	if s.catalog != nil {
		videos, indexed, err := s.catalog.Stats(r.Context())
		if err != nil {
			s.logger.Error("Status: catalog stats failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["videos"] = videos
		resp["indexed_videos"] = indexed
	}
	if s.config.Index.Provider == config.IndexLocal {
		local := s.config.Index.Local
		if diskBytes, err := storage.DiskUsageBytes(local.DatabasePath, local.BleveIndexPath); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
