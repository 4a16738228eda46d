package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxtape/voxtape/internal/core"
	verrors "github.com/voxtape/voxtape/internal/errors"
)

// sessionSummary is a session plus derived counts, so listings carry
// enough to render a table without fetching every session.
type sessionSummary struct {
	core.Session
	TurnCount   int `json:"turn_count"`
	FreezeCount int `json:"freeze_count"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.List()
	if err != nil {
		s.log.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	s.metrics.StoreSessions.Set(float64(len(sessions)))

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, sessionSummary{
			Session:     session,
			TurnCount:   len(session.Transcript),
			FreezeCount: len(session.FreezeEvents),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, verrors.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		s.log.Error("failed to read session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read session")
		return
	}
	s.metrics.SessionsServed.Inc()
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var session core.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session body")
		return
	}

	if err := s.store.Put(&session); err != nil {
		s.log.Error("failed to store session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	s.metrics.SessionsCreated.Inc()
	s.log.Info("session created", "id", session.ID)
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleUpdateTranscript(w http.ResponseWriter, r *http.Request) {
	var turns []core.TranscriptTurn
	if err := json.NewDecoder(r.Body).Decode(&turns); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transcript body")
		return
	}

	s.patchSession(w, chi.URLParam(r, "id"), func(session *core.Session) {
		session.Transcript = turns
		if session.LatencyMetrics == nil {
			session.LatencyMetrics = map[string]float64{}
		}
		session.LatencyMetrics["average_latency"] = core.AverageLatency(turns)
	})
}

func (s *Server) handleUpdateFreezeEvents(w http.ResponseWriter, r *http.Request) {
	var events []core.FreezeEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, "invalid freeze events body")
		return
	}

	s.patchSession(w, chi.URLParam(r, "id"), func(session *core.Session) {
		session.FreezeEvents = events
	})
}

func (s *Server) patchSession(w http.ResponseWriter, id string, apply func(*core.Session)) {
	session, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, verrors.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		s.log.Error("failed to read session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read session")
		return
	}

	apply(session)

	if err := s.store.Put(session); err != nil {
		s.log.Error("failed to store session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	s.metrics.SessionsUpdated.Inc()
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	id := strings.TrimSuffix(file, ".wav")
	if id == file || id == "" || id != filepath.Base(id) {
		writeError(w, http.StatusNotFound, "Recording not found")
		return
	}

	path, ok := s.store.RecordingPath(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Recording not found")
		return
	}
	s.metrics.RecordingsServed.Inc()
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already out on encode failure; nothing useful left to do.
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError matches the recorder's error shape: {"detail": "..."}.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
