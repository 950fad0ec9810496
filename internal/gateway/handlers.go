package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vinavi-labs/vinavi/internal/companion"
	"github.com/vinavi-labs/vinavi/internal/events"
)

// errorBody is the JSON shape of every failed API call.
type errorBody struct {
	Error   companion.ErrorKind `json:"error"`
	Message string              `json:"message"`
}

var statusByKind = map[companion.ErrorKind]int{
	companion.KindInvalidMode:       http.StatusBadRequest,
	companion.KindInvalidInput:      http.StatusBadRequest,
	companion.KindModerationBlocked: http.StatusUnprocessableEntity,
	companion.KindEmptyExercise:     http.StatusUnprocessableEntity,
	companion.KindNoExercise:        http.StatusConflict,
	companion.KindBusy:              http.StatusConflict,
	companion.KindNotFound:          http.StatusNotFound,
	companion.KindMissingResource:   http.StatusServiceUnavailable,
	companion.KindUpstream:          http.StatusBadGateway,
}

// describe turns any error into a kind and a child-safe message.
func describe(err error) (companion.ErrorKind, string) {
	var e *companion.Error
	if errors.As(err, &e) {
		return e.Kind, e.Message
	}
	kind := companion.KindUpstream
	return kind, companion.MessageFor(kind)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind, msg := describe(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	} else {
		slog.Debug("request rejected", "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, errorBody{Error: kind, Message: msg})
}

// decode reads an optional JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return companion.InvalidInput(err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.hub.Clients()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var history []events.Event
	if id := r.URL.Query().Get("session_id"); id != "" {
		history = s.bus.SessionHistory(id, limit)
	} else {
		history = s.bus.History(limit)
	}

	type eventJSON struct {
		ID        string             `json:"id"`
		SessionID string             `json:"session_id,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			SessionID: e.SessionID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.svc.CreateSession(r.Context(), body.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.List(r.Context()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CloseSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSwitchMode(w http.ResponseWriter, r *http.Request) {
	var body modeParams
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.svc.SwitchMode(r.Context(), chi.URLParam(r, "id"), body.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body askParams
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeResult(w, r)(s.svc.Ask(r.Context(), chi.URLParam(r, "id"), body.Option, body.Text))
}

func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	var body textParams
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeResult(w, r)(s.svc.Converse(r.Context(), chi.URLParam(r, "id"), body.Text))
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r)(s.svc.Expand(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleStartExercise(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r)(s.svc.StartExercise(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var body answersParams
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeResult(w, r)(s.svc.SubmitAnswers(r.Context(), chi.URLParam(r, "id"), body.Answers))
}

func (s *Server) handleResetExercise(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.ResetExercise(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	source := companion.Source(r.URL.Query().Get("source"))
	audio, err := s.svc.ReadAloud(r.Context(), chi.URLParam(r, "id"), source)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(audio.Data); err != nil {
		slog.Debug("write audio", "error", err)
	}
}

// writeResult adapts a service call returning a Result.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request) func(*companion.Result, error) {
	return func(res *companion.Result, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
