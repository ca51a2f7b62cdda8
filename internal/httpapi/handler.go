package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"carsage/internal/contract"
	"carsage/internal/dialogue"
	"carsage/internal/session"
)

// #region types

type messageRequest struct {
	Text string `json:"text"`
}

type replyResponse struct {
	SessionID      string                      `json:"session_id,omitempty"`
	Text           string                      `json:"text"`
	Flow           string                      `json:"flow"`
	Stage          string                      `json:"stage"`
	Profile        string                      `json:"profile,omitempty"`
	RawFallback    bool                        `json:"raw_fallback,omitempty"`
	Error          bool                        `json:"error,omitempty"`
	Recommendation *contract.RecommendationSet `json:"recommendation,omitempty"`
	Comparison     *contract.ComparisonSet     `json:"comparison,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toReplyResponse(sessionID string, reply dialogue.Reply) replyResponse {
	return replyResponse{
		SessionID:      sessionID,
		Text:           reply.Text,
		Flow:           string(reply.Flow),
		Stage:          string(reply.Stage),
		Profile:        reply.Profile,
		RawFallback:    reply.RawFallback,
		Error:          reply.Err,
		Recommendation: reply.Recommendation,
		Comparison:     reply.Comparison,
	}
}

// #endregion

// #region handler

// Handler serves the chat API over one session manager.
type Handler struct {
	mgr *session.Manager
}

func NewHandler(mgr *session.Manager) *Handler {
	return &Handler{mgr: mgr}
}

// Router builds the full route tree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	// Websocket connections outlive the request timeout, so only the
	// REST routes sit behind it.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(90 * time.Second))
		r.Post("/sessions", h.CreateSession)
		r.Post("/sessions/{id}/messages", h.PostMessage)
		r.Post("/sessions/{id}/reset", h.ResetSession)
	})

	r.Get("/sessions/{id}/ws", h.HandleWS)

	return r
}

// #endregion

// #region endpoints

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSession starts a conversation and returns the greeting.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, reply, err := h.mgr.Create(r.Context())
	if err != nil {
		slog.Error("create session failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "session_error",
			Message: "could not create session",
		})
		return
	}
	writeJSON(w, http.StatusCreated, toReplyResponse(id, reply))
}

// PostMessage processes one user turn.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "body must be JSON with a non-empty text field",
		})
		return
	}

	reply, err := h.mgr.Handle(r.Context(), id, req.Text)
	if err != nil {
		status, resp := mapSessionError(err)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, toReplyResponse(id, reply))
}

// ResetSession wipes the session back to mode selection.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reply, err := h.mgr.Reset(r.Context(), id)
	if err != nil {
		status, resp := mapSessionError(err)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, toReplyResponse(id, reply))
}

// #endregion

// #region helpers

func mapSessionError(err error) (int, errorResponse) {
	if errors.Is(err, session.ErrNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "unknown session id",
		}
	}
	slog.Error("session turn failed", "error", err)
	return http.StatusInternalServerError, errorResponse{
		Error:   "session_error",
		Message: "could not process the message",
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// #endregion
