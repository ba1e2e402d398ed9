package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/auth"
	"github.com/codequest-edu/shellquest/internal/content"
	httperrors "github.com/codequest-edu/shellquest/pkg/http/errors"
)

// HTTPHandlers exposes the four-operation engine surface over JSON.
type HTTPHandlers struct {
	registry *Registry
	tokens   *auth.Manager
	logger   zerolog.Logger
}

// NewHTTPHandlers constructs the gameplay HTTP handlers.
func NewHTTPHandlers(registry *Registry, tokens *auth.Manager, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		registry: registry,
		tokens:   tokens,
		logger:   logger.With().Str("component", "game_http").Logger(),
	}
}

type startRequest struct {
	Level int `json:"level"`
}

type answerRequest struct {
	Choice string `json:"choice"`
	// ClientElapsedMS is a UI hint only; scoring always uses the
	// server-side question clock.
	ClientElapsedMS int64 `json:"client_elapsed_ms,omitempty"`
}

type viewResponse struct {
	Token string `json:"token,omitempty"`
	View  *View  `json:"view"`
}

// StartLevel handles POST /v1/game/start. A request without a learner token
// gets a fresh anonymous identity in the response.
func (h *HTTPHandlers) StartLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Level < 1 {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "level must be a positive integer")
		return
	}

	learner, freshToken := h.learner(r)
	if learner == "" {
		var err error
		learner, freshToken, err = h.tokens.IssueLearner()
		if err != nil {
			h.logger.Error().Err(err).Msg("token mint failed")
			httperrors.RespondInternalError(w, "could not create learner identity")
			return
		}
	}

	view, err := h.registry.StartLevel(r.Context(), learner, req.Level, time.Now())
	if err != nil {
		h.respondGameError(w, r, learner, err)
		return
	}
	writeJSON(w, viewResponse{Token: freshToken, View: view})
}

// SubmitAnswer handles POST /v1/game/answer.
func (h *HTTPHandlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	learner, _ := h.learner(r)
	if learner == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "learner token required")
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Choice == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "choice is required")
		return
	}

	view, err := h.registry.SubmitAnswer(r.Context(), learner, req.Choice, time.Now())
	if err != nil {
		h.respondGameError(w, r, learner, err)
		return
	}
	writeJSON(w, viewResponse{View: view})
}

// Advance handles POST /v1/game/advance.
func (h *HTTPHandlers) Advance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	learner, _ := h.learner(r)
	if learner == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "learner token required")
		return
	}

	view, err := h.registry.Advance(r.Context(), learner, time.Now())
	if err != nil {
		h.respondGameError(w, r, learner, err)
		return
	}
	writeJSON(w, viewResponse{View: view})
}

// View handles GET /v1/game/view (refresh).
func (h *HTTPHandlers) View(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	learner, _ := h.learner(r)
	if learner == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "learner token required")
		return
	}

	view, err := h.registry.View(r.Context(), learner, time.Now())
	if err != nil {
		h.respondGameError(w, r, learner, err)
		return
	}
	writeJSON(w, viewResponse{View: view})
}

// End handles POST /v1/game/end, discarding the session.
func (h *HTTPHandlers) End(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	learner, _ := h.learner(r)
	if learner == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "learner token required")
		return
	}
	h.registry.End(r.Context(), learner)
	writeJSON(w, map[string]bool{"ended": true})
}

// learner extracts the learner id from a bearer token. The second return is
// only set when this handler minted a fresh token.
func (h *HTTPHandlers) learner(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", ""
	}
	claims, err := h.tokens.Validate(header[len(prefix):])
	if err != nil || claims.Role != auth.RoleLearner {
		return "", ""
	}
	return claims.Subject, ""
}

// respondGameError maps engine errors onto the HTTP surface. An illegal
// transition recovers idempotently by answering with the canonical current
// view when one exists.
func (h *HTTPHandlers) respondGameError(w http.ResponseWriter, r *http.Request, learner string, err error) {
	switch {
	case errors.Is(err, ErrSessionExpired):
		httperrors.RespondError(w, http.StatusGone, httperrors.ErrCodeSessionExpired, "session expired, pick a level to start again")
	case errors.Is(err, ErrLevelLocked):
		httperrors.RespondError(w, http.StatusForbidden, httperrors.ErrCodeLevelLocked, "level not unlocked yet")
	case errors.Is(err, content.ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	case errors.Is(err, ErrIllegalState):
		if view, verr := h.registry.View(r.Context(), learner, time.Now()); verr == nil {
			writeJSON(w, viewResponse{View: view})
			return
		}
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeIllegalState, "no active session, start a level first")
	default:
		h.logger.Error().Err(err).Msg("game request failed")
		httperrors.RespondInternalError(w, "unexpected error")
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
