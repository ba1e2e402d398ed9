package teacher

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/auth"
	"github.com/codequest-edu/shellquest/internal/content"
	"github.com/codequest-edu/shellquest/internal/teacher/ai"
	httperrors "github.com/codequest-edu/shellquest/pkg/http/errors"
)

// HTTPHandlers exposes the teacher portal over JSON. Everything except login
// requires a teacher token.
type HTTPHandlers struct {
	svc          *Service
	generator    *ai.Generator
	tokens       *auth.Manager
	passwordHash string
	logger       zerolog.Logger
}

// NewHTTPHandlers constructs the portal HTTP handlers. The generator may be
// nil when no AI endpoint is configured.
func NewHTTPHandlers(svc *Service, generator *ai.Generator, tokens *auth.Manager, passwordHash string, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:          svc,
		generator:    generator,
		tokens:       tokens,
		passwordHash: passwordHash,
		logger:       logger.With().Str("component", "teacher_http").Logger(),
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /v1/teacher/login against the static portal credential.
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "password is required")
		return
	}
	if err := auth.VerifyPortalPassword(h.passwordHash, req.Password); err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "wrong password")
		return
	}
	token, err := h.tokens.IssueTeacher()
	if err != nil {
		h.logger.Error().Err(err).Msg("teacher token mint failed")
		httperrors.RespondInternalError(w, "could not issue token")
		return
	}
	writeJSON(w, map[string]string{"token": token})
}

// RequireTeacher wraps a handler with the teacher bearer check.
func (h *HTTPHandlers) RequireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "teacher token required")
			return
		}
		claims, err := h.tokens.Validate(strings.TrimPrefix(header, prefix))
		if err != nil || claims.Role != auth.RoleTeacher {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "teacher token required")
			return
		}
		next(w, r)
	}
}

// ListContent handles GET /v1/teacher/content, returning the full live set.
func (h *HTTPHandlers) ListContent(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Store().Snapshot()
	writeJSON(w, snap.Set())
}

// UpsertQuestion handles PUT /v1/teacher/questions/{id}.
func (h *HTTPHandlers) UpsertQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var q content.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed question")
		return
	}
	q.ID = id
	h.respondEdit(w, h.svc.UpsertQuestion(q))
}

// DeleteQuestion handles DELETE /v1/teacher/questions/{id}.
func (h *HTTPHandlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	h.respondEdit(w, h.svc.DeleteQuestion(id))
}

// UpsertLevel handles PUT /v1/teacher/levels/{number}.
func (h *HTTPHandlers) UpsertLevel(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, r, "number")
	if !ok {
		return
	}
	var lvl content.Level
	if err := json.NewDecoder(r.Body).Decode(&lvl); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed level")
		return
	}
	lvl.Number = number
	h.respondEdit(w, h.svc.UpsertLevel(lvl))
}

// DeleteLevel handles DELETE /v1/teacher/levels/{number}.
func (h *HTTPHandlers) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, r, "number")
	if !ok {
		return
	}
	h.respondEdit(w, h.svc.DeleteLevel(number))
}

// UpsertChapter handles PUT /v1/teacher/chapters/{id}.
func (h *HTTPHandlers) UpsertChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var ch content.Chapter
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed chapter")
		return
	}
	ch.ID = id
	h.respondEdit(w, h.svc.UpsertChapter(ch))
}

// DeleteChapter handles DELETE /v1/teacher/chapters/{id}.
func (h *HTTPHandlers) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	h.respondEdit(w, h.svc.DeleteChapter(id))
}

// UpsertEnemy handles PUT /v1/teacher/enemies/{level}.
func (h *HTTPHandlers) UpsertEnemy(w http.ResponseWriter, r *http.Request) {
	level, ok := pathInt(w, r, "level")
	if !ok {
		return
	}
	var e content.Enemy
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed enemy")
		return
	}
	e.Level = level
	h.respondEdit(w, h.svc.UpsertEnemy(e))
}

// DeleteEnemy handles DELETE /v1/teacher/enemies/{level}.
func (h *HTTPHandlers) DeleteEnemy(w http.ResponseWriter, r *http.Request) {
	level, ok := pathInt(w, r, "level")
	if !ok {
		return
	}
	h.respondEdit(w, h.svc.DeleteEnemy(level))
}

// UpdateSettings handles PUT /v1/teacher/settings.
func (h *HTTPHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings content.GameSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "malformed settings")
		return
	}
	h.respondEdit(w, h.svc.UpdateSettings(settings))
}

// Search handles GET /v1/teacher/search?q=networking.
func (h *HTTPHandlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "q is required")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	results := h.svc.Store().Snapshot().Search(query, limit)
	writeJSON(w, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// Generate handles POST /v1/teacher/generate, proxying the AI service.
func (h *HTTPHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		httperrors.RespondError(w, http.StatusServiceUnavailable, httperrors.ErrCodeGenerationFailed, "generation is not configured")
		return
	}
	var req ai.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Topic) == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "topic is required")
		return
	}
	if req.Count < 1 || req.Count > 20 {
		req.Count = 5
	}
	questions, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", req.Topic).Msg("generation failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeGenerationFailed, "generator did not produce usable questions")
		return
	}
	writeJSON(w, map[string]interface{}{"questions": questions})
}

// Reload handles POST /v1/teacher/reload, re-reading content from disk.
func (h *HTTPHandlers) Reload(w http.ResponseWriter, r *http.Request) {
	h.respondEdit(w, h.svc.Reload())
}

// respondEdit maps content-edit outcomes onto the HTTP surface.
func (h *HTTPHandlers) respondEdit(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, map[string]bool{"ok": true})
	case errors.Is(err, content.ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	default:
		var loadErr *content.LoadError
		if errors.As(err, &loadErr) {
			httperrors.RespondError(w, http.StatusUnprocessableEntity, httperrors.ErrCodeContentInvalid, loadErr.Reason)
			return
		}
		h.logger.Error().Err(err).Msg("content edit failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSaveFailed, "could not persist content")
	}
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, name+" must be an integer")
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
