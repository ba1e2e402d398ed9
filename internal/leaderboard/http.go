package leaderboard

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// HTTPHandler exposes the leaderboard query endpoint.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs the leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds to GET /v1/leaderboard?limit=10.
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	top, err := h.svc.Top(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("leaderboard fetch failed")
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"top":         top,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
