// Package server assembles the HTTP surface: gameplay, teacher portal,
// leaderboard, live session socket, and operational endpoints.
package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/config"
	"github.com/codequest-edu/shellquest/internal/game"
	"github.com/codequest-edu/shellquest/internal/leaderboard"
	"github.com/codequest-edu/shellquest/internal/teacher"
)

// Handlers groups the route owners the server mounts.
type Handlers struct {
	Game        *game.HTTPHandlers
	Teacher     *teacher.HTTPHandlers
	Leaderboard *leaderboard.HTTPHandler
	SessionWS   http.HandlerFunc
}

// NewHTTPServer wires all routes for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Gameplay
	mux.HandleFunc("POST /v1/game/start", h.Game.StartLevel)
	mux.HandleFunc("POST /v1/game/answer", h.Game.SubmitAnswer)
	mux.HandleFunc("POST /v1/game/advance", h.Game.Advance)
	mux.HandleFunc("GET /v1/game/view", h.Game.View)
	mux.HandleFunc("POST /v1/game/end", h.Game.End)

	// Teacher portal
	mux.HandleFunc("POST /v1/teacher/login", h.Teacher.Login)
	mux.HandleFunc("GET /v1/teacher/content", h.Teacher.RequireTeacher(h.Teacher.ListContent))
	mux.HandleFunc("PUT /v1/teacher/questions/{id}", h.Teacher.RequireTeacher(h.Teacher.UpsertQuestion))
	mux.HandleFunc("DELETE /v1/teacher/questions/{id}", h.Teacher.RequireTeacher(h.Teacher.DeleteQuestion))
	mux.HandleFunc("PUT /v1/teacher/levels/{number}", h.Teacher.RequireTeacher(h.Teacher.UpsertLevel))
	mux.HandleFunc("DELETE /v1/teacher/levels/{number}", h.Teacher.RequireTeacher(h.Teacher.DeleteLevel))
	mux.HandleFunc("PUT /v1/teacher/chapters/{id}", h.Teacher.RequireTeacher(h.Teacher.UpsertChapter))
	mux.HandleFunc("DELETE /v1/teacher/chapters/{id}", h.Teacher.RequireTeacher(h.Teacher.DeleteChapter))
	mux.HandleFunc("PUT /v1/teacher/enemies/{level}", h.Teacher.RequireTeacher(h.Teacher.UpsertEnemy))
	mux.HandleFunc("DELETE /v1/teacher/enemies/{level}", h.Teacher.RequireTeacher(h.Teacher.DeleteEnemy))
	mux.HandleFunc("PUT /v1/teacher/settings", h.Teacher.RequireTeacher(h.Teacher.UpdateSettings))
	mux.HandleFunc("GET /v1/teacher/search", h.Teacher.RequireTeacher(h.Teacher.Search))
	mux.HandleFunc("POST /v1/teacher/generate", h.Teacher.RequireTeacher(h.Teacher.Generate))
	mux.HandleFunc("POST /v1/teacher/reload", h.Teacher.RequireTeacher(h.Teacher.Reload))

	// Leaderboard
	mux.HandleFunc("GET /v1/leaderboard", h.Leaderboard.HandleGet)

	// Live session events
	if h.SessionWS != nil {
		mux.HandleFunc("/ws/session", h.SessionWS)
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg.CORS, mux),
	}
}

// corsMiddleware applies the configured CORS policy to browser requests.
func corsMiddleware(cfg config.CORS, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
