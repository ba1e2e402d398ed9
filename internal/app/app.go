// Package app bootstraps the game service: content store, optional Redis and
// Postgres backends, the per-learner engine registry, and the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/analytics"
	"github.com/codequest-edu/shellquest/internal/auth"
	"github.com/codequest-edu/shellquest/internal/config"
	"github.com/codequest-edu/shellquest/internal/content"
	"github.com/codequest-edu/shellquest/internal/game"
	"github.com/codequest-edu/shellquest/internal/leaderboard"
	"github.com/codequest-edu/shellquest/internal/logging"
	"github.com/codequest-edu/shellquest/internal/server"
	"github.com/codequest-edu/shellquest/internal/teacher"
	"github.com/codequest-edu/shellquest/internal/teacher/ai"
	"github.com/codequest-edu/shellquest/pkg/http/ws"
)

// Application aggregates shared infrastructure and the HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
}

// New bootstraps config, logger, content, backends, and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("content_root", cfg.Content.Root).Msg("starting application bootstrap")

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be configured")
	}

	set, err := content.LoadSet(cfg.Content.Root)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	store, err := content.NewStore(set, logger)
	if err != nil {
		return nil, fmt.Errorf("validate content: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.DSN != "" {
		pool, err = pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
	}

	sink, err := buildSink(cfg, pool, logger)
	if err != nil {
		return nil, err
	}

	var saver game.Saver
	if redisClient != nil {
		saver = game.NewRedisSaver(redisClient, cfg.Redis.SaveTTL, logger)
	} else {
		saver = game.NewMemorySaver()
	}

	tokens := auth.NewManager(auth.ManagerConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.TokenTTL,
		Issuer: cfg.Name,
	})

	hub := ws.NewHub(logger)
	stream := game.NewHubStream(hub)

	registry := game.NewRegistry(store, sink, saver, stream, logger)

	lbStore := leaderboard.NewFileStore(cfg.Content.LeaderboardFile)
	lbSvc := leaderboard.NewService(lbStore, redisClient, leaderboard.ServiceOptions{}, logger)
	registry.OnFinish(func(ctx context.Context, learner string, score, level int, result game.LevelResult) {
		if result != game.ResultVictory {
			return
		}
		if err := lbSvc.Record(ctx, leaderboard.Entry{Learner: learner, Score: score, Level: level}); err != nil {
			logger.Warn().Err(err).Str("learner", learner).Msg("leaderboard record failed")
		}
	})

	teacherSvc := teacher.NewService(cfg.Content.Root, store, logger)
	var generator *ai.Generator
	if cfg.AI.GeneratorURL != "" {
		generator = ai.NewGenerator(ai.Config{
			GeneratorURL: cfg.AI.GeneratorURL,
			GeneratorKey: cfg.AI.GeneratorKey,
			Timeout:      cfg.AI.HTTPTimeout,
			MaxRetries:   cfg.AI.MaxRetries,
		}, logger)
	} else {
		logger.Warn().Msg("AI generator not configured; /v1/teacher/generate disabled")
	}
	if cfg.Security.TeacherPasswordHash == "" {
		logger.Warn().Msg("teacher password not configured; portal login disabled")
	}

	apiServer := server.NewHTTPServer(cfg, logger, server.Handlers{
		Game:        game.NewHTTPHandlers(registry, tokens, logger),
		Teacher:     teacher.NewHTTPHandlers(teacherSvc, generator, tokens, cfg.Security.TeacherPasswordHash, logger),
		Leaderboard: leaderboard.NewHTTPHandler(lbSvc, logger),
		SessionWS:   game.NewWSHandler(hub, tokens, logger).HandleWebSocket,
	})

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
	}, nil
}

// buildSink selects the analytics backend. Whether events are emitted at all
// is governed by the game settings; the backend only decides where they land.
func buildSink(cfg *config.App, pool *pgxpool.Pool, logger zerolog.Logger) (analytics.Sink, error) {
	switch cfg.Analytics.Backend {
	case "file":
		return analytics.NewFileSink(cfg.Analytics.File, logger), nil
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("analytics backend postgres requires PG_DSN")
		}
		return analytics.NewPostgresSink(pool, logger), nil
	case "none", "":
		return analytics.NopSink{}, nil
	default:
		return nil, fmt.Errorf("unknown analytics backend %q", cfg.Analytics.Backend)
	}
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
