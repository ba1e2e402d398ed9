package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"shellquest"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Content   Content
	Security  Security
	Redis     Redis
	Postgres  Postgres
	Analytics Analytics
	AI        AI
	CORS      CORS
}

// Content locates the editable JSON content root and derived data files.
type Content struct {
	Root            string `env:"CONTENT_ROOT" envDefault:"./content"`
	LeaderboardFile string `env:"LEADERBOARD_FILE" envDefault:"./content/leaderboard.json"`
}

// Security stores secrets for signing and the portal credential.
type Security struct {
	JWTSecret           string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL            time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	TeacherPasswordHash string        `env:"TEACHER_PASSWORD_HASH"`
}

// Redis holds the optional session auto-save / leaderboard cache backend.
// When Addr is empty, saves stay in memory and the leaderboard reads files.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	SaveTTL  time.Duration `env:"REDIS_SAVE_TTL" envDefault:"2h"`
}

// Postgres captures connection info for the optional analytics database.
type Postgres struct {
	DSN string `env:"PG_DSN"`
}

// Analytics selects the event sink when the game settings enable analytics.
type Analytics struct {
	// Backend is one of "file", "postgres", or "none".
	Backend string `env:"ANALYTICS_BACKEND" envDefault:"file"`
	File    string `env:"ANALYTICS_FILE" envDefault:"./content/events.jsonl"`
}

// AI configures the question generator service.
type AI struct {
	GeneratorURL string        `env:"AI_GENERATOR_URL"`
	GeneratorKey string        `env:"AI_GENERATOR_API_KEY"`
	HTTPTimeout  time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"6s"`
	MaxRetries   int           `env:"AI_MAX_RETRIES" envDefault:"2"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
