// Command migrator manages the schema of the optional analytics database.
package main

import (
	"database/sql"
	"flag"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, or status")
		dir     = flag.String("dir", "db/migrations", "Directory containing migration files")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		log.Fatal().Msg("PG_DSN environment variable is required")
	}

	migrationDir, err := filepath.Abs(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("failed to resolve migration directory")
	}
	if _, err := os.Stat(migrationDir); os.IsNotExist(err) {
		log.Fatal().Str("dir", migrationDir).Msg("migration directory does not exist")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database connection")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	log.Info().Str("migration_dir", migrationDir).Msg("connected to database")

	goose.SetBaseFS(nil)
	goose.SetTableName("goose_db_version")

	switch *command {
	case "up":
		if err := goose.Up(db, migrationDir); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations up")
		}
		log.Info().Msg("migrations applied successfully")

	case "down":
		if err := goose.Down(db, migrationDir); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations down")
		}
		log.Info().Msg("migrations rolled back successfully")

	case "status":
		if err := goose.Status(db, migrationDir); err != nil {
			log.Fatal().Err(err).Msg("failed to get migration status")
		}

	default:
		log.Fatal().Str("command", *command).Msg("unknown command. Use: up, down, or status")
	}
}
