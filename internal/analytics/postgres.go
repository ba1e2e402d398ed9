package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresSink appends events to the game_events table (see db/migrations).
// Like every sink it swallows failures; a down database costs events, not
// gameplay.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ Sink = (*PostgresSink)(nil)

// NewPostgresSink creates a sink writing through the given pool.
func NewPostgresSink(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresSink {
	return &PostgresSink{
		pool:   pool,
		logger: logger.With().Str("component", "analytics_pg").Logger(),
	}
}

const insertEvent = `
INSERT INTO game_events (event_id, event_type, learner, session_id, occurred_at, fields)
VALUES ($1, $2, $3, $4, $5, $6)`

// Emit inserts one event with a short deadline so a stalled database cannot
// hold up a transition.
func (s *PostgresSink) Emit(ctx context.Context, evt Event) {
	fields, err := json.Marshal(evt.Fields)
	if err != nil {
		s.drop(err, evt)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err = s.pool.Exec(ctx, insertEvent,
		evt.ID, evt.Type, evt.Learner, evt.Session, evt.At, fields)
	if err != nil {
		s.drop(err, evt)
	}
}

func (s *PostgresSink) drop(err error, evt Event) {
	droppedEvents.WithLabelValues("postgres").Inc()
	s.logger.Warn().Err(err).Str("event_type", evt.Type).Msg("event dropped")
}
