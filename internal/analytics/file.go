package analytics

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// FileSink appends newline-delimited JSON events to a single log file. It is
// the default sink when no Postgres DSN is configured.
type FileSink struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates a JSONL sink writing to path.
func NewFileSink(path string, logger zerolog.Logger) *FileSink {
	return &FileSink{
		path:   path,
		logger: logger.With().Str("component", "analytics_file").Logger(),
	}
}

// Emit appends one event. Errors are logged and counted, never returned.
func (s *FileSink) Emit(_ context.Context, evt Event) {
	line, err := json.Marshal(evt)
	if err != nil {
		s.drop(err, evt)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.drop(err, evt)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		s.drop(err, evt)
	}
}

func (s *FileSink) drop(err error, evt Event) {
	droppedEvents.WithLabelValues("file").Inc()
	s.logger.Warn().Err(err).Str("event_type", evt.Type).Msg("event dropped")
}
