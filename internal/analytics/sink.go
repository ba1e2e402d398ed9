// Package analytics provides the append-only event log for gameplay events.
// Sinks never block or fail the engine: write errors are swallowed, logged,
// and counted.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event is one structured gameplay record keyed by learner, session and
// timestamp.
type Event struct {
	ID      uuid.UUID              `json:"id"`
	Type    string                 `json:"event_type"`
	Learner string                 `json:"learner"`
	Session string                 `json:"session"`
	At      time.Time              `json:"at"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// NewEvent stamps a fresh event.
func NewEvent(eventType, learner, session string, at time.Time, fields map[string]interface{}) Event {
	return Event{
		ID:      uuid.New(),
		Type:    eventType,
		Learner: learner,
		Session: session,
		At:      at.UTC(),
		Fields:  fields,
	}
}

// Sink appends events. Implementations swallow their own errors.
type Sink interface {
	Emit(ctx context.Context, evt Event)
}

var droppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "shellquest_analytics_dropped_total",
	Help: "Events a sink failed to persist.",
}, []string{"sink"})

// NopSink discards everything; used when analytics_enabled is off.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}
