package game

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/analytics"
	"github.com/codequest-edu/shellquest/internal/content"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shellquest_sessions_started_total",
		Help: "Engine sessions created.",
	})
	sessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shellquest_sessions_expired_total",
		Help: "Sessions discarded after the inactivity window.",
	})
	answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shellquest_answers_total",
		Help: "Answers processed by outcome.",
	}, []string{"outcome"})
)

// Registry owns one engine per learner and serializes every transition for
// that learner behind a single mutex. Different learners proceed
// independently; the only state they share is the read-mostly content store
// and the append-only sinks.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*Engine

	store    *content.Store
	sink     analytics.Sink
	saver    Saver
	stream   EventStream
	onFinish func(ctx context.Context, learner string, score, level int, result LevelResult)
	logger   zerolog.Logger
}

// NewRegistry creates the per-learner engine registry.
func NewRegistry(store *content.Store, sink analytics.Sink, saver Saver, stream EventStream, logger zerolog.Logger) *Registry {
	return &Registry{
		engines: make(map[string]*Engine),
		store:   store,
		sink:    sink,
		saver:   saver,
		stream:  stream,
		logger:  logger.With().Str("component", "game_registry").Logger(),
	}
}

// StartLevel starts (or restarts) a level for the learner, creating an engine
// bound to the current content snapshot if none is live.
func (r *Registry) StartLevel(ctx context.Context, learner string, levelNo int, now time.Time) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eng, err := r.liveEngine(ctx, learner, now)
	if err != nil {
		return nil, err
	}
	if eng == nil {
		eng = NewEngine(learner, r.store.Snapshot(), r.sink, r.saver, r.stream, r.logger)
		r.engines[learner] = eng
		sessionsStarted.Inc()
	}

	view, err := eng.StartLevel(ctx, levelNo, now)
	if err != nil {
		return nil, err
	}
	r.reapTerminal(learner, eng)
	return view, nil
}

// SubmitAnswer forwards an answer or timeout to the learner's engine.
func (r *Registry) SubmitAnswer(ctx context.Context, learner, choice string, now time.Time) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eng, err := r.requireEngine(ctx, learner, now)
	if err != nil {
		return nil, err
	}
	view, err := eng.SubmitAnswer(ctx, choice, now)
	if err == nil && view.Feedback != nil {
		answersTotal.WithLabelValues(string(view.Feedback.Outcome)).Inc()
	}
	return view, err
}

// Advance moves the learner past the feedback screen.
func (r *Registry) Advance(ctx context.Context, learner string, now time.Time) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eng, err := r.requireEngine(ctx, learner, now)
	if err != nil {
		return nil, err
	}
	view, err := eng.Advance(ctx, now)
	if err != nil {
		return nil, err
	}
	r.reapTerminal(learner, eng)
	return view, nil
}

// View returns the learner's current view model.
func (r *Registry) View(ctx context.Context, learner string, now time.Time) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eng, err := r.requireEngine(ctx, learner, now)
	if err != nil {
		return nil, err
	}
	eng.Session().Touch(now)
	return eng.View(now), nil
}

// End discards the learner's session explicitly.
func (r *Registry) End(ctx context.Context, learner string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if eng, ok := r.engines[learner]; ok {
		eng.discardSave(ctx)
		delete(r.engines, learner)
	}
}

// liveEngine returns the learner's engine after the inactivity check, nil if
// none exists. An expired session is discarded and reported.
func (r *Registry) liveEngine(ctx context.Context, learner string, now time.Time) (*Engine, error) {
	eng, ok := r.engines[learner]
	if !ok {
		return nil, nil
	}
	if sess := eng.Session(); sess != nil && sess.Expired(now, eng.settings) {
		eng.discardSave(ctx)
		delete(r.engines, learner)
		sessionsExpired.Inc()
		r.logger.Info().Str("learner", learner).Msg("session expired")
		return nil, ErrSessionExpired
	}
	return eng, nil
}

func (r *Registry) requireEngine(ctx context.Context, learner string, now time.Time) (*Engine, error) {
	eng, err := r.liveEngine(ctx, learner, now)
	if err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, ErrIllegalState
	}
	return eng, nil
}

// OnFinish registers a callback invoked when a session reaches a final
// outcome, before the engine is discarded. Used to feed the leaderboard.
func (r *Registry) OnFinish(cb func(ctx context.Context, learner string, score, level int, result LevelResult)) {
	r.onFinish = cb
}

// reapTerminal drops engines that reached a final outcome; the session record
// dies with them.
func (r *Registry) reapTerminal(learner string, eng *Engine) {
	if eng.State() != StateVictory && eng.State() != StateDefeat {
		return
	}
	if r.onFinish != nil {
		result := ResultDefeat
		if eng.State() == StateVictory {
			result = ResultVictory
		}
		r.onFinish(context.Background(), learner, eng.Session().Score, eng.Session().CurrentLevel, result)
	}
	delete(r.engines, learner)
}
