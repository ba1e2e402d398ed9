package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/analytics"
	"github.com/codequest-edu/shellquest/internal/content"
)

// Engine drives one learner through the level state machine:
//
//	Idle -> InLevel(k) -> AwaitingFeedback -> InLevel(k+1) -> ... ->
//	LevelEnded -> Idle | Victory | Defeat
//
// All transitions are synchronous; the registry serializes calls per learner.
type Engine struct {
	learner   string
	sessionID string

	snap     *content.Snapshot
	settings content.GameSettings
	sess     *Session
	state    EngineState

	queue    []*content.Question // level questions, tail may be reordered
	levelLen int
	enemy    content.Enemy
	feedback *Feedback
	summary  *Progression

	sink   analytics.Sink
	saver  Saver
	stream EventStream
	logger zerolog.Logger
}

// NewEngine creates an idle engine bound to one learner and one content
// snapshot. The snapshot stays fixed for the engine's lifetime so teacher
// edits never shift content under a running session.
func NewEngine(learner string, snap *content.Snapshot, sink analytics.Sink, saver Saver, stream EventStream, logger zerolog.Logger) *Engine {
	if sink == nil {
		sink = analytics.NopSink{}
	}
	return &Engine{
		learner:   learner,
		sessionID: uuid.NewString(),
		snap:      snap,
		settings:  snap.Settings(),
		state:     StateIdle,
		sink:      sink,
		saver:     saver,
		stream:    stream,
		logger:    logger.With().Str("component", "engine").Str("learner", learner).Logger(),
	}
}

// State returns the current machine state.
func (e *Engine) State() EngineState { return e.state }

// Session exposes the run record for the registry's expiry checks.
func (e *Engine) Session() *Session { return e.sess }

// StartLevel transitions Idle -> InLevel(0). The level must be unlocked or
// be the first locked one. A level with zero questions finalizes on the spot.
func (e *Engine) StartLevel(ctx context.Context, levelNo int, now time.Time) (*View, error) {
	if e.state != StateIdle {
		return nil, fmt.Errorf("start level in %s: %w", e.state, ErrIllegalState)
	}
	if _, err := e.snap.Level(levelNo); err != nil {
		return nil, err
	}

	if e.sess == nil {
		e.sess = NewSession(e.learner, levelNo, e.settings, now)
	}
	if !e.startable(levelNo) {
		return nil, fmt.Errorf("level %d: %w", levelNo, ErrLevelLocked)
	}
	e.sess.EnterLevel(levelNo, e.settings, now)
	e.sess.Touch(now)

	questions, err := e.snap.LevelQuestions(levelNo)
	if err != nil {
		return nil, err
	}
	// Authored count wins when questions_per_level exceeds it.
	if len(questions) > e.settings.QuestionsPerLevel {
		questions = questions[:e.settings.QuestionsPerLevel]
	}
	e.queue = questions
	e.levelLen = len(questions)
	e.enemy = e.snap.EnemyForLevel(levelNo)
	e.feedback = nil
	e.summary = nil

	e.emit(ctx, EventLevelStarted, map[string]interface{}{
		"level":     levelNo,
		"questions": e.levelLen,
	}, now)
	e.autosave(ctx)

	if e.levelLen == 0 {
		e.state = StateLevelEnded
		return e.finalize(ctx, now)
	}

	e.state = StateInLevel
	return e.view(now), nil
}

// SubmitAnswer transitions InLevel -> AwaitingFeedback. choice is an option
// tag or ChoiceTimeout. Elapsed time is computed server-side from the
// question serve time; a choice arriving past the limit is a timeout no
// matter what the client claims. Resubmission while feedback is pending is a
// no-op returning the original feedback.
func (e *Engine) SubmitAnswer(ctx context.Context, choice string, now time.Time) (*View, error) {
	switch e.state {
	case StateAwaitingFeedback:
		// Idempotent: a duplicate answer or a late TIMEOUT changes nothing.
		return e.view(now), nil
	case StateInLevel:
	default:
		return nil, fmt.Errorf("submit answer in %s: %w", e.state, ErrIllegalState)
	}

	question := e.queue[e.sess.QuestionIndex]
	elapsed := now.Sub(e.sess.QuestionStartedAt)
	speed := ClassifySpeed(elapsed, e.settings.QuestionTimeLimit)

	var d Deltas
	var correct bool
	if choice == ChoiceTimeout || speed == SpeedTimeout {
		d = TimeoutDeltas(e.settings, e.sess.CurrentLevel)
	} else if correct = choice == question.Answer; correct {
		d = CorrectDeltas(e.settings, speed)
	} else {
		d = WrongDeltas(e.settings, e.sess.CurrentLevel, speed)
	}

	e.sess.RecordOutcome(question.ID, d.CountsAs, elapsed)
	e.sess.ApplyDeltas(d)
	e.sess.IncrementQuestion()
	e.sess.Touch(now)

	e.feedback = &Feedback{
		Correct:    correct,
		Outcome:    d.CountsAs,
		Speed:      d.Speed,
		Dialogue:   e.dialogue(question, d.CountsAs),
		ScoreDelta: d.Score,
		AnswerTag:  question.Answer,
	}
	e.state = StateAwaitingFeedback

	e.emit(ctx, EventQuestionAnswered, map[string]interface{}{
		"level":       e.sess.CurrentLevel,
		"question_id": question.ID,
		"outcome":     string(d.CountsAs),
		"speed":       string(d.Speed),
		"elapsed_ms":  elapsed.Milliseconds(),
		"score":       e.sess.Score,
	}, now)
	e.autosave(ctx)

	e.logger.Debug().
		Int("question_id", question.ID).
		Str("outcome", string(d.CountsAs)).
		Str("speed", string(d.Speed)).
		Msg("answer processed")

	return e.view(now), nil
}

// Advance transitions AwaitingFeedback -> InLevel(k+1), or to the level-end
// summary when an end condition holds (all questions answered, hp exhausted,
// lives exhausted, immediate failure).
func (e *Engine) Advance(ctx context.Context, now time.Time) (*View, error) {
	if e.state != StateAwaitingFeedback {
		return nil, fmt.Errorf("advance in %s: %w", e.state, ErrIllegalState)
	}
	e.feedback = nil
	e.sess.Touch(now)

	if e.sess.QuestionIndex >= e.levelLen || e.sess.PlayerHP <= 0 {
		e.state = StateLevelEnded
		return e.finalize(ctx, now)
	}

	if e.settings.AdaptiveDifficulty {
		answered := e.sess.History[len(e.sess.History)-1]
		if last, err := e.snap.Question(answered.QuestionID); err == nil {
			reordered := AdaptiveReorder(e.queue[e.sess.QuestionIndex:], e.sess.LastTwoOutcomes(), last)
			copy(e.queue[e.sess.QuestionIndex:], reordered)
		}
	}

	e.sess.ResetQuestionTimer(now)
	e.state = StateInLevel
	e.autosave(ctx)
	return e.view(now), nil
}

// View returns the current view model without mutating anything beyond the
// activity clock.
func (e *Engine) View(now time.Time) *View {
	return e.view(now)
}

// finalize runs LevelEnded -> Idle | Victory | Defeat.
func (e *Engine) finalize(ctx context.Context, now time.Time) (*View, error) {
	if e.state != StateLevelEnded {
		return nil, fmt.Errorf("finalize in %s: %w", e.state, ErrIllegalState)
	}

	levelNo := e.sess.CurrentLevel
	prog := ResolveLevel(e.sess, e.settings, e.levelLen, e.snap.MaxLevel())
	e.summary = &prog

	e.emit(ctx, EventLevelFinished, map[string]interface{}{
		"level":    levelNo,
		"result":   string(prog.Result),
		"accuracy": prog.Accuracy,
		"score":    e.sess.Score,
	}, now)

	switch prog.Result {
	case ResultVictory:
		e.state = StateVictory
		e.discardSave(ctx)
	case ResultDefeat:
		e.state = StateDefeat
		e.discardSave(ctx)
	default:
		e.state = StateIdle
		e.autosave(ctx)
	}

	e.logger.Info().
		Int("level", levelNo).
		Str("result", string(prog.Result)).
		Int("accuracy", prog.Accuracy).
		Msg("level finalized")

	return e.view(now), nil
}

// startable allows any unlocked level plus the first locked one.
func (e *Engine) startable(levelNo int) bool {
	if e.sess.UnlockedLevels[levelNo] {
		return true
	}
	highest := 0
	for no := range e.sess.UnlockedLevels {
		if no > highest {
			highest = no
		}
	}
	return levelNo == highest+1
}

func (e *Engine) dialogue(q *content.Question, outcome Outcome) string {
	switch outcome {
	case OutcomeCorrect:
		if q.FeedbackCorrect != "" {
			return q.FeedbackCorrect
		}
		return fmt.Sprintf("A direct hit! %s staggers.", e.enemy.Name)
	case OutcomeTimeout:
		return fmt.Sprintf("Too slow! %s sneers: %q", e.enemy.Name, e.enemy.Taunt)
	default:
		if q.FeedbackWrong != "" {
			return q.FeedbackWrong
		}
		return fmt.Sprintf("%s strikes back: %q", e.enemy.Name, e.enemy.Taunt)
	}
}

func (e *Engine) view(now time.Time) *View {
	v := &View{
		State:         e.state,
		TimeLimitSec:  e.settings.QuestionTimeLimit,
		QuestionTotal: e.levelLen,
		LivesEnabled:  e.settings.LivesSystem,
		Hints: Hints{
			ShowTimer:      e.settings.ShowTimer,
			ShowProgress:   e.settings.ShowProgress,
			SoundEffects:   e.settings.SoundEffects,
			AnimationSpeed: e.settings.AnimationSpeed,
		},
		MaxPlayerHP: e.settings.BasePlayerHP,
		MaxEnemyHP:  e.settings.BaseEnemyHP,
	}
	if e.sess != nil {
		v.Level = e.sess.CurrentLevel
		v.PlayerHP = e.sess.PlayerHP
		v.EnemyHP = e.sess.EnemyHP
		v.Score = e.sess.Score
		if e.settings.LivesSystem {
			v.LivesRemaining = e.sess.LivesRemaining
		}
		for no := range e.sess.UnlockedLevels {
			v.UnlockedLevels = append(v.UnlockedLevels, no)
		}
	}
	v.Feedback = e.feedback
	v.Summary = e.summary

	if e.state == StateInLevel || e.state == StateAwaitingFeedback {
		ev := EnemyView{Name: e.enemy.Name, Avatar: e.enemy.Avatar, Taunt: e.enemy.Taunt}
		v.Enemy = &ev
	}

	if e.state == StateInLevel {
		q := e.queue[e.sess.QuestionIndex]
		v.Prompt = q.Prompt
		v.QuestionNumber = e.sess.QuestionIndex + 1
		v.Options = make([]OptionView, len(q.Options))
		for i, opt := range q.Options {
			v.Options[i] = OptionView{Tag: opt.Tag, Text: opt.Text}
		}
		remaining := time.Duration(e.settings.QuestionTimeLimit)*time.Second - now.Sub(e.sess.QuestionStartedAt)
		if remaining < 0 {
			remaining = 0
		}
		v.RemainingSec = int(remaining / time.Second)
	}
	return v
}

func (e *Engine) emit(ctx context.Context, eventType string, fields map[string]interface{}, now time.Time) {
	if !e.settings.AnalyticsEnabled && e.stream == nil {
		return
	}
	evt := analytics.NewEvent(eventType, e.learner, e.sessionID, now, fields)
	if e.settings.AnalyticsEnabled {
		e.sink.Emit(ctx, evt)
	}
	if e.stream != nil {
		e.stream.Publish(evt)
	}
}

func (e *Engine) autosave(ctx context.Context) {
	if !e.settings.AutoSave || e.saver == nil {
		return
	}
	if err := e.saver.Save(ctx, e.learner, e.sess); err != nil {
		e.logger.Warn().Err(err).Msg("auto-save failed")
	}
}

func (e *Engine) discardSave(ctx context.Context) {
	if e.saver == nil {
		return
	}
	if err := e.saver.Delete(ctx, e.learner); err != nil {
		e.logger.Warn().Err(err).Msg("save cleanup failed")
	}
}
