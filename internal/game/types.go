package game

import (
	"context"
	"errors"

	"github.com/codequest-edu/shellquest/internal/analytics"
)

// EngineState is the engine's position in the per-level state machine.
type EngineState string

const (
	StateIdle             EngineState = "idle"
	StateInLevel          EngineState = "in_level"
	StateAwaitingFeedback EngineState = "awaiting_feedback"
	StateLevelEnded       EngineState = "level_ended"
	StateVictory          EngineState = "victory"
	StateDefeat           EngineState = "defeat"
)

// ChoiceTimeout is the submit value the transport uses when the client clock
// ran out. The server re-verifies elapsed time either way.
const ChoiceTimeout = "TIMEOUT"

var (
	// ErrIllegalState rejects a transition that is not valid in the current
	// engine state. The HTTP layer recovers by redirecting to the view.
	ErrIllegalState = errors.New("illegal state transition")

	// ErrSessionExpired marks a session discarded after the inactivity
	// window passed.
	ErrSessionExpired = errors.New("session expired")

	// ErrLevelLocked rejects starting a level the learner has not reached.
	ErrLevelLocked = errors.New("level locked")
)

// Hints are presentation flags passed through to the UI untouched.
type Hints struct {
	ShowTimer      bool   `json:"show_timer"`
	ShowProgress   bool   `json:"show_progress"`
	SoundEffects   bool   `json:"sound_effects"`
	AnimationSpeed string `json:"animation_speed"`
}

// OptionView is an answer choice with the correct answer stripped.
type OptionView struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// EnemyView describes the current antagonist.
type EnemyView struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Taunt  string `json:"taunt"`
}

// View is the engine's snapshot for rendering, shaped per state.
type View struct {
	State          EngineState  `json:"state"`
	Level          int          `json:"level"`
	QuestionNumber int          `json:"question_number"`
	QuestionTotal  int          `json:"question_total"`
	Prompt         string       `json:"prompt,omitempty"`
	Options        []OptionView `json:"options,omitempty"`
	TimeLimitSec   int          `json:"time_limit_sec"`
	RemainingSec   int          `json:"remaining_sec"`
	PlayerHP       int          `json:"player_hp"`
	MaxPlayerHP    int          `json:"max_player_hp"`
	EnemyHP        int          `json:"enemy_hp"`
	MaxEnemyHP     int          `json:"max_enemy_hp"`
	Enemy          *EnemyView   `json:"enemy,omitempty"`
	Score          int          `json:"score"`
	LivesRemaining int          `json:"lives_remaining,omitempty"`
	LivesEnabled   bool         `json:"lives_enabled"`
	UnlockedLevels []int        `json:"unlocked_levels,omitempty"`
	Hints          Hints        `json:"hints"`
	Feedback       *Feedback    `json:"feedback,omitempty"`
	Summary        *Progression `json:"summary,omitempty"`
}

// Feedback is the payload shown between answering and the next question.
type Feedback struct {
	Correct    bool     `json:"correct"`
	Outcome    Outcome  `json:"outcome"`
	Speed      SpeedTag `json:"speed"`
	Dialogue   string   `json:"dialogue"`
	ScoreDelta int      `json:"score_delta"`
	AnswerTag  string   `json:"answer_tag"`
}

// Saver is the auto-save collaborator. Failures are logged and swallowed;
// the engine never blocks on persistence.
type Saver interface {
	Save(ctx context.Context, learner string, s *Session) error
	Load(ctx context.Context, learner string) (*Session, error)
	Delete(ctx context.Context, learner string) error
}

// EventStream receives engine events for live delivery (WebSocket hub).
// Implementations must not block.
type EventStream interface {
	Publish(evt analytics.Event)
}

// Engine event types.
const (
	EventLevelStarted     = "level_started"
	EventQuestionAnswered = "question_answered"
	EventLevelFinished    = "level_finished"
)
