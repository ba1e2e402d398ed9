package game

import (
	"time"

	"github.com/codequest-edu/shellquest/internal/content"
)

// HistoryEntry records one answered question for replay and analytics.
type HistoryEntry struct {
	QuestionID int     `json:"question_id"`
	Outcome    Outcome `json:"outcome"`
	ElapsedMS  int64   `json:"elapsed_ms"`
}

// Session is the per-learner mutable record for one run. It holds no business
// rules; the engine is its only writer.
type Session struct {
	Learner           string         `json:"learner"`
	CurrentLevel      int            `json:"current_level"`
	QuestionIndex     int            `json:"question_index"`
	PlayerHP          int            `json:"player_hp"`
	EnemyHP           int            `json:"enemy_hp"`
	Score             int            `json:"score"`
	LivesRemaining    int            `json:"lives_remaining"`
	StartedAt         time.Time      `json:"started_at"`
	LastActivityAt    time.Time      `json:"last_activity_at"`
	QuestionStartedAt time.Time      `json:"question_started_at"`
	CorrectCount      int            `json:"correct_count"`
	WrongCount        int            `json:"wrong_count"`
	TimeoutCount      int            `json:"timeout_count"`
	History           []HistoryEntry `json:"history"`
	UnlockedLevels    map[int]bool   `json:"unlocked_levels"`

	maxPlayerHP int
	maxEnemyHP  int
}

// NewSession creates the run record for a learner entering a level. Level 1
// is always unlocked.
func NewSession(learner string, levelNo int, settings content.GameSettings, now time.Time) *Session {
	s := &Session{
		Learner:        learner,
		StartedAt:      now,
		LastActivityAt: now,
		LivesRemaining: settings.MaxLives,
		UnlockedLevels: map[int]bool{1: true},
	}
	if !settings.LivesSystem {
		s.LivesRemaining = 0
	}
	s.EnterLevel(levelNo, settings, now)
	return s
}

// EnterLevel resets the per-level state for a fresh attempt.
func (s *Session) EnterLevel(levelNo int, settings content.GameSettings, now time.Time) {
	s.CurrentLevel = levelNo
	s.QuestionIndex = 0
	s.PlayerHP = settings.BasePlayerHP
	s.EnemyHP = settings.BaseEnemyHP
	s.CorrectCount = 0
	s.WrongCount = 0
	s.TimeoutCount = 0
	s.History = s.History[:0]
	s.maxPlayerHP = settings.BasePlayerHP
	s.maxEnemyHP = settings.BaseEnemyHP
	s.ResetQuestionTimer(now)
}

// Touch records inbound activity for inactivity expiry checks.
func (s *Session) Touch(now time.Time) {
	s.LastActivityAt = now
}

// Expired reports whether the inactivity window has passed.
func (s *Session) Expired(now time.Time, settings content.GameSettings) bool {
	limit := time.Duration(settings.SessionTimeout) * time.Minute
	return limit > 0 && now.Sub(s.LastActivityAt) > limit
}

// ResetQuestionTimer marks the serve time of the current question.
func (s *Session) ResetQuestionTimer(now time.Time) {
	s.QuestionStartedAt = now
}

// RecordOutcome appends a history entry and bumps the matching counter.
func (s *Session) RecordOutcome(questionID int, outcome Outcome, elapsed time.Duration) {
	s.History = append(s.History, HistoryEntry{
		QuestionID: questionID,
		Outcome:    outcome,
		ElapsedMS:  elapsed.Milliseconds(),
	})
	switch outcome {
	case OutcomeCorrect:
		s.CorrectCount++
	case OutcomeWrong:
		s.WrongCount++
	case OutcomeTimeout:
		s.TimeoutCount++
	}
}

// ApplyDeltas mutates score and hit points, clamping hp into [0, max].
func (s *Session) ApplyDeltas(d Deltas) {
	s.Score += d.Score
	s.PlayerHP = clamp(s.PlayerHP+d.PlayerHP, 0, s.maxPlayerHP)
	s.EnemyHP = clamp(s.EnemyHP+d.EnemyHP, 0, s.maxEnemyHP)
	if d.ForcesLevel {
		s.PlayerHP = 0
	}
}

// IncrementQuestion counts the just-answered question. The index never moves
// backwards within a level.
func (s *Session) IncrementQuestion() {
	s.QuestionIndex++
}

// LastTwoOutcomes returns the most recent two outcomes of the current level,
// oldest first, for adaptive reordering.
func (s *Session) LastTwoOutcomes() []Outcome {
	n := len(s.History)
	if n < 2 {
		return nil
	}
	return []Outcome{s.History[n-2].Outcome, s.History[n-1].Outcome}
}

// Accuracy returns correct answers as a percentage of the level length.
func (s *Session) Accuracy(questionsInLevel int) int {
	if questionsInLevel <= 0 {
		return 0
	}
	return s.CorrectCount * 100 / questionsInLevel
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
