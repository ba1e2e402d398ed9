package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Difficulty tags accepted on questions and levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Timeout behaviors configurable in GameSettings.
const (
	TimeoutPenalty          = "penalty"
	TimeoutImmediateFailure = "immediate_failure"
	TimeoutSkip             = "skip"
)

// Option is a single answer choice. On the wire it is a display string
// prefixed with its letter tag ("A) ls -la"); in memory the tag and text are
// kept separate so gameplay code never parses display strings.
type Option struct {
	Tag  string
	Text string
}

// MarshalJSON renders the option back into its tagged display form.
func (o Option) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Tag + ") " + o.Text)
}

// UnmarshalJSON parses the "A) text" wire form.
func (o *Option) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseOption(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOption splits a tagged option string into tag and text.
func ParseOption(raw string) (Option, error) {
	if len(raw) < 2 || raw[1] != ')' {
		return Option{}, fmt.Errorf("malformed option %q: want \"A) text\"", raw)
	}
	tag := strings.ToUpper(raw[:1])
	if tag[0] < 'A' || tag[0] > 'Z' {
		return Option{}, fmt.Errorf("malformed option tag %q", raw[:1])
	}
	return Option{Tag: tag, Text: strings.TrimSpace(raw[2:])}, nil
}

// Question is a single multiple-choice item in the bank.
type Question struct {
	ID              int      `json:"id"`
	Prompt          string   `json:"prompt"`
	Options         []Option `json:"options"`
	Answer          string   `json:"answer"`
	FeedbackCorrect string   `json:"feedback_correct,omitempty"`
	FeedbackWrong   string   `json:"feedback_wrong,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	Difficulty      string   `json:"difficulty,omitempty"`
}

// Level bundles an ordered question list into one encounter.
type Level struct {
	Number      int    `json:"level"`
	QuestionIDs []int  `json:"questions"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// Chapter groups a consecutive, inclusive range of levels under one theme.
type Chapter struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LevelRange  [2]int `json:"level_range"`
}

// Contains reports whether the chapter covers the given level number.
func (c Chapter) Contains(levelNo int) bool {
	return levelNo >= c.LevelRange[0] && levelNo <= c.LevelRange[1]
}

// Enemy is the decorative antagonist defending a level.
type Enemy struct {
	Level  int    `json:"level"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Taunt  string `json:"taunt"`
}

// GameSettings is the single global tuning record.
type GameSettings struct {
	BasePlayerHP       int    `json:"base_player_hp"`
	BaseEnemyHP        int    `json:"base_enemy_hp"`
	BaseDamage         int    `json:"base_damage"`
	QuestionTimeLimit  int    `json:"question_time_limit"`
	QuestionsPerLevel  int    `json:"questions_per_level"`
	PointsCorrect      int    `json:"points_correct"`
	PointsWrong        int    `json:"points_wrong"`
	SpeedBonus         bool   `json:"speed_bonus"`
	LevelBonus         int    `json:"level_bonus"`
	AdaptiveDifficulty bool   `json:"adaptive_difficulty"`
	MinAccuracy        int    `json:"min_accuracy"`
	LivesSystem        bool   `json:"lives_system"`
	MaxLives           int    `json:"max_lives"`
	TimeoutBehavior    string `json:"timeout_behavior"`
	ShowTimer          bool   `json:"show_timer"`
	ShowProgress       bool   `json:"show_progress"`
	SoundEffects       bool   `json:"sound_effects"`
	AnimationSpeed     string `json:"animation_speed"`
	DebugMode          bool   `json:"debug_mode"`
	AnalyticsEnabled   bool   `json:"analytics_enabled"`
	AutoSave           bool   `json:"auto_save"`
	SessionTimeout     int    `json:"session_timeout"`
}

// DefaultSettings returns production defaults.
func DefaultSettings() GameSettings {
	return GameSettings{
		BasePlayerHP:      50,
		BaseEnemyHP:       50,
		BaseDamage:        10,
		QuestionTimeLimit: 55,
		QuestionsPerLevel: 10,
		PointsCorrect:     10,
		PointsWrong:       0,
		SpeedBonus:        true,
		LevelBonus:        20,
		MinAccuracy:       70,
		LivesSystem:       true,
		MaxLives:          3,
		TimeoutBehavior:   TimeoutPenalty,
		ShowTimer:         true,
		ShowProgress:      true,
		SoundEffects:      true,
		AnimationSpeed:    "normal",
		SessionTimeout:    30,
	}
}

// Normalize clamps a loaded settings record into sane bounds.
func (s *GameSettings) Normalize() {
	def := DefaultSettings()
	if s.BasePlayerHP <= 0 {
		s.BasePlayerHP = def.BasePlayerHP
	}
	if s.BaseEnemyHP <= 0 {
		s.BaseEnemyHP = def.BaseEnemyHP
	}
	if s.BaseDamage < 0 {
		s.BaseDamage = def.BaseDamage
	}
	if s.QuestionTimeLimit < 0 {
		s.QuestionTimeLimit = 0
	}
	if s.QuestionsPerLevel <= 0 {
		s.QuestionsPerLevel = def.QuestionsPerLevel
	}
	// Wrong-answer penalty is a magnitude; the engine applies it as a
	// negative delta.
	if s.PointsWrong < 0 {
		s.PointsWrong = -s.PointsWrong
	}
	if s.MinAccuracy < 0 {
		s.MinAccuracy = 0
	}
	if s.MinAccuracy > 100 {
		s.MinAccuracy = 100
	}
	if s.LivesSystem && s.MaxLives < 1 {
		s.MaxLives = 1
	}
	switch s.TimeoutBehavior {
	case TimeoutPenalty, TimeoutImmediateFailure, TimeoutSkip:
	default:
		s.TimeoutBehavior = TimeoutPenalty
	}
	if s.AnimationSpeed == "" {
		s.AnimationSpeed = def.AnimationSpeed
	}
	if s.SessionTimeout <= 0 {
		s.SessionTimeout = def.SessionTimeout
	}
}

// ValidDifficulty reports whether a difficulty tag is known. Empty is valid;
// untagged questions simply opt out of adaptive reordering.
func ValidDifficulty(d string) bool {
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// DifficultyRank orders tags for adaptive comparisons. Untagged ranks 0.
func DifficultyRank(d string) int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 0
}
