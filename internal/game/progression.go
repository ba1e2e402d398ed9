package game

import (
	"github.com/codequest-edu/shellquest/internal/content"
)

// LevelResult is the outcome of finalizing a level.
type LevelResult string

const (
	ResultAdvance LevelResult = "advance"
	ResultRetry   LevelResult = "retry"
	ResultDefeat  LevelResult = "defeat"
	ResultVictory LevelResult = "victory"
)

// Progression holds what finalization decided, for views and analytics.
type Progression struct {
	Result      LevelResult `json:"result"`
	Accuracy    int         `json:"accuracy"`
	BonusPoints int         `json:"bonus_points"`
	NextLevel   int         `json:"next_level,omitempty"`
}

// ResolveLevel applies the end-of-level rules: advance iff the learner
// survived with accuracy at or above the threshold; a survived run below the
// threshold is a retry (costing a life under the lives system); death or
// exhausted lives is defeat; advancing past the last defined level is
// victory. Per-level counters are reset by EnterLevel when the next attempt
// starts.
func ResolveLevel(s *Session, settings content.GameSettings, questionsInLevel, maxLevel int) Progression {
	p := Progression{Accuracy: s.Accuracy(questionsInLevel)}

	livesExhausted := settings.LivesSystem && s.LivesRemaining <= 0
	if s.PlayerHP <= 0 || livesExhausted {
		p.Result = ResultDefeat
		return p
	}

	// Exact-threshold comparison avoids integer-percentage rounding.
	passed := questionsInLevel > 0 &&
		s.CorrectCount*100 >= settings.MinAccuracy*questionsInLevel

	if !passed {
		p.Result = ResultRetry
		p.NextLevel = s.CurrentLevel
		if settings.LivesSystem {
			s.LivesRemaining--
			if s.LivesRemaining <= 0 {
				p.Result = ResultDefeat
				p.NextLevel = 0
			}
		}
		return p
	}

	p.BonusPoints = settings.LevelBonus
	s.Score += settings.LevelBonus

	next := s.CurrentLevel + 1
	if next > maxLevel {
		p.Result = ResultVictory
		return p
	}

	p.Result = ResultAdvance
	p.NextLevel = next
	s.UnlockedLevels[next] = true
	s.CurrentLevel = next
	return p
}
