package game

import (
	"math"
	"time"

	"github.com/codequest-edu/shellquest/internal/content"
)

// SpeedTag classifies how fast an answer arrived relative to the question
// time limit.
type SpeedTag string

const (
	SpeedFast    SpeedTag = "fast"
	SpeedNormal  SpeedTag = "normal"
	SpeedSlow    SpeedTag = "slow"
	SpeedTimeout SpeedTag = "timeout"
)

// Deltas is the full effect of one answer on the session.
type Deltas struct {
	Score       int
	PlayerHP    int
	EnemyHP     int
	Speed       SpeedTag
	CountsAs    Outcome
	ForcesLevel bool // immediate_failure ends the level regardless of hp math
}

// Outcome tags one answered question in the level history.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeTimeout Outcome = "timeout"
)

// ClassifySpeed buckets elapsed time. A non-positive limit makes every
// submission a timeout.
func ClassifySpeed(elapsed time.Duration, limitSeconds int) SpeedTag {
	limit := time.Duration(limitSeconds) * time.Second
	if limit <= 0 || elapsed >= limit {
		return SpeedTimeout
	}
	switch {
	case elapsed*3 <= limit:
		return SpeedFast
	case elapsed*3 <= limit*2:
		return SpeedNormal
	default:
		return SpeedSlow
	}
}

// CorrectDeltas scores a correct answer: base points with optional speed
// multiplier (fast x2, normal x1.5, rounded to nearest), enemy takes base
// damage.
func CorrectDeltas(settings content.GameSettings, speed SpeedTag) Deltas {
	score := settings.PointsCorrect
	if settings.SpeedBonus {
		switch speed {
		case SpeedFast:
			score = settings.PointsCorrect * 2
		case SpeedNormal:
			score = int(math.Round(float64(settings.PointsCorrect) * 1.5))
		}
	}
	return Deltas{
		Score:    score,
		EnemyHP:  -settings.BaseDamage,
		Speed:    speed,
		CountsAs: OutcomeCorrect,
	}
}

// WrongDeltas scores a wrong answer: the configured penalty is subtracted and
// the player takes base damage scaled by the current level.
func WrongDeltas(settings content.GameSettings, level int, speed SpeedTag) Deltas {
	return Deltas{
		Score:    -settings.PointsWrong,
		PlayerHP: -settings.BaseDamage * level,
		Speed:    speed,
		CountsAs: OutcomeWrong,
	}
}

// TimeoutDeltas applies the configured timeout behavior.
func TimeoutDeltas(settings content.GameSettings, level int) Deltas {
	switch settings.TimeoutBehavior {
	case content.TimeoutImmediateFailure:
		return Deltas{
			Speed:       SpeedTimeout,
			CountsAs:    OutcomeTimeout,
			ForcesLevel: true,
		}
	case content.TimeoutSkip:
		return Deltas{
			Speed:    SpeedTimeout,
			CountsAs: OutcomeTimeout,
		}
	default: // penalty: exactly the wrong-answer deltas
		d := WrongDeltas(settings, level, SpeedTimeout)
		return d
	}
}

// AdaptiveReorder reorders the remaining (unseen) questions after a streak of
// two identical outcomes. On two consecutive correct answers, items tagged
// strictly harder than the just-answered question move to the front; on two
// consecutive wrong, strictly easier. The partition is stable, so ties and
// untagged items keep their relative order.
func AdaptiveReorder(remaining []*content.Question, lastTwo []Outcome, current *content.Question) []*content.Question {
	if len(lastTwo) < 2 || current == nil || current.Difficulty == "" {
		return remaining
	}
	var wantHarder bool
	switch {
	case lastTwo[0] == OutcomeCorrect && lastTwo[1] == OutcomeCorrect:
		wantHarder = true
	case lastTwo[0] != OutcomeCorrect && lastTwo[1] != OutcomeCorrect:
		wantHarder = false
	default:
		return remaining
	}

	currentRank := content.DifficultyRank(current.Difficulty)
	preferred := func(q *content.Question) bool {
		if q.Difficulty == "" {
			return false
		}
		rank := content.DifficultyRank(q.Difficulty)
		if wantHarder {
			return rank > currentRank
		}
		return rank < currentRank
	}

	out := make([]*content.Question, 0, len(remaining))
	for _, q := range remaining {
		if preferred(q) {
			out = append(out, q)
		}
	}
	for _, q := range remaining {
		if !preferred(q) {
			out = append(out, q)
		}
	}
	return out
}
