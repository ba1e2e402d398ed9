package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codequest-edu/shellquest/internal/content"
)

func progressionSettings() content.GameSettings {
	s := content.DefaultSettings()
	s.MinAccuracy = 70
	s.LevelBonus = 20
	s.LivesSystem = true
	s.MaxLives = 3
	return s
}

func sessionAtLevelEnd(settings content.GameSettings, level, correct, wrong int) *Session {
	s := NewSession("learner-1", level, settings, time.Now())
	s.CurrentLevel = level
	s.CorrectCount = correct
	s.WrongCount = wrong
	s.QuestionIndex = correct + wrong
	return s
}

func TestResolveLevelAdvance(t *testing.T) {
	settings := progressionSettings()
	s := sessionAtLevelEnd(settings, 1, 4, 1)

	p := ResolveLevel(s, settings, 5, 3)

	assert.Equal(t, ResultAdvance, p.Result)
	assert.Equal(t, 80, p.Accuracy)
	assert.Equal(t, 20, p.BonusPoints)
	assert.Equal(t, 2, p.NextLevel)
	assert.Equal(t, 20, s.Score, "level bonus is added to the run score")
	assert.True(t, s.UnlockedLevels[2])
	assert.Equal(t, 2, s.CurrentLevel)
}

func TestResolveLevelExactThreshold(t *testing.T) {
	settings := progressionSettings()
	// 7/10 is exactly 70%.
	s := sessionAtLevelEnd(settings, 1, 7, 3)

	p := ResolveLevel(s, settings, 10, 5)
	assert.Equal(t, ResultAdvance, p.Result)
}

func TestResolveLevelRetryCostsLife(t *testing.T) {
	settings := progressionSettings()
	s := sessionAtLevelEnd(settings, 2, 2, 3)

	p := ResolveLevel(s, settings, 5, 3)

	assert.Equal(t, ResultRetry, p.Result)
	assert.Equal(t, 2, p.NextLevel, "retry replays the same level")
	assert.Equal(t, 2, s.LivesRemaining)
	assert.Zero(t, p.BonusPoints)
	assert.False(t, s.UnlockedLevels[3])
}

func TestResolveLevelLastLifeDefeat(t *testing.T) {
	settings := progressionSettings()
	s := sessionAtLevelEnd(settings, 2, 0, 5)
	s.LivesRemaining = 1

	p := ResolveLevel(s, settings, 5, 3)

	assert.Equal(t, ResultDefeat, p.Result)
	assert.Zero(t, s.LivesRemaining)
}

func TestResolveLevelDeadPlayerDefeat(t *testing.T) {
	settings := progressionSettings()
	s := sessionAtLevelEnd(settings, 1, 4, 1)
	s.PlayerHP = 0

	p := ResolveLevel(s, settings, 5, 3)
	assert.Equal(t, ResultDefeat, p.Result, "hp loss beats accuracy")
}

func TestResolveLevelVictoryPastLastLevel(t *testing.T) {
	settings := progressionSettings()
	s := sessionAtLevelEnd(settings, 3, 5, 0)

	p := ResolveLevel(s, settings, 5, 3)

	assert.Equal(t, ResultVictory, p.Result)
	assert.Equal(t, 20, p.BonusPoints, "the final level still pays its bonus")
	assert.Zero(t, p.NextLevel)
}

func TestResolveLevelRetryWithoutLivesSystem(t *testing.T) {
	settings := progressionSettings()
	settings.LivesSystem = false
	s := sessionAtLevelEnd(settings, 1, 0, 5)

	for i := 0; i < 10; i++ {
		p := ResolveLevel(s, settings, 5, 3)
		assert.Equal(t, ResultRetry, p.Result, "without lives, retries never run out")
	}
}

func TestResolveLevelZeroQuestionsIsRetry(t *testing.T) {
	settings := progressionSettings()
	s := sessionAtLevelEnd(settings, 1, 0, 0)

	p := ResolveLevel(s, settings, 0, 3)

	assert.Equal(t, ResultRetry, p.Result, "an empty level can never meet the accuracy gate")
	assert.Zero(t, p.Accuracy)
	assert.Equal(t, 2, s.LivesRemaining)
}
