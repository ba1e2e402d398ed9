package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/shellquest/internal/content"
)

func TestMemorySaverRoundTrip(t *testing.T) {
	saver := NewMemorySaver()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s := NewSession("alice", 2, engineSettings(), now)
	s.Score = 140
	s.UnlockedLevels[2] = true
	s.RecordOutcome(7, OutcomeCorrect, 3*time.Second)

	require.NoError(t, saver.Save(ctx, "alice", s))

	loaded, err := saver.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 140, loaded.Score)
	assert.Equal(t, 2, loaded.CurrentLevel)
	assert.True(t, loaded.UnlockedLevels[2])
	require.Len(t, loaded.History, 1)
	assert.Equal(t, OutcomeCorrect, loaded.History[0].Outcome)
	assert.Equal(t, int64(3000), loaded.History[0].ElapsedMS)
}

func TestMemorySaverLoadMissing(t *testing.T) {
	saver := NewMemorySaver()
	loaded, err := saver.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemorySaverDelete(t *testing.T) {
	saver := NewMemorySaver()
	ctx := context.Background()

	s := NewSession("alice", 1, engineSettings(), time.Now())
	require.NoError(t, saver.Save(ctx, "alice", s))
	require.NoError(t, saver.Delete(ctx, "alice"))

	loaded, err := saver.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionExpiryWindow(t *testing.T) {
	settings := content.DefaultSettings()
	settings.SessionTimeout = 30
	now := time.Now()
	s := NewSession("alice", 1, settings, now)

	assert.False(t, s.Expired(now.Add(29*time.Minute), settings))
	assert.True(t, s.Expired(now.Add(31*time.Minute), settings))

	s.Touch(now.Add(25 * time.Minute))
	assert.False(t, s.Expired(now.Add(45*time.Minute), settings))
}

func TestSessionEnterLevelResetsPerLevelState(t *testing.T) {
	settings := engineSettings()
	now := time.Now()
	s := NewSession("alice", 1, settings, now)
	s.Score = 100
	s.LivesRemaining = 2
	s.UnlockedLevels[2] = true
	s.RecordOutcome(1, OutcomeWrong, time.Second)
	s.PlayerHP = 10

	s.EnterLevel(2, settings, now)

	assert.Equal(t, 2, s.CurrentLevel)
	assert.Equal(t, settings.BasePlayerHP, s.PlayerHP)
	assert.Equal(t, settings.BaseEnemyHP, s.EnemyHP)
	assert.Zero(t, s.QuestionIndex)
	assert.Zero(t, s.WrongCount)
	assert.Empty(t, s.History)
	assert.Equal(t, 100, s.Score, "score carries across levels")
	assert.Equal(t, 2, s.LivesRemaining, "lives carry across levels")
	assert.True(t, s.UnlockedLevels[2])
}

func TestApplyDeltasClampsHitPoints(t *testing.T) {
	settings := engineSettings()
	s := NewSession("alice", 1, settings, time.Now())

	s.ApplyDeltas(Deltas{PlayerHP: -999, EnemyHP: +999})
	assert.Zero(t, s.PlayerHP)
	assert.Equal(t, settings.BaseEnemyHP, s.EnemyHP, "hp never exceeds the maximum")

	s.ApplyDeltas(Deltas{PlayerHP: +999})
	assert.Equal(t, settings.BasePlayerHP, s.PlayerHP)
}
