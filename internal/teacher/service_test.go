package teacher

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/shellquest/internal/content"
)

func seedSet() *content.Set {
	return &content.Set{
		Questions: []content.Question{
			{
				ID:     1,
				Prompt: "What does pwd print?",
				Options: []content.Option{
					{Tag: "A", Text: "the working directory"},
					{Tag: "B", Text: "the password file"},
				},
				Answer: "A",
			},
			{
				ID:     2,
				Prompt: "Which flag makes rm recursive?",
				Options: []content.Option{
					{Tag: "A", Text: "-f"},
					{Tag: "B", Text: "-r"},
				},
				Answer: "B",
			},
		},
		Levels:   []content.Level{{Number: 1, QuestionIDs: []int{1, 2}}},
		Settings: content.DefaultSettings(),
	}
}

func newTestService(t *testing.T) (*Service, *content.Store, string) {
	t.Helper()
	root := t.TempDir()
	set := seedSet()
	require.NoError(t, content.SaveSet(root, set))
	store, err := content.NewStore(set, zerolog.Nop())
	require.NoError(t, err)
	return NewService(root, store, zerolog.Nop()), store, root
}

func TestUpsertQuestionAddsAndPersists(t *testing.T) {
	svc, store, root := newTestService(t)

	q := content.Question{
		ID:     3,
		Prompt: "Which command shows disk usage?",
		Options: []content.Option{
			{Tag: "A", Text: "du"},
			{Tag: "B", Text: "ps"},
		},
		Answer: "A",
	}
	require.NoError(t, svc.UpsertQuestion(q))

	got, err := store.Snapshot().Question(3)
	require.NoError(t, err)
	assert.Equal(t, "Which command shows disk usage?", got.Prompt)

	// The edit survives a disk reload.
	reloaded, err := content.LoadSet(root)
	require.NoError(t, err)
	assert.Len(t, reloaded.Questions, 3)
}

func TestUpsertQuestionReplacesById(t *testing.T) {
	svc, store, _ := newTestService(t)

	q := seedSet().Questions[0]
	q.Prompt = "edited prompt"
	require.NoError(t, svc.UpsertQuestion(q))

	got, err := store.Snapshot().Question(1)
	require.NoError(t, err)
	assert.Equal(t, "edited prompt", got.Prompt)
	assert.Len(t, store.Snapshot().Set().Questions, 2, "replace, not append")
}

func TestUpsertInvalidQuestionRejectedAtomically(t *testing.T) {
	svc, store, root := newTestService(t)

	bad := content.Question{
		ID:     3,
		Prompt: "broken",
		Options: []content.Option{
			{Tag: "A", Text: "x"},
			{Tag: "B", Text: "y"},
		},
		Answer: "Z",
	}
	err := svc.UpsertQuestion(bad)
	require.Error(t, err)
	var loadErr *content.LoadError
	assert.ErrorAs(t, err, &loadErr)

	// Neither the live snapshot nor the files took the edit.
	_, err = store.Snapshot().Question(3)
	assert.ErrorIs(t, err, content.ErrNotFound)
	reloaded, err := content.LoadSet(root)
	require.NoError(t, err)
	assert.Len(t, reloaded.Questions, 2)
}

func TestDeleteQuestionStripsLevelReferences(t *testing.T) {
	svc, store, _ := newTestService(t)

	require.NoError(t, svc.DeleteQuestion(2))

	_, err := store.Snapshot().Question(2)
	assert.ErrorIs(t, err, content.ErrNotFound)
	lvl, err := store.Snapshot().Level(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, lvl.QuestionIDs)
}

func TestDeleteQuestionNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.DeleteQuestion(99), content.ErrNotFound)
}

func TestUpsertLevelRejectsUnknownQuestions(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.UpsertLevel(content.Level{Number: 2, QuestionIDs: []int{99}})
	require.Error(t, err)
	var loadErr *content.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestDeleteLevelNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.DeleteLevel(9), content.ErrNotFound)
}

func TestUpsertEnemyAndDelete(t *testing.T) {
	svc, store, _ := newTestService(t)

	require.NoError(t, svc.UpsertEnemy(content.Enemy{Level: 1, Name: "Custom Ogre", Taunt: "grr"}))
	assert.Equal(t, "Custom Ogre", store.Snapshot().EnemyForLevel(1).Name)

	require.NoError(t, svc.DeleteEnemy(1))
	assert.NotEqual(t, "Custom Ogre", store.Snapshot().EnemyForLevel(1).Name, "synthesis takes over")
}

func TestUpdateSettingsNormalizes(t *testing.T) {
	svc, store, _ := newTestService(t)

	settings := content.DefaultSettings()
	settings.MinAccuracy = 300
	settings.TimeoutBehavior = "bogus"
	require.NoError(t, svc.UpdateSettings(settings))

	got := store.Snapshot().Settings()
	assert.Equal(t, 100, got.MinAccuracy)
	assert.Equal(t, content.TimeoutPenalty, got.TimeoutBehavior)
}

func TestEditsDoNotDisturbHeldSnapshots(t *testing.T) {
	svc, store, _ := newTestService(t)
	held := store.Snapshot()

	q := seedSet().Questions[0]
	q.Prompt = "edited prompt"
	require.NoError(t, svc.UpsertQuestion(q))

	got, err := held.Question(1)
	require.NoError(t, err)
	assert.Equal(t, "What does pwd print?", got.Prompt, "running sessions keep their snapshot")
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	svc, store, root := newTestService(t)

	external := seedSet()
	external.Questions[0].Prompt = "changed on disk"
	require.NoError(t, content.SaveSet(root, external))

	require.NoError(t, svc.Reload())
	got, err := store.Snapshot().Question(1)
	require.NoError(t, err)
	assert.Equal(t, "changed on disk", got.Prompt)
}

func TestUpsertChapterValidatesCoverage(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.UpsertChapter(content.Chapter{ID: 1, Name: "ch", LevelRange: [2]int{1, 4}})
	require.Error(t, err, "a chapter covering undefined levels is rejected")

	require.NoError(t, svc.UpsertChapter(content.Chapter{ID: 1, Name: "ch", LevelRange: [2]int{1, 1}}))
}
