package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(data), 0o644))
}

func TestLoadSetRequiredFiles(t *testing.T) {
	root := t.TempDir()

	_, err := LoadSet(root)
	assert.Error(t, err, "questions are required")

	writeFile(t, root, QuestionsFile, `[{"id":1,"prompt":"p","options":["A) x","B) y"],"answer":"A"}]`)
	_, err = LoadSet(root)
	assert.Error(t, err, "levels are required")

	writeFile(t, root, LevelsFile, `[{"level":1,"questions":[1]}]`)
	set, err := LoadSet(root)
	require.NoError(t, err)
	assert.Len(t, set.Questions, 1)
	assert.Len(t, set.Levels, 1)
}

func TestLoadSetOptionalFilesTolerated(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, QuestionsFile, `[{"id":1,"prompt":"p","options":["A) x","B) y"],"answer":"A"}]`)
	writeFile(t, root, LevelsFile, `[{"level":1,"questions":[1]}]`)

	set, err := LoadSet(root)
	require.NoError(t, err)
	assert.Empty(t, set.Chapters)
	assert.Empty(t, set.Enemies)
	assert.Equal(t, DefaultSettings(), set.Settings, "missing settings fall back to defaults")
}

func TestLoadSetMalformedOptionalFileFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, QuestionsFile, `[{"id":1,"prompt":"p","options":["A) x","B) y"],"answer":"A"}]`)
	writeFile(t, root, LevelsFile, `[{"level":1,"questions":[1]}]`)
	writeFile(t, root, EnemiesFile, `{broken`)

	_, err := LoadSet(root)
	assert.Error(t, err, "a present-but-broken optional file is an error, not a fallback")
}

func TestLoadSetNormalizesSettings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, QuestionsFile, `[{"id":1,"prompt":"p","options":["A) x","B) y"],"answer":"A"}]`)
	writeFile(t, root, LevelsFile, `[{"level":1,"questions":[1]}]`)
	writeFile(t, root, SettingsFile, `{"base_player_hp":-10,"min_accuracy":250}`)

	set, err := LoadSet(root)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().BasePlayerHP, set.Settings.BasePlayerHP)
	assert.Equal(t, 100, set.Settings.MinAccuracy)
}

func TestSaveSetRoundTrip(t *testing.T) {
	root := t.TempDir()
	original := &Set{
		Questions: []Question{
			{
				ID:     7,
				Prompt: "Which signal does kill send by default?",
				Options: []Option{
					{Tag: "A", Text: "SIGKILL"},
					{Tag: "B", Text: "SIGTERM"},
				},
				Answer:     "B",
				Keywords:   []string{"linux", "signals"},
				Difficulty: DifficultyMedium,
			},
		},
		Levels:   []Level{{Number: 1, QuestionIDs: []int{7}}},
		Chapters: []Chapter{{ID: 1, Name: "Shell Basics", LevelRange: [2]int{1, 1}}},
		Enemies:  []Enemy{{Level: 1, Name: "Grep Goblin", Taunt: "denied"}},
		Settings: DefaultSettings(),
	}

	require.NoError(t, SaveSet(root, original))
	loaded, err := LoadSet(root)
	require.NoError(t, err)

	assert.Equal(t, original.Questions, loaded.Questions)
	assert.Equal(t, original.Levels, loaded.Levels)
	assert.Equal(t, original.Chapters, loaded.Chapters)
	assert.Equal(t, original.Enemies, loaded.Enemies)
	assert.Equal(t, original.Settings, loaded.Settings)

	// No temp files left behind by the atomic writes.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
