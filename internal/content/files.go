package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File names inside the content root. The teacher portal owns these files;
// the game only ever reads them through a Store snapshot.
const (
	QuestionsFile = "questions.json"
	LevelsFile    = "levels.json"
	ChaptersFile  = "chapters.json"
	EnemiesFile   = "enemies.json"
	SettingsFile  = "game_settings.json"
)

// Set is the raw persisted content before validation.
type Set struct {
	Questions []Question
	Levels    []Level
	Chapters  []Chapter
	Enemies   []Enemy
	Settings  GameSettings
}

type chaptersDoc struct {
	Chapters []Chapter `json:"chapters"`
}

// LoadSet reads the five content files from root. Missing chapters, enemies
// and settings files are tolerated (enemies are synthesized, settings fall
// back to defaults); questions and levels are required.
func LoadSet(root string) (*Set, error) {
	set := &Set{Settings: DefaultSettings()}

	if err := readJSON(filepath.Join(root, QuestionsFile), &set.Questions); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if err := readJSON(filepath.Join(root, LevelsFile), &set.Levels); err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
	}

	var chapters chaptersDoc
	if err := readJSON(filepath.Join(root, ChaptersFile), &chapters); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load chapters: %w", err)
		}
	}
	set.Chapters = chapters.Chapters

	if err := readJSON(filepath.Join(root, EnemiesFile), &set.Enemies); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load enemies: %w", err)
		}
	}

	if err := readJSON(filepath.Join(root, SettingsFile), &set.Settings); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load settings: %w", err)
		}
	}
	set.Settings.Normalize()

	return set, nil
}

// SaveSet writes the full content set back to root. Each file is written via
// a temp file + rename so a crash never leaves a half-written document.
func SaveSet(root string, set *Set) error {
	if err := writeJSON(filepath.Join(root, QuestionsFile), set.Questions); err != nil {
		return fmt.Errorf("save questions: %w", err)
	}
	if err := writeJSON(filepath.Join(root, LevelsFile), set.Levels); err != nil {
		return fmt.Errorf("save levels: %w", err)
	}
	if err := writeJSON(filepath.Join(root, ChaptersFile), chaptersDoc{Chapters: set.Chapters}); err != nil {
		return fmt.Errorf("save chapters: %w", err)
	}
	if err := writeJSON(filepath.Join(root, EnemiesFile), set.Enemies); err != nil {
		return fmt.Errorf("save enemies: %w", err)
	}
	if err := writeJSON(filepath.Join(root, SettingsFile), set.Settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
