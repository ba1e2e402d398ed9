// Package teacher implements the portal that edits game content. Every edit
// builds a candidate content set, validates it, persists it to the JSON
// content root, and swaps the live store snapshot atomically. Running
// sessions keep the snapshot they started with.
package teacher

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/codequest-edu/shellquest/internal/content"
)

// Service applies teacher edits to the content root.
type Service struct {
	root   string
	store  *content.Store
	logger zerolog.Logger
}

// NewService constructs the portal service.
func NewService(root string, store *content.Store, logger zerolog.Logger) *Service {
	return &Service{
		root:   root,
		store:  store,
		logger: logger.With().Str("component", "teacher").Logger(),
	}
}

// Store exposes the live store for read endpoints.
func (s *Service) Store() *content.Store {
	return s.store
}

// apply validates the candidate set, swaps it live, and persists it.
func (s *Service) apply(set *content.Set) error {
	if err := s.store.Swap(set); err != nil {
		return err
	}
	if err := content.SaveSet(s.root, set); err != nil {
		// The swap already happened; new sessions use the edit either way.
		return fmt.Errorf("persist content: %w", err)
	}
	return nil
}

// cloneSet deep-copies the current content for mutation.
func (s *Service) cloneSet() *content.Set {
	cur := s.store.Snapshot().Set()
	clone := &content.Set{
		Questions: make([]content.Question, len(cur.Questions)),
		Levels:    make([]content.Level, len(cur.Levels)),
		Chapters:  make([]content.Chapter, len(cur.Chapters)),
		Enemies:   make([]content.Enemy, len(cur.Enemies)),
		Settings:  cur.Settings,
	}
	copy(clone.Questions, cur.Questions)
	copy(clone.Chapters, cur.Chapters)
	copy(clone.Enemies, cur.Enemies)
	for i, lvl := range cur.Levels {
		clone.Levels[i] = lvl
		clone.Levels[i].QuestionIDs = append([]int(nil), lvl.QuestionIDs...)
	}
	for i, q := range cur.Questions {
		clone.Questions[i].Options = append([]content.Option(nil), q.Options...)
		clone.Questions[i].Keywords = append([]string(nil), q.Keywords...)
	}
	return clone
}

// UpsertQuestion inserts or replaces a question by id.
func (s *Service) UpsertQuestion(q content.Question) error {
	set := s.cloneSet()
	replaced := false
	for i := range set.Questions {
		if set.Questions[i].ID == q.ID {
			set.Questions[i] = q
			replaced = true
			break
		}
	}
	if !replaced {
		set.Questions = append(set.Questions, q)
		sort.Slice(set.Questions, func(a, b int) bool {
			return set.Questions[a].ID < set.Questions[b].ID
		})
	}
	return s.apply(set)
}

// DeleteQuestion removes a question and any level references to it.
func (s *Service) DeleteQuestion(id int) error {
	set := s.cloneSet()
	kept := set.Questions[:0]
	found := false
	for _, q := range set.Questions {
		if q.ID == id {
			found = true
			continue
		}
		kept = append(kept, q)
	}
	if !found {
		return fmt.Errorf("question %d: %w", id, content.ErrNotFound)
	}
	set.Questions = kept
	for i := range set.Levels {
		ids := set.Levels[i].QuestionIDs[:0]
		for _, qid := range set.Levels[i].QuestionIDs {
			if qid != id {
				ids = append(ids, qid)
			}
		}
		set.Levels[i].QuestionIDs = ids
	}
	return s.apply(set)
}

// UpsertLevel inserts or replaces a level by number.
func (s *Service) UpsertLevel(lvl content.Level) error {
	set := s.cloneSet()
	replaced := false
	for i := range set.Levels {
		if set.Levels[i].Number == lvl.Number {
			set.Levels[i] = lvl
			replaced = true
			break
		}
	}
	if !replaced {
		set.Levels = append(set.Levels, lvl)
		sort.Slice(set.Levels, func(a, b int) bool {
			return set.Levels[a].Number < set.Levels[b].Number
		})
	}
	return s.apply(set)
}

// DeleteLevel removes a level.
func (s *Service) DeleteLevel(number int) error {
	set := s.cloneSet()
	kept := set.Levels[:0]
	found := false
	for _, lvl := range set.Levels {
		if lvl.Number == number {
			found = true
			continue
		}
		kept = append(kept, lvl)
	}
	if !found {
		return fmt.Errorf("level %d: %w", number, content.ErrNotFound)
	}
	set.Levels = kept
	return s.apply(set)
}

// UpsertChapter inserts or replaces a chapter by id.
func (s *Service) UpsertChapter(ch content.Chapter) error {
	set := s.cloneSet()
	replaced := false
	for i := range set.Chapters {
		if set.Chapters[i].ID == ch.ID {
			set.Chapters[i] = ch
			replaced = true
			break
		}
	}
	if !replaced {
		set.Chapters = append(set.Chapters, ch)
	}
	return s.apply(set)
}

// DeleteChapter removes a chapter.
func (s *Service) DeleteChapter(id int) error {
	set := s.cloneSet()
	kept := set.Chapters[:0]
	found := false
	for _, ch := range set.Chapters {
		if ch.ID == id {
			found = true
			continue
		}
		kept = append(kept, ch)
	}
	if !found {
		return fmt.Errorf("chapter %d: %w", id, content.ErrNotFound)
	}
	set.Chapters = kept
	return s.apply(set)
}

// UpsertEnemy inserts or replaces the authored enemy for a level.
func (s *Service) UpsertEnemy(e content.Enemy) error {
	set := s.cloneSet()
	replaced := false
	for i := range set.Enemies {
		if set.Enemies[i].Level == e.Level {
			set.Enemies[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		set.Enemies = append(set.Enemies, e)
	}
	return s.apply(set)
}

// DeleteEnemy removes the authored enemy for a level; synthesis takes over.
func (s *Service) DeleteEnemy(level int) error {
	set := s.cloneSet()
	kept := set.Enemies[:0]
	found := false
	for _, e := range set.Enemies {
		if e.Level == level {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("enemy for level %d: %w", level, content.ErrNotFound)
	}
	set.Enemies = kept
	return s.apply(set)
}

// UpdateSettings replaces the global settings record, normalized.
func (s *Service) UpdateSettings(settings content.GameSettings) error {
	settings.Normalize()
	set := s.cloneSet()
	set.Settings = settings
	return s.apply(set)
}

// Reload re-reads the content root from disk and swaps it live.
func (s *Service) Reload() error {
	set, err := content.LoadSet(s.root)
	if err != nil {
		return err
	}
	return s.store.Swap(set)
}
