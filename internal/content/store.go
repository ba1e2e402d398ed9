package content

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned on lookups of absent ids.
var ErrNotFound = errors.New("not found")

// LoadError reports a structural violation in persisted content. It prevents
// the engine from starting; lookups never produce it.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return "content load: " + e.Reason
}

func loadErrorf(format string, args ...interface{}) error {
	return &LoadError{Reason: fmt.Sprintf(format, args...)}
}

// Store is the read-mostly content handle shared by all sessions. Teacher
// edits build a fresh snapshot and swap it in atomically, so an in-flight
// session holding the previous snapshot stays internally consistent.
type Store struct {
	snap   atomic.Pointer[Snapshot]
	logger zerolog.Logger
}

// Snapshot is one immutable, validated view of the content collections.
type Snapshot struct {
	set *Set

	questionsByID  map[int]*Question
	levelsByNumber map[int]*Level
	levelOfQuest   map[int]int
	enemiesByLevel map[int]*Enemy
	maxLevel       int
	index          *Index
}

// NewStore validates the set and installs it as the first snapshot.
func NewStore(set *Set, logger zerolog.Logger) (*Store, error) {
	snap, err := buildSnapshot(set)
	if err != nil {
		return nil, err
	}
	s := &Store{logger: logger.With().Str("component", "content").Logger()}
	s.snap.Store(snap)
	return s, nil
}

// Swap validates a replacement set and atomically installs it.
func (s *Store) Swap(set *Set) error {
	snap, err := buildSnapshot(set)
	if err != nil {
		return err
	}
	s.snap.Store(snap)
	s.logger.Info().
		Int("questions", len(set.Questions)).
		Int("levels", len(set.Levels)).
		Msg("content snapshot swapped")
	return nil
}

// Snapshot returns the current immutable view. Sessions capture it once at
// level start and keep using it until the run ends.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

func buildSnapshot(set *Set) (*Snapshot, error) {
	snap := &Snapshot{
		set:            set,
		questionsByID:  make(map[int]*Question, len(set.Questions)),
		levelsByNumber: make(map[int]*Level, len(set.Levels)),
		levelOfQuest:   make(map[int]int),
		enemiesByLevel: make(map[int]*Enemy, len(set.Enemies)),
	}

	for i := range set.Questions {
		q := &set.Questions[i]
		if _, dup := snap.questionsByID[q.ID]; dup {
			return nil, loadErrorf("duplicate question id %d", q.ID)
		}
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		snap.questionsByID[q.ID] = q
	}

	for i := range set.Levels {
		lvl := &set.Levels[i]
		if lvl.Number < 1 {
			return nil, loadErrorf("level number %d must be >= 1", lvl.Number)
		}
		if _, dup := snap.levelsByNumber[lvl.Number]; dup {
			return nil, loadErrorf("duplicate level %d", lvl.Number)
		}
		snap.levelsByNumber[lvl.Number] = lvl
		if lvl.Number > snap.maxLevel {
			snap.maxLevel = lvl.Number
		}
		for _, qid := range lvl.QuestionIDs {
			if _, ok := snap.questionsByID[qid]; !ok {
				return nil, loadErrorf("level %d references unknown question %d", lvl.Number, qid)
			}
			if owner, taken := snap.levelOfQuest[qid]; taken {
				return nil, loadErrorf("question %d assigned to levels %d and %d", qid, owner, lvl.Number)
			}
			snap.levelOfQuest[qid] = lvl.Number
		}
	}

	if len(set.Chapters) > 0 {
		for _, ch := range set.Chapters {
			if ch.LevelRange[0] > ch.LevelRange[1] {
				return nil, loadErrorf("chapter %d has inverted level_range", ch.ID)
			}
			for n := ch.LevelRange[0]; n <= ch.LevelRange[1]; n++ {
				if _, ok := snap.levelsByNumber[n]; !ok {
					return nil, loadErrorf("chapter %d covers level %d with no level record", ch.ID, n)
				}
			}
		}
		for no := range snap.levelsByNumber {
			if chapterFor(set.Chapters, no) == nil {
				return nil, loadErrorf("level %d is outside every chapter range", no)
			}
		}
	}

	for i := range set.Enemies {
		e := &set.Enemies[i]
		if _, dup := snap.enemiesByLevel[e.Level]; dup {
			return nil, loadErrorf("duplicate enemy for level %d", e.Level)
		}
		snap.enemiesByLevel[e.Level] = e
	}

	snap.index = BuildIndex(set.Questions)
	return snap, nil
}

func validateQuestion(q *Question) error {
	if len(q.Options) < 2 || len(q.Options) > 6 {
		return loadErrorf("question %d has %d options, want 2-6", q.ID, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	answerOK := false
	for _, opt := range q.Options {
		if seen[opt.Tag] {
			return loadErrorf("question %d repeats option tag %s", q.ID, opt.Tag)
		}
		seen[opt.Tag] = true
		if opt.Tag == q.Answer {
			answerOK = true
		}
	}
	if !answerOK {
		return loadErrorf("question %d answer %q is not an option tag", q.ID, q.Answer)
	}
	if !ValidDifficulty(q.Difficulty) {
		return loadErrorf("question %d has unknown difficulty %q", q.ID, q.Difficulty)
	}
	return nil
}

func chapterFor(chapters []Chapter, levelNo int) *Chapter {
	for i := range chapters {
		if chapters[i].Contains(levelNo) {
			return &chapters[i]
		}
	}
	return nil
}

// Question looks up a question by id.
func (sn *Snapshot) Question(id int) (*Question, error) {
	q, ok := sn.questionsByID[id]
	if !ok {
		return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return q, nil
}

// Level looks up a level by number.
func (sn *Snapshot) Level(levelNo int) (*Level, error) {
	lvl, ok := sn.levelsByNumber[levelNo]
	if !ok {
		return nil, fmt.Errorf("level %d: %w", levelNo, ErrNotFound)
	}
	return lvl, nil
}

// LevelQuestions resolves a level's ordered question records.
func (sn *Snapshot) LevelQuestions(levelNo int) ([]*Question, error) {
	lvl, err := sn.Level(levelNo)
	if err != nil {
		return nil, err
	}
	qs := make([]*Question, 0, len(lvl.QuestionIDs))
	for _, id := range lvl.QuestionIDs {
		qs = append(qs, sn.questionsByID[id])
	}
	return qs, nil
}

// ChapterForLevel returns the owning chapter, or nil when no chapter covers
// the level.
func (sn *Snapshot) ChapterForLevel(levelNo int) *Chapter {
	return chapterFor(sn.set.Chapters, levelNo)
}

// EnemyForLevel returns the authored enemy for the level, or a deterministic
// synthesized one derived from the level number and chapter theme.
func (sn *Snapshot) EnemyForLevel(levelNo int) Enemy {
	if e, ok := sn.enemiesByLevel[levelNo]; ok {
		return *e
	}
	return SynthesizeEnemy(levelNo, sn.ChapterForLevel(levelNo))
}

// Settings returns the settings snapshot.
func (sn *Snapshot) Settings() GameSettings {
	return sn.set.Settings
}

// MaxLevel is the highest defined level number.
func (sn *Snapshot) MaxLevel() int {
	return sn.maxLevel
}

// Search runs a keyword query over the question bank.
func (sn *Snapshot) Search(query string, limit int) []*Question {
	ids := sn.index.Search(query, limit)
	out := make([]*Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, sn.questionsByID[id])
	}
	return out
}

// Set exposes the raw content for teacher-portal edits. Callers must treat it
// as read-only and build a fresh Set for Swap.
func (sn *Snapshot) Set() *Set {
	return sn.set
}
