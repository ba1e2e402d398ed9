// Package leaderboard records finished runs. The JSON file is the durable
// record; Redis, when configured, keeps a sorted set for fast top-N queries.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Entry is one finished run.
type Entry struct {
	Learner   string    `json:"learner"`
	Score     int       `json:"score"`
	Level     int       `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

const redisKey = "lb:scores"

// Service aggregates leaderboard writes and queries.
type Service struct {
	store  *FileStore
	redis  *redis.Client
	topN   int
	logger zerolog.Logger
}

// ServiceOptions configures the leaderboard service.
type ServiceOptions struct {
	TopN int
}

// NewService constructs the leaderboard service. redis may be nil.
func NewService(store *FileStore, redisClient *redis.Client, opts ServiceOptions, logger zerolog.Logger) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	return &Service{
		store:  store,
		redis:  redisClient,
		topN:   topN,
		logger: logger.With().Str("component", "leaderboard").Logger(),
	}
}

// Record appends a finished run. Redis failures are logged, never returned;
// the file store is the source of truth.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := s.store.Append(entry); err != nil {
		return err
	}

	if s.redis != nil {
		// Keep each learner's best score.
		err := s.redis.ZAdd(ctx, redisKey, redis.Z{
			Score:  float64(entry.Score),
			Member: entry.Learner,
		}).Err()
		if err != nil {
			s.logger.Warn().Err(err).Msg("redis leaderboard update failed")
		}
	}
	return nil
}

// Top returns the best runs, highest score first. Redis answers when
// available; the file store is the fallback.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	if s.redis != nil {
		if entries, err := s.topFromRedis(ctx, limit); err == nil && len(entries) > 0 {
			return entries, nil
		} else if err != nil {
			s.logger.Warn().Err(err).Msg("redis leaderboard fetch failed")
		}
	}
	return s.topFromFile(limit)
}

func (s *Service) topFromRedis(ctx context.Context, limit int) ([]Entry, error) {
	zs, err := s.redis.ZRevRangeWithScores(ctx, redisKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	all, err := s.store.All()
	if err != nil {
		return nil, err
	}
	// Enrich member+score pairs with level/timestamp from the file record.
	best := make(map[string]Entry, len(all))
	for _, e := range all {
		if cur, ok := best[e.Learner]; !ok || e.Score > cur.Score {
			best[e.Learner] = e
		}
	}
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		learner, _ := z.Member.(string)
		if e, ok := best[learner]; ok {
			entries = append(entries, e)
		} else {
			entries = append(entries, Entry{Learner: learner, Score: int(z.Score)})
		}
	}
	return entries, nil
}

func (s *Service) topFromFile(limit int) ([]Entry, error) {
	all, err := s.store.All()
	if err != nil {
		return nil, err
	}
	best := make(map[string]Entry, len(all))
	for _, e := range all {
		if cur, ok := best[e.Learner]; !ok || e.Score > cur.Score {
			best[e.Learner] = e
		}
	}
	entries := make([]Entry, 0, len(best))
	for _, e := range best {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Score != entries[b].Score {
			return entries[a].Score > entries[b].Score
		}
		return entries[a].Timestamp.Before(entries[b].Timestamp)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
