package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisSaver keeps auto-save session snapshots in Redis so a restarted host
// can show the learner where they left off. Snapshots expire with the session
// inactivity window plus padding.
type RedisSaver struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

var _ Saver = (*RedisSaver)(nil)

// NewRedisSaver creates a Redis-backed saver.
func NewRedisSaver(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisSaver {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisSaver{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "session_saver").Logger(),
	}
}

func sessionKey(learner string) string {
	return fmt.Sprintf("session:save:%s", learner)
}

// Save stores the session snapshot.
func (r *RedisSaver) Save(ctx context.Context, learner string, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.client.Set(ctx, sessionKey(learner), data, r.ttl).Err()
}

// Load retrieves a saved snapshot, nil when none exists.
func (r *RedisSaver) Load(ctx context.Context, learner string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(learner)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// Delete removes the snapshot on session end.
func (r *RedisSaver) Delete(ctx context.Context, learner string) error {
	return r.client.Del(ctx, sessionKey(learner)).Err()
}

// MemorySaver is the in-process saver used without Redis and in tests.
type MemorySaver struct {
	mu    sync.Mutex
	saves map[string][]byte
}

var _ Saver = (*MemorySaver)(nil)

// NewMemorySaver creates an empty in-memory saver.
func NewMemorySaver() *MemorySaver {
	return &MemorySaver{saves: make(map[string][]byte)}
}

func (m *MemorySaver) Save(_ context.Context, learner string, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[learner] = data
	return nil
}

func (m *MemorySaver) Load(_ context.Context, learner string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.saves[learner]
	if !ok {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemorySaver) Delete(_ context.Context, learner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, learner)
	return nil
}
