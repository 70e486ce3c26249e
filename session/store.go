// Package session keeps the current profile of each session and mirrors
// saved profiles into the commuter directory.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ridecircle/backend/commuter"
)

// ErrNotFound is returned by Load when the session has no profile.
var ErrNotFound = errors.New("session has no profile")

// Store holds one current profile per session id.
type Store interface {
	Load(ctx context.Context, sessionID string) (commuter.Profile, error)
	Save(ctx context.Context, sessionID string, p commuter.Profile) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]commuter.Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]commuter.Profile)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (commuter.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[sessionID]
	if !ok {
		return commuter.Profile{}, ErrNotFound
	}
	p.Interests = append([]string(nil), p.Interests...)
	return p, nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, p commuter.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Interests = append([]string(nil), p.Interests...)
	s.profiles[sessionID] = p
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, sessionID)
	return nil
}

const keyPrefix = "ridecircle:session:"

// RedisStore keeps each session's profile as a JSON string value.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore expires records ttl after their last save; 0 keeps them
// forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (commuter.Profile, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Result()
	if err == redis.Nil {
		return commuter.Profile{}, ErrNotFound
	} else if err != nil {
		return commuter.Profile{}, fmt.Errorf("redis GET: %w", err)
	}
	var p commuter.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return commuter.Profile{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return p, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, p commuter.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}
