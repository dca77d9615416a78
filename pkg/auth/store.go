package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mondoohq/console-core/pkg/config"
)

// ErrSessionNotFound is returned by SessionStore.Load when no session
// exists for the given key.
var ErrSessionNotFound = errors.New("session not found")

// StoredSession is the persisted refresh handle for one console
// session. It carries enough to restore a session across a gateway
// restart without asking the user to sign in again.
type StoredSession struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionStore persists sessions keyed by an opaque session ID.
type SessionStore interface {
	Save(ctx context.Context, key string, session *StoredSession) error
	// Load returns ErrSessionNotFound when no session exists for key.
	Load(ctx context.Context, key string) (*StoredSession, error)
	Delete(ctx context.Context, key string) error
}

// NewSessionStore selects the store backend from configuration: Redis
// when a URL is configured, in-memory otherwise.
func NewSessionStore(cfg config.SessionConfig) (SessionStore, error) {
	if cfg.RedisURL == "" {
		return NewMemoryStore(cfg.MaxDuration), nil
	}
	return NewRedisStore(cfg)
}

// MemoryStore is an in-process SessionStore. Entries expire after the
// configured TTL, checked lazily on Load.
type MemoryStore struct {
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session  *StoredSession
	storedAt time.Time
}

// NewMemoryStore builds an in-process store. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
	}
}

// Save stores the session under key.
func (s *MemoryStore) Save(ctx context.Context, key string, session *StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = memoryEntry{session: session, storedAt: time.Now()}
	return nil
}

// Load returns the session for key, or ErrSessionNotFound.
func (s *MemoryStore) Load(ctx context.Context, key string) (*StoredSession, error) {
	s.mu.RLock()
	entry, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.ttl > 0 && time.Since(entry.storedAt) > s.ttl {
		s.mu.Lock()
		delete(s.sessions, key)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return entry.session, nil
}

// Delete removes the session for key. Deleting a missing key is not an
// error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// RedisStore is a Redis-backed SessionStore. Sessions are stored as
// JSON with the configured maximum session duration as TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

const redisSessionPrefix = "console:session:"

// NewRedisStore connects to the configured Redis instance and verifies
// the connection.
func NewRedisStore(cfg config.SessionConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.MaxDuration}, nil
}

// Save stores the session under key with the session TTL.
func (s *RedisStore) Save(ctx context.Context, key string, session *StoredSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.client.Set(ctx, redisSessionPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// Load returns the session for key, or ErrSessionNotFound.
func (s *RedisStore) Load(ctx context.Context, key string) (*StoredSession, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var session StoredSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

// Delete removes the session for key. Deleting a missing key is not an
// error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisSessionPrefix+key).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
