package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ops-kit/opsconsole/internal/domain"
)

// ErrRefreshTokenInvalid is returned for unknown, lapsed or already
// consumed refresh tokens.
var ErrRefreshTokenInvalid = errors.New("refresh token invalid or expired")

// RefreshStore persists opaque refresh tokens keyed by token value.
// Consume removes the token atomically so each token is usable once.
type RefreshStore interface {
	Issue(ctx context.Context, identity domain.Identity) (string, error)
	Consume(ctx context.Context, token string) (*domain.Identity, error)
	Revoke(ctx context.Context, token string) error
}

const refreshKeyPrefix = "auth:refresh:"

type redisRefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRefreshStore backs refresh tokens with Redis TTL keys.
func NewRedisRefreshStore(client *redis.Client, ttl time.Duration) RefreshStore {
	return &redisRefreshStore{client: client, ttl: ttl}
}

func (s *redisRefreshStore) Issue(ctx context.Context, identity domain.Identity) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, refreshKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *redisRefreshStore) Consume(ctx context.Context, token string) (*domain.Identity, error) {
	payload, err := s.client.GetDel(ctx, refreshKeyPrefix+token).Result()
	if err == redis.Nil {
		return nil, ErrRefreshTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	var identity domain.Identity
	if err := json.Unmarshal([]byte(payload), &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *redisRefreshStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, refreshKeyPrefix+token).Err()
}

type memoryEntry struct {
	identity  domain.Identity
	expiresAt time.Time
}

type memoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]memoryEntry
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryRefreshStore keeps refresh tokens in process memory. Intended
// for development and tests; tokens do not survive restarts.
func NewMemoryRefreshStore(ttl time.Duration) RefreshStore {
	return &memoryRefreshStore{
		tokens: make(map[string]memoryEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *memoryRefreshStore) Issue(_ context.Context, identity domain.Identity) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryEntry{identity: identity, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

func (s *memoryRefreshStore) Consume(_ context.Context, token string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return nil, ErrRefreshTokenInvalid
	}
	delete(s.tokens, token)
	if s.now().After(entry.expiresAt) {
		return nil, ErrRefreshTokenInvalid
	}
	identity := entry.identity
	return &identity, nil
}

func (s *memoryRefreshStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
