package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wallify:session:"

// Data is what a signed-in browser carries between requests.
type Data struct {
	Username string `json:"username"`
	Premium  bool   `json:"is_premium"`
}

// Store keeps sessions in Redis with TTL, keyed by an opaque cookie token.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) TTL() time.Duration { return s.ttl }

// Create stores data under a fresh token.
func (s *Store) Create(ctx context.Context, data Data) (string, error) {
	token := uuid.NewString()
	if err := s.Save(ctx, token, data); err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves a token. A missing or expired session yields nil, nil.
func (s *Store) Get(ctx context.Context, token string) (*Data, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &data, nil
}

// Save overwrites the session and refreshes its TTL.
func (s *Store) Save(ctx context.Context, token string, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+token, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
