package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// stateKeyPrefix is the Redis key prefix for persisted editor state.
const stateKeyPrefix = "editor:state:"

// redisStore is the Redis implementation of Store. One key per document,
// no TTL -- the envelope lives until cleared. This is the fast autosave
// backend, the server-side analogue of the frontend's localStorage.
type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed persisted-state store.
func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func stateKey(docID string) string {
	return stateKeyPrefix + docID
}

// Load reads and decodes the envelope for a document. Missing keys and
// undecodable envelopes both return (nil, nil).
func (s *redisStore) Load(ctx context.Context, docID string) (*PersistedState, error) {
	data, err := s.rdb.Get(ctx, stateKey(docID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading editor state from redis: %w", err)
	}
	return DecodeState(data), nil
}

// Save encodes and writes the envelope for a document.
func (s *redisStore) Save(ctx context.Context, docID string, state *PersistedState) error {
	data, err := EncodeState(state)
	if err != nil {
		return fmt.Errorf("encoding editor state: %w", err)
	}
	if err := s.rdb.Set(ctx, stateKey(docID), data, 0).Err(); err != nil {
		return fmt.Errorf("writing editor state to redis: %w", err)
	}
	return nil
}

// Clear deletes the stored envelope for a document.
func (s *redisStore) Clear(ctx context.Context, docID string) error {
	if err := s.rdb.Del(ctx, stateKey(docID)).Err(); err != nil {
		return fmt.Errorf("deleting editor state from redis: %w", err)
	}
	return nil
}
