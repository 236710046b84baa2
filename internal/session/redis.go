package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/posting-assistant/internal/dialogue"
)

// RedisKeyPrefix prefixes every session key.
const RedisKeyPrefix = "posting:session:"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisStore keeps states as JSON documents that expire after ttl without
// a write.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store over a Redis client. A zero ttl keeps
// sessions forever.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return RedisKeyPrefix + id
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, id string) (dialogue.State, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return dialogue.State{}, ErrSessionNotFound
		}
		return dialogue.State{}, &StoreError{Op: "get", ID: id, Cause: err}
	}
	var s dialogue.State
	if err := json.Unmarshal(data, &s); err != nil {
		return dialogue.State{}, &StoreError{Op: "decode", ID: id, Cause: err}
	}
	return s, nil
}

// Put implements Store.
func (r *RedisStore) Put(ctx context.Context, s dialogue.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return &StoreError{Op: "encode", ID: s.ID, Cause: err}
	}
	if err := r.client.Set(ctx, redisKey(s.ID), data, r.ttl).Err(); err != nil {
		return &StoreError{Op: "put", ID: s.ID, Cause: err}
	}
	return nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return &StoreError{Op: "delete", ID: id, Cause: err}
	}
	return nil
}
