package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smartx-backend/internal/components/assert"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis with short timeouts.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

// RedisBackend keeps the entries of every user in a hash at "<prefix>:<user>" with one
// field per kind. The hash expires ttl after its last write.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisBackend(client *redis.Client, prefix string, ttl time.Duration) RedisBackend {
	assert.NotNil(client)
	assert.NotEmptyStr(prefix)
	return RedisBackend{client: client, prefix: prefix, ttl: ttl}
}

type redisEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Payload   []byte    `json:"payload"`
}

func (r RedisBackend) key(userId string) string {
	return fmt.Sprintf("%s:%s", r.prefix, userId)
}

// Healthy verifies redis connectivity.
func (r RedisBackend) Healthy(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

func (r RedisBackend) Load(ctx context.Context, userId, kind string) (Entry, bool, error) {
	raw, err := r.client.HGet(ctx, r.key(userId), kind).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("hget: %w", err)
	}

	var stored redisEntry
	err = json.Unmarshal(raw, &stored)
	if err != nil {
		return Entry{}, false, fmt.Errorf("decode entry: %w", err)
	}
	return Entry{
		UserId:    userId,
		Kind:      kind,
		Timestamp: stored.Timestamp,
		Payload:   stored.Payload,
	}, true, nil
}

func (r RedisBackend) Store(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(redisEntry{
		Timestamp: entry.Timestamp,
		Payload:   entry.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	key := r.key(entry.UserId)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, entry.Kind, raw)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	return nil
}

func (r RedisBackend) Clear(ctx context.Context, userId string) error {
	err := r.client.Del(ctx, r.key(userId)).Err()
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}
