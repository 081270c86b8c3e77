package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis configures a Redis client using the supplied URL.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return client, nil
}

// RedisBackend stores contract data as Redis strings. Entry expiry maps onto
// key TTLs, so Redis itself evicts temporary data.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps client; every key is namespaced under prefix
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) redisKey(contractID string, durability Durability, key []byte) string {
	return fmt.Sprintf("%s:%s:%s:%s", b.prefix, contractID, strings.ToLower(string(durability)), hex.EncodeToString(key))
}

// Load returns the value stored under key
func (b *RedisBackend) Load(ctx context.Context, contractID string, durability Durability, key []byte) ([]byte, error) {
	value, err := b.client.Get(ctx, b.redisKey(contractID, durability, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract data from redis: %w", err)
	}
	return value, nil
}

// Commit writes all entries in a MULTI/EXEC transaction
func (b *RedisBackend) Commit(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, entry := range entries {
			key := b.redisKey(entry.ContractID, entry.Durability, entry.Key)

			var ttl time.Duration
			if !entry.LiveUntil.IsZero() {
				ttl = time.Until(entry.LiveUntil)
				if ttl <= 0 {
					pipe.Del(ctx, key)
					continue
				}
			}
			pipe.Set(ctx, key, entry.Value, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit contract data to redis: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
