package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// A nil *redis.Client disables caching: reads miss and writes are no-ops.

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// SetTrackedCache sets a value and records its key in the set named index, so that
// InvalidateTracked can drop every key of a family at once
func SetTrackedCache(ctx context.Context, rdb *redis.Client, index, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, b, ttl)   // Cached value
		pipe.SAdd(ctx, index, key)   // Remember the key
		pipe.Expire(ctx, index, ttl) // Index never outlives its members by much
		return nil
	})
	return err
}

// InvalidateTracked deletes every key recorded in the set named index, and the set itself
func InvalidateTracked(ctx context.Context, rdb *redis.Client, index string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	keys, err := rdb.SMembers(ctx, index).Result() // Keys recorded so far
	if err != nil {
		return err
	}
	return rdb.Del(ctx, append(keys, index)...).Err() // Delete keys and index
}

// DeleteCache deletes a key from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	return rdb.Del(ctx, key).Err() // Delete key from Redis
}
