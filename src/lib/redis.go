package lib

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// CacheJSON stores v marshalled as JSON under key for ttl. A nil client or a
// marshal failure is logged and skipped; caching is best effort.
func CacheJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	rdb := GetRedisClient()
	if rdb == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[redis] Error serializing value for %s: %s\n", key, err.Error())
		return
	}
	if err := rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		log.Printf("[redis] Failed to set value for key %s: %s\n", key, err.Error())
	}
}

// GetCachedJSON loads key into out, reporting whether a cached value was found.
func GetCachedJSON(ctx context.Context, key string, out any) bool {
	rdb := GetRedisClient()
	if rdb == nil {
		return false
	}
	val, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	} else if err != nil {
		log.Printf("[redis] Error retrieving value for %s: %s\n", key, err.Error())
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		log.Printf("[redis] Error deserializing value for %s: %s\n", key, err.Error())
		return false
	}
	return true
}
