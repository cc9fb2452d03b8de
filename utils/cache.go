// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"tutorroute/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient holds resolved travel legs.
	CacheClient *redis.Client
	// QueueClient points at the database used by the recalculation queue.
	QueueClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitCache initializes the travel cache client.
func InitCache() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
}

// GetCacheClient returns the travel cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitQueueCache initializes the client used to watch the queue database.
func InitQueueCache() {
	QueueClient = newRedisClient(config.AppConfig.RedisQueueDB, "Queue")
}

// GetQueueClient returns the queue database client.
func GetQueueClient() *redis.Client {
	if QueueClient == nil {
		InitQueueCache()
	}
	return QueueClient
}
