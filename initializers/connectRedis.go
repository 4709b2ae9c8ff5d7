package initializers

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ConnectRedis wires the draft store. A missing or unreachable Redis leaves
// RDB nil; extraction drafts are then unavailable but nothing else breaks.
func ConnectRedis() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Println("REDIS_ADDR not set, draft store disabled")
		return
	}

	RDB = redis.NewClient(&redis.Options{Addr: redisAddr})

	if _, err := RDB.Ping(context.Background()).Result(); err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		RDB = nil
		return
	}

	log.Println("Redis connection successful")
}
