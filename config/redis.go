package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClient is nil when Redis is unreachable; callers treat that as
// "remember me and OTP throttling disabled" rather than a fatal error.
var RedisClient *redis.Client

// ConnectRedis dials Redis using REDIS_ADDR, REDIS_PASSWORD and REDIS_DB.
func ConnectRedis() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			db = n
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis unavailable (%v); remember-me tokens and OTP rate limits are off", err)
		return nil
	}

	log.Println("Connected to Redis")
	RedisClient = client
	return client
}

// GetRedisClient returns the shared client, or nil when Redis is down.
func GetRedisClient() *redis.Client {
	return RedisClient
}

// CloseRedis releases the connection pool.
func CloseRedis() {
	if RedisClient != nil {
		RedisClient.Close()
	}
}
