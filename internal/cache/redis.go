package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/redis/go-redis/v9"
)

// AttemptCache mirrors in-flight checkout attempts in Redis so the status
// endpoint can answer browser polls without hitting SQLite. A nil *AttemptCache
// is valid and turns every method into a no-op miss; the store is then the
// only source of truth.
type AttemptCache struct {
	Client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func NewAttemptCache(client *redis.Client) *AttemptCache {
	return &AttemptCache{Client: client}
}

func (c *AttemptCache) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

func attemptKey(checkoutRequestID string) string {
	return fmt.Sprintf("checkout_attempt:%s", checkoutRequestID)
}

func (c *AttemptCache) StoreAttempt(ctx context.Context, attempt *models.CheckoutAttempt, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	attemptJSON, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout attempt: %w", err)
	}
	if err := c.Client.Set(ctx, attemptKey(attempt.CheckoutRequestID), attemptJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set checkout attempt in redis: %w", err)
	}
	return nil
}

// GetAttempt returns (nil, nil) on a miss.
func (c *AttemptCache) GetAttempt(ctx context.Context, checkoutRequestID string) (*models.CheckoutAttempt, error) {
	if c == nil {
		return nil, nil
	}
	val, err := c.Client.Get(ctx, attemptKey(checkoutRequestID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get checkout attempt from redis: %w", err)
	}

	var attempt models.CheckoutAttempt
	if err := json.Unmarshal([]byte(val), &attempt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout attempt from redis: %w", err)
	}
	return &attempt, nil
}

func (c *AttemptCache) DeleteAttempt(ctx context.Context, checkoutRequestID string) error {
	if c == nil {
		return nil
	}
	if err := c.Client.Del(ctx, attemptKey(checkoutRequestID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to delete checkout attempt from redis: %w", err)
	}
	return nil
}
