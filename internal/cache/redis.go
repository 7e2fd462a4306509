package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flighttracker/config"
	"github.com/redis/go-redis/v9"
)

// RedisRecentSearches keeps each client's recent flight codes in a capped list.
type RedisRecentSearches struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

func NewRedisRecentSearches(cfg config.RedisConfig, limit int, ttl time.Duration) *RedisRecentSearches {
	return &RedisRecentSearches{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		limit:  limit,
		ttl:    ttl,
	}
}

func (c *RedisRecentSearches) Get(ctx context.Context, clientID string) ([]string, error) {
	codes, err := c.client.LRange(ctx, recentKey(clientID), 0, int64(c.limit-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return []string{}, nil
		}
		return nil, err
	}
	return codes, nil
}

// Push moves flightIATA to the front, dropping any earlier occurrence.
func (c *RedisRecentSearches) Push(ctx context.Context, clientID, flightIATA string) error {
	key := recentKey(clientID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, key, 0, flightIATA)
		pipe.LPush(ctx, key, flightIATA)
		pipe.LTrim(ctx, key, 0, int64(c.limit-1))
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	return err
}

func (c *RedisRecentSearches) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisRecentSearches) Close() error {
	return c.client.Close()
}

func recentKey(clientID string) string {
	return fmt.Sprintf("recent:searches:%s", clientID)
}
