package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"dapurstok/backend/internal/domain"
)

const stockKeyPrefix = "stock:"

type RedisStockCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStockCache(addr string, password string, db int, ttl time.Duration) *RedisStockCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStockCache{client: client, ttl: ttl}
}

func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

func (c *RedisStockCache) Get(ctx context.Context, ingredientID string) (*domain.StockLevel, bool, error) {
	val, err := c.client.Get(ctx, stockKeyPrefix+ingredientID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var level domain.StockLevel
	if err := json.Unmarshal([]byte(val), &level); err != nil {
		return nil, false, err
	}
	return &level, true, nil
}

func (c *RedisStockCache) Set(ctx context.Context, ingredientID string, level *domain.StockLevel) error {
	if level == nil {
		return nil
	}
	payload, err := json.Marshal(level)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stockKeyPrefix+ingredientID, payload, c.ttl).Err()
}

func (c *RedisStockCache) Invalidate(ctx context.Context, ingredientID string) error {
	return c.client.Del(ctx, stockKeyPrefix+ingredientID).Err()
}
