package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"brasa/backend/internal/domain"
)

type RedisSummaryCache struct {
	client *redis.Client
	key    string
}

func NewRedisSummaryCache(addr string, password string, db int) *RedisSummaryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSummaryCache{client: client, key: SummariesKey}
}

func (c *RedisSummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

func (c *RedisSummaryCache) Get(ctx context.Context) ([]domain.HistoricalSummary, bool, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var summaries []domain.HistoricalSummary
	if err := json.Unmarshal(val, &summaries); err != nil {
		return nil, false, err
	}
	return summaries, true, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, summaries []domain.HistoricalSummary, ttl time.Duration) error {
	if summaries == nil {
		summaries = []domain.HistoricalSummary{}
	}
	payload, err := json.Marshal(summaries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, payload, ttl).Err()
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
