package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"relationships/model"

	"github.com/redis/go-redis/v9"
)

const statusCachePrefix = "relationships:status:"

// StatusCache 状态目录的 Redis 读缓存（按 slug）
type StatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatusCache(rdb *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{rdb: rdb, ttl: ttl}
}

func (c *StatusCache) key(slug string) string {
	return statusCachePrefix + slug
}

// Get 未命中时返回 (nil, nil)
func (c *StatusCache) Get(ctx context.Context, slug string) (*model.RelationshipStatus, error) {
	val, err := c.rdb.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var status model.RelationshipStatus
	if err := json.Unmarshal(val, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *StatusCache) Set(ctx context.Context, slug string, status *model.RelationshipStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(slug), data, c.ttl).Err()
}

// Flush 清除所有状态缓存（状态增删改后调用）
func (c *StatusCache) Flush(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, statusCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
