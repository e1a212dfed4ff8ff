package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisPingTimeout 启动时探活的超时
const redisPingTimeout = 3 * time.Second

// NewStatusCacheRedis 连接状态缓存使用的 Redis；不可达时关闭客户端并返回错误
func NewStatusCacheRedis(addr, password string, db int, log *zap.Logger) (*redis.Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}

	log.Info("status cache redis connected", zap.String("addr", addr), zap.Int("db", db))
	return client, nil
}
