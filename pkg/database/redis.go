package database

import (
	"context"
	"fmt"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisOptions 连接池参数未配置时取 go-redis 默认值
func RedisOptions(cfg *config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}
	if d := cfg.DialTimeout(); d > 0 {
		opts.DialTimeout = d
	}
	return opts
}

// InitRedis 未配置 Host 时返回 nil，缓存和提交锁随之关闭
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		logger.Log.Info("Redis not configured, categories cache and submit guard disabled")
		return nil, nil
	}

	rdb := redis.NewClient(RedisOptions(cfg))

	timeout := cfg.DialTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", rdb.Options().Addr, err)
	}

	logger.Log.Info("Redis connection established",
		zap.String("addr", rdb.Options().Addr),
		zap.Int("db", cfg.DB),
	)
	return rdb, nil
}
