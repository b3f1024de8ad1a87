package database

import (
	"testing"
	"time"

	"quiz_platform_backend/internal/config"
)

func TestInitRedisDisabledWithoutHost(t *testing.T) {
	rdb, err := InitRedis(&config.RedisConfig{})
	if err != nil || rdb != nil {
		t.Fatalf("InitRedis without host = (%v, %v), want (nil, nil)", rdb, err)
	}
}

func TestInitRedisUnreachable(t *testing.T) {
	rdb, err := InitRedis(&config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeoutSeconds: 1})
	if err == nil || rdb != nil {
		t.Fatalf("expected ping failure, got (%v, %v)", rdb, err)
	}
}

func TestRedisOptions(t *testing.T) {
	opts := RedisOptions(&config.RedisConfig{
		Host:               "cache",
		Port:               6380,
		DB:                 2,
		PoolSize:           20,
		MinIdleConns:       3,
		DialTimeoutSeconds: 2,
	})
	if opts.Addr != "cache:6380" || opts.DB != 2 || opts.PoolSize != 20 || opts.MinIdleConns != 3 {
		t.Fatalf("options = %+v", opts)
	}
	if opts.DialTimeout != 2*time.Second {
		t.Fatalf("DialTimeout = %v", opts.DialTimeout)
	}
	if RedisOptions(&config.RedisConfig{Host: "cache", Port: 6379}).DialTimeout != 0 {
		t.Fatalf("unset dial timeout should fall back to the client default")
	}
}
