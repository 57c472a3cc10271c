package config

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to the address (host:port or redis:// URL) and verifies
// the connection. Realtime fan-out is optional; callers pass an empty
// address to run without it and get a nil client back.
func InitRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	var client *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
