package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions tunes the cache client. Zero values keep go-redis defaults.
type RedisOptions struct {
	// ClientName is sent with CLIENT SETNAME on every connection.
	ClientName string
	PoolSize   int
}

// NewRedisClient opens the shared cache client and pings it before returning.
func NewRedisClient(ctx context.Context, url string, opts RedisOptions) (*redis.Client, error) {
	opt, err := redisOptions(url, opts)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func redisOptions(url string, opts RedisOptions) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.ClientName != "" {
		opt.ClientName = opts.ClientName
	}
	if opts.PoolSize > 0 {
		opt.PoolSize = opts.PoolSize
	}
	return opt, nil
}
