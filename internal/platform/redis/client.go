package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"tbt/internal/platform/config"
)

// Client is the connection shared by the code-attempt limiter instances.
type Client struct {
	*redis.Client
	keyPrefix string
}

// New connects to the limiter backend and pings it once. It returns nil
// without error when no URL is configured, which keeps counting in process.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.ClientName = cfg.ClientName
	// A code submission must not wait on Redis past its own deadline; the
	// limiter falls back to memory instead.
	opts.ContextTimeoutEnabled = true

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return &Client{Client: client, keyPrefix: strings.TrimSuffix(cfg.KeyPrefix, ":")}, nil
}

// KeyPrefix is the namespace limiter keys are stored under, without the
// trailing separator. Empty means keys are used as is.
func (c *Client) KeyPrefix() string {
	return c.keyPrefix
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
