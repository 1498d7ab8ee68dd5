package erc20

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores token metadata, which never changes once a token is deployed.
type Cache interface {
	Get(ctx context.Context, key string) (Metadata, bool, error)
	Set(ctx context.Context, key string, md Metadata) error
}

type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]Metadata
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{m: map[string]Metadata{}} }

func (c *MemoryCache) Get(_ context.Context, key string) (Metadata, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	md, ok := c.m[key]
	return md, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, md Metadata) error {
	c.mu.Lock()
	c.m[key] = md
	c.mu.Unlock()
	return nil
}

// RedisCache shares metadata between gateway replicas.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache parses a redis:// URL. ttl <= 0 keeps entries forever.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *RedisCache) Close() error { return c.rdb.Close() }

func (c *RedisCache) Get(ctx context.Context, key string) (Metadata, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, err
	}
	var md Metadata
	if err := json.Unmarshal(b, &md); err != nil {
		return Metadata{}, false, err
	}
	return md, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, md Metadata) error {
	b, err := json.Marshal(md)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
