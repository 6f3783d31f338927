package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acgs-labs/charter/pkg/contracts"
)

const defaultRedisTTL = 24 * time.Hour

// RedisCache shares verification results across engine instances. Entries
// carry a TTL so the shared cache stays bounded without coordination.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	clock  func() time.Time
}

// RedisConfig holds connection settings for the shared cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisCache connects to Redis. Prefix defaults to "charter:verify:".
func NewRedisCache(cfg RedisConfig) *RedisCache {
	if cfg.Prefix == "" {
		cfg.Prefix = "charter:verify:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultRedisTTL
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		clock:  time.Now,
	}
}

func (c *RedisCache) key(fingerprint string) string {
	return c.prefix + fingerprint
}

// Get fetches and decodes a stored result, refreshing its timestamp.
func (c *RedisCache) Get(ctx context.Context, key string) (*contracts.VerificationResult, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result contracts.VerificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("cached result decode failed: %w", err)
	}
	result.Timestamp = c.clock()
	return &result, true, nil
}

// Put stores the result with the configured TTL.
func (c *RedisCache) Put(ctx context.Context, key string, result *contracts.VerificationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("result encode failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Len counts entries under the cache prefix.
func (c *RedisCache) Len(ctx context.Context) (int, error) {
	var count int
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}
	return count, nil
}

// Close releases the underlying connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
