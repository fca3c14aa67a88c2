package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eventra/internal/domain"
)

const keyPrefix = "reconcile:"

// Config holds Redis connection settings.
type Config struct {
	URL string
	TTL time.Duration
}

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// ReplayCache stores terminal reconciliation results in Redis. Postgres stays
// authoritative; entries only let duplicate callbacks skip the row lock.
type ReplayCache struct {
	client *redis.Client
	kv     kv
	ttl    time.Duration
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, cfg Config) (*ReplayCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.DialTimeout = 5 * time.Second

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c := newReplayCache(rdb, cfg.TTL)
	c.client = rdb
	return c, nil
}

func newReplayCache(store kv, ttl time.Duration) *ReplayCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReplayCache{kv: store, ttl: ttl}
}

var _ domain.ReplayCache = (*ReplayCache)(nil)

func (c *ReplayCache) Get(ctx context.Context, transactionID string) (*domain.ReconcileResult, error) {
	raw, err := c.kv.Get(ctx, keyPrefix+transactionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	var res domain.ReconcileResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &res, nil
}

func (c *ReplayCache) Put(ctx context.Context, res *domain.ReconcileResult) error {
	if res == nil || res.TransactionID == "" {
		return fmt.Errorf("%w: empty reconcile result", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return c.kv.Set(ctx, keyPrefix+res.TransactionID, data, c.ttl).Err()
}

func (c *ReplayCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
