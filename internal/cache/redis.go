package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/teemow/calbridge/internal/calendar"
	"github.com/teemow/calbridge/internal/logging"
)

const scanBatch = 100

// Redis stores busy intervals as JSON strings under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ calendar.BusyCache = (*Redis)(nil)

// NewRedis connects to the server in opts. An unreachable server is logged
// and tolerated: every lookup then misses.
func NewRedis(ctx context.Context, opts Options, logger *slog.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.RedisAddr,
		Password:    opts.RedisPassword,
		DB:          opts.RedisDB,
		DialTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis cache unreachable, lookups will miss",
			slog.String("addr", opts.RedisAddr), logging.Err(err))
	}

	return &Redis{
		client: client,
		prefix: opts.RedisKeyPrefix,
		ttl:    opts.TTL,
		logger: logger,
	}
}

// Get implements calendar.BusyCache.
func (r *Redis) Get(ctx context.Context, key string) ([]calendar.TimeRange, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "redis cache get failed", logging.Err(err))
		}
		return nil, false
	}

	var busy []calendar.TimeRange
	if err := json.Unmarshal(raw, &busy); err != nil {
		r.logger.WarnContext(ctx, "discarding undecodable cache entry", slog.String("key", key), logging.Err(err))
		return nil, false
	}
	return busy, true
}

// Set implements calendar.BusyCache.
func (r *Redis) Set(ctx context.Context, key string, busy []calendar.TimeRange) error {
	if busy == nil {
		busy = []calendar.TimeRange{}
	}
	raw, err := json.Marshal(busy)
	if err != nil {
		return fmt.Errorf("failed to encode busy intervals: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store busy intervals: %w", err)
	}
	return nil
}

// InvalidatePrefix deletes all keys under prefix using SCAN so the server is
// never blocked by KEYS.
func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
