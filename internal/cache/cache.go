package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/calbridge/internal/calendar"
)

// Backend names accepted by New.
const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Options configures a cache backend.
type Options struct {
	Type string
	TTL  time.Duration

	// Size bounds the memory backend.
	Size int

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

// New builds the backend named by opts.Type. It returns a nil cache for
// TypeNone, meaning callers should skip caching entirely.
func New(ctx context.Context, opts Options, logger *slog.Logger) (calendar.BusyCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TTL <= 0 && opts.Type != TypeNone && opts.Type != "" {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", opts.TTL)
	}

	switch opts.Type {
	case TypeNone, "":
		return nil, nil
	case TypeMemory:
		return NewMemory(opts.Size, opts.TTL)
	case TypeRedis:
		return NewRedis(ctx, opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q, must be one of: none, memory, redis", opts.Type)
	}
}
