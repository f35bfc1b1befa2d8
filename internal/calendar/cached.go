package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/calbridge/internal/instrumentation"
	"github.com/teemow/calbridge/internal/logging"
)

// BusyCache stores busy-interval lookups. Implementations report failures
// by returning a miss; Set and InvalidatePrefix errors are only logged.
type BusyCache interface {
	Get(ctx context.Context, key string) ([]TimeRange, bool)
	Set(ctx context.Context, key string, busy []TimeRange) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Cached serves QueryBusy from a BusyCache and drops a calendar's cached
// lookups after a successful InsertEvent. ListEvents is passed through.
type Cached struct {
	next    API
	cache   BusyCache
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

var _ API = (*Cached)(nil)

// NewCached wraps next with cache.
func NewCached(next API, cache BusyCache, metrics *instrumentation.Metrics, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: cache, metrics: metrics, logger: logging.WithOperation(logger, "busy_cache")}
}

// BusyKeyPrefix returns the cache key prefix shared by all lookups of calendarID.
func BusyKeyPrefix(calendarID string) string {
	return "busy:" + calendarID + ":"
}

// BusyKey returns the cache key for one lookup.
func BusyKey(calendarID string, timeMin, timeMax time.Time) string {
	return fmt.Sprintf("%s%d-%d", BusyKeyPrefix(calendarID), timeMin.UnixNano(), timeMax.UnixNano())
}

// QueryBusy implements API.
func (c *Cached) QueryBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]TimeRange, error) {
	key := BusyKey(calendarID, timeMin, timeMax)
	if busy, ok := c.cache.Get(ctx, key); ok {
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheHit)
		return busy, nil
	}
	c.metrics.RecordCacheLookup(ctx, instrumentation.CacheMiss)

	busy, err := c.next.QueryBusy(ctx, calendarID, timeMin, timeMax)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, busy); err != nil {
		c.logger.WarnContext(ctx, "failed to cache busy intervals", logging.CalendarID(calendarID), logging.Err(err))
	}
	return busy, nil
}

// ListEvents implements API.
func (c *Cached) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]EventSummary, error) {
	return c.next.ListEvents(ctx, calendarID, timeMin, timeMax)
}

// InsertEvent implements API.
func (c *Cached) InsertEvent(ctx context.Context, calendarID string, input EventInput) (*EventSummary, error) {
	event, err := c.next.InsertEvent(ctx, calendarID, input)
	if err != nil {
		return nil, err
	}
	if err := c.cache.InvalidatePrefix(ctx, BusyKeyPrefix(calendarID)); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate busy cache", logging.CalendarID(calendarID), logging.Err(err))
	}
	return event, nil
}
