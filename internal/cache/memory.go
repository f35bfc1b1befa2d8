package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/teemow/calbridge/internal/calendar"
)

// Memory is an in-process cache with a fixed size and per-entry TTL.
// It is safe for concurrent use.
type Memory struct {
	lru *expirable.LRU[string, []calendar.TimeRange]
}

var _ calendar.BusyCache = (*Memory)(nil)

// NewMemory creates a Memory cache holding at most size entries for ttl each.
func NewMemory(size int, ttl time.Duration) (*Memory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	return &Memory{lru: expirable.NewLRU[string, []calendar.TimeRange](size, nil, ttl)}, nil
}

// Get returns a copy of the cached intervals.
func (m *Memory) Get(_ context.Context, key string) ([]calendar.TimeRange, bool) {
	v, ok := m.lru.Get(key)
	if !ok {
		return nil, false
	}
	return append([]calendar.TimeRange(nil), v...), true
}

// Set stores a copy of busy.
func (m *Memory) Set(_ context.Context, key string, busy []calendar.TimeRange) error {
	m.lru.Add(key, append(make([]calendar.TimeRange, 0, len(busy)), busy...))
	return nil
}

// InvalidatePrefix removes every entry whose key starts with prefix.
func (m *Memory) InvalidatePrefix(_ context.Context, prefix string) error {
	for _, key := range m.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.lru.Remove(key)
		}
	}
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}
