// Package cache implements the busy-interval cache used by calendar.Cached.
//
// Backends:
//   - memory: an expiring LRU held in process
//   - redis: JSON values under a key prefix, shared between replicas
//
// Lookups that fail for any reason are reported as misses, so a broken cache
// only costs an extra calendar call.
package cache
