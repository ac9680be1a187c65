// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/kontrakpro/internal/config"
)

// Backend names accepted in config.CacheConfig.Backend.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Store is a byte-oriented result cache. A missing or expired key returns
// (nil, false, nil); errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
	Name() string
}

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NopStore{}, nil
	case BackendMemory:
		return NewMemoryStore(cfg.TTL), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case BackendBadger:
		return NewBadgerStore(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// MemoryStore adapts Cache to Store.
type MemoryStore struct {
	cache *Cache
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: New(ttl)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

// Set implements Store. A non-positive ttl uses the store default.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		m.cache.Set(key, value)
		return nil
	}
	m.cache.SetWithTTL(key, value, ttl)
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Close stops the cleanup goroutine.
func (m *MemoryStore) Close() error {
	m.cache.Stop()
	return nil
}

// Name implements Store.
func (m *MemoryStore) Name() string { return BackendMemory }

// Stats exposes the underlying cache statistics.
func (m *MemoryStore) Stats() Stats {
	return m.cache.GetStats()
}

// NopStore never stores anything. It backs the "none" backend.
type NopStore struct{}

// Get always misses.
func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete is a no-op.
func (NopStore) Delete(context.Context, string) error { return nil }

// Close is a no-op.
func (NopStore) Close() error { return nil }

// Name implements Store.
func (NopStore) Name() string { return BackendNone }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*BadgerStore)(nil)
	_ Store = NopStore{}
)
