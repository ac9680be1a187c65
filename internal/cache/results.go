// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// queryKeyNamespace prefixes keys for executed analytics queries.
const queryKeyNamespace = "analytics"

// QueryKey derives the cache key for an executed query from its SQL text,
// bound parameters and executor backend. Requests that compile to the same
// statement share an entry.
func QueryKey(backend, sql string, params []interface{}) string {
	return GenerateKey(queryKeyNamespace, struct {
		Backend string        `json:"backend"`
		SQL     string        `json:"sql"`
		Params  []interface{} `json:"params"`
	}{backend, sql, params})
}

// GetJSON loads key from store and decodes it into v. It reports whether
// the key was present.
func GetJSON(ctx context.Context, store Store, key string, v interface{}) (bool, error) {
	data, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cached value: %w", err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cached value: %w", err)
	}
	return store.Set(ctx, key, data, ttl)
}
