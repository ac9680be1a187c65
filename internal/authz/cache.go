// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package authz

import (
	"sync"
	"time"
)

// decisionCache memoizes (role, object, action) decisions. The policy is
// static between reloads so entries only need a TTL and a full reset.
type decisionCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[decisionKey]decision
	now   func() time.Time
}

type decisionKey struct {
	subject, object, action string
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &decisionCache{
		ttl:   ttl,
		items: make(map[decisionKey]decision),
		now:   time.Now,
	}
}

func (c *decisionCache) get(subject, object, action string) (allowed, ok bool) {
	c.mu.RLock()
	d, found := c.items[decisionKey{subject, object, action}]
	c.mu.RUnlock()
	if !found || c.now().After(d.expiresAt) {
		return false, false
	}
	return d.allowed, true
}

func (c *decisionCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	c.items[decisionKey{subject, object, action}] = decision{
		allowed:   allowed,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *decisionCache) clear() {
	c.mu.Lock()
	c.items = make(map[decisionKey]decision)
	c.mu.Unlock()
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
