package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data     []byte
	expireAt time.Time
	lastUsed time.Time
}

func (e *memoryEntry) expired() bool { return time.Now().After(e.expireAt) }

// MemoryCache is an in-process cache with LRU eviction and periodic sweep
// of expired entries. Entries hold marshaled JSON so Get behaves the same
// as the Redis implementation.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	max     int
	ticker  *time.Ticker
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxEntries:      1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		max:     cfg.MaxEntries,
		ticker:  time.NewTicker(cfg.CleanupInterval),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if len(mc.entries) >= mc.max {
		mc.evictLRU()
	}
	now := time.Now()
	mc.entries[key] = &memoryEntry{data: data, expireAt: now.Add(expiration), lastUsed: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	e, ok := mc.entries[key]
	if !ok || e.expired() {
		if ok {
			delete(mc.entries, key)
		}
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	e.lastUsed = time.Now()
	data := e.data
	mc.mu.Unlock()

	return json.Unmarshal(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		delete(mc.entries, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if e, ok := mc.entries[key]; ok && !e.expired() {
			return true, nil
		}
	}
	return false, nil
}

// evictLRU drops the least recently used entry. Caller holds the lock.
func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, e := range mc.entries {
		if oldestKey == "" || e.lastUsed.Before(oldest) {
			oldest = e.lastUsed
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}

func (mc *MemoryCache) sweep() {
	for range mc.ticker.C {
		mc.mu.Lock()
		now := time.Now()
		for key, e := range mc.entries {
			if now.After(e.expireAt) {
				delete(mc.entries, key)
			}
		}
		mc.mu.Unlock()
	}
}

// Close stops the sweep ticker.
func (mc *MemoryCache) Close() error {
	mc.ticker.Stop()
	return nil
}

var _ Service = (*MemoryCache)(nil)
