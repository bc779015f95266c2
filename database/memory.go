package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the in-process Cache used when no Redis host is configured.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(defaultExpiration time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(defaultExpiration, 2*defaultExpiration)}
}

// Values are stored encoded so callers never share mutable state with the cache.
func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	mc.store.Set(key, data, expiration)
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := mc.store.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		mc.store.Delete(k)
	}
	return nil
}
