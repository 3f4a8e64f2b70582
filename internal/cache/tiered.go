package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/urd/internal/model"
)

// sweepInterval is how often the memory tier drops expired partitions.
const sweepInterval = 10 * time.Minute

// TieredCache serves partitions from process memory and persists them in the
// cache directory so a later run over the same catalog skips the engine.
type TieredCache struct {
	hot  Cache
	cold Cache

	// promoteTTL bounds how long a partition read back from disk stays hot.
	promoteTTL time.Duration
}

// NewTieredCache builds the memory and disk tiers described by cfg
func NewTieredCache(cfg model.CacheConfig) *TieredCache {
	return &TieredCache{
		hot:        NewMemoryCache(cfg.MemoryTTL, sweepInterval),
		cold:       NewDiskCache(cfg.Dir, cfg.DiskTTL),
		promoteTTL: cfg.MemoryTTL,
	}
}

// Get checks memory, then disk. A disk hit is copied into memory.
func (c *TieredCache) Get(key string) ([]byte, bool) {
	if data, ok := c.hot.Get(key); ok {
		return data, true
	}

	data, ok := c.cold.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.hot.Set(key, data, c.promoteTTL)
	return data, true
}

// Set writes the partition to disk first. The memory copy is kept even if
// the disk write fails, so the current run still reuses it.
func (c *TieredCache) Set(key string, value []byte, ttl time.Duration) error {
	diskErr := c.cold.Set(key, value, ttl)

	hotTTL := ttl
	if hotTTL == 0 || hotTTL > c.promoteTTL {
		hotTTL = c.promoteTTL
	}
	_ = c.hot.Set(key, value, hotTTL)

	if diskErr != nil {
		return fmt.Errorf("persist partition: %w", diskErr)
	}
	return nil
}

func (c *TieredCache) Delete(key string) error {
	return errors.Join(c.hot.Delete(key), c.cold.Delete(key))
}

// Clear drops every stored partition, including the cache directory
func (c *TieredCache) Clear() error {
	return errors.Join(c.hot.Clear(), c.cold.Clear())
}
