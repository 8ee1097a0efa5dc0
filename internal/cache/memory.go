package cache

import (
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemoryCache)
}

// memoryCache keeps entries in process. Keys are stored with the configured
// prefix so several logical caches can share one provider without clashing.
type memoryCache struct {
	inner  *lru.LRU[string, []byte]
	prefix string
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	prefix := cfg.KeyPrefix
	var onEvict func(string, []byte)
	if cfg.OnEvict != nil {
		onEvict = func(key string, value []byte) {
			cfg.OnEvict(key[len(prefix):], value)
		}
	}
	size := cfg.Size
	if size <= 0 {
		size = defaultSize
	}
	return &memoryCache{
		inner:  lru.NewLRU[string, []byte](size, onEvict, cfg.TTL),
		prefix: prefix,
	}, nil
}

func (m *memoryCache) Get(key string) ([]byte, bool) {
	return m.inner.Get(m.prefix + key)
}

func (m *memoryCache) Set(key string, value []byte) {
	m.inner.Add(m.prefix+key, value)
}

// Delete removes the entry. The LRU reports removals through the eviction
// callback, so they are counted as evictions.
func (m *memoryCache) Delete(key string) {
	m.inner.Remove(m.prefix + key)
}

func (m *memoryCache) Len() int {
	return m.inner.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
