package cache

// meteredCache records lookups and value sizes for one group. Evictions are
// counted by the OnEvict hook installed in New.
type meteredCache struct {
	Cache
	group string
}

func newMeteredCache(inner Cache, group string) *meteredCache {
	gauges.track(group, inner.Len)
	return &meteredCache{Cache: inner, group: group}
}

func (c *meteredCache) Get(key string) ([]byte, bool) {
	val, ok := c.Cache.Get(key)
	result := "miss"
	if ok {
		result = "hit"
	}
	LookupsTotal.WithLabelValues(c.group, result).Inc()
	return val, ok
}

func (c *meteredCache) Set(key string, value []byte) {
	ValueBytes.WithLabelValues(c.group).Observe(float64(len(value)))
	c.Cache.Set(key, value)
}

func (c *meteredCache) Close() error {
	gauges.untrack(c.group)
	return c.Cache.Close()
}
