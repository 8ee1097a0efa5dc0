package cache

import "github.com/rs/zerolog"

// EvictCallback is called when an entry is evicted from the cache.
// Redis only reports the key; the value argument is nil there.
type EvictCallback func(key string, value []byte)

// Cache is a byte-valued key-value store with LRU capacity and TTL expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value by key and refreshes its recency.
	Get(key string) ([]byte, bool)

	// Set stores a value, overwriting any previous one.
	Set(key string, value []byte)

	// Delete removes a key. Removing an absent key is a no-op.
	Delete(key string)

	// Len returns the number of live entries.
	Len() int

	// Close releases any resources held by the cache.
	Close() error
}

// Logger receives errors that cache operations cannot return to the caller.
type Logger interface {
	Error(msg string, err error)
}

type zerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologLogger adapts a zerolog logger to the cache Logger interface.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return zerologAdapter{logger: logger}
}

func (z zerologAdapter) Error(msg string, err error) {
	z.logger.Error().Err(err).Msg(msg)
}
