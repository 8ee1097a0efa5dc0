package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// defaultKeyPrefix namespaces all cache keys in Redis to avoid collisions.
	defaultKeyPrefix = "mediafetch:"

	redisOpTimeout = 2 * time.Second
)

func init() {
	Register("redis", newRedisCache)
}

// redisCache implements Cache on Redis/Valkey with application-level LRU
// capacity. Every entry is its own string key so expiry relies on plain PX
// TTLs and works on any Redis version:
//
//   - {prefix}v:{key}: the cached value, written with SET PX.
//   - {prefix}lru: a sorted set of user keys scored by last access (µs).
//
// Lua scripts keep the value and its LRU score consistent. A member whose
// value has already expired is dropped from the set on the next Get miss or
// eviction pass, so Len can briefly over-count expired entries.
type redisCache struct {
	client      *redis.Client
	ttl         time.Duration
	maxSize     int
	onEvict     EvictCallback
	logger      Logger
	valuePrefix string // e.g. "mediafetch:v:"
	lruKey      string // e.g. "mediafetch:lru"
}

// getAndTouch returns the value and refreshes its LRU score, or prunes the
// LRU member when the value is gone.
//
// KEYS[1] = value key, KEYS[2] = LRU sorted set
// ARGV[1] = current µs timestamp, ARGV[2] = member (user key)
var getAndTouch = redis.NewScript(`
local val = redis.call('GET', KEYS[1])
if val then
    redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
else
    redis.call('ZREM', KEYS[2], ARGV[2])
end
return val
`)

// setAndEvict stores a value, records its access time and evicts the least
// recently used members beyond maxSize. Members whose value already expired
// are removed without being reported as evictions.
//
// KEYS[1] = value key, KEYS[2] = LRU sorted set
// ARGV[1] = value, ARGV[2] = current µs timestamp, ARGV[3] = member,
// ARGV[4] = maxSize, ARGV[5] = TTL in ms (0 = no expiry), ARGV[6] = value prefix
var setAndEvict = redis.NewScript(`
local ttlMs   = tonumber(ARGV[5])
local maxSize = tonumber(ARGV[4])

if ttlMs > 0 then
    redis.call('SET', KEYS[1], ARGV[1], 'PX', ttlMs)
else
    redis.call('SET', KEYS[1], ARGV[1])
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])

local size = redis.call('ZCARD', KEYS[2])
local evicted = {}
while size > maxSize do
    local oldest = redis.call('ZPOPMIN', KEYS[2], 1)
    if #oldest == 0 then break end
    local member = oldest[1]
    if redis.call('DEL', ARGV[6] .. member) == 1 then
        table.insert(evicted, member)
    end
    size = size - 1
end

return evicted
`)

// deleteEntry removes a value and its LRU member together.
//
// KEYS[1] = value key, KEYS[2] = LRU sorted set, ARGV[1] = member
var deleteEntry = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

func newRedisCache(cfg ProviderConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Verify connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := defaultKeyPrefix
	if cfg.KeyPrefix != "" {
		prefix = cfg.KeyPrefix
	}
	maxSize := cfg.Size
	if maxSize <= 0 {
		maxSize = defaultSize
	}
	return &redisCache{
		client:      client,
		ttl:         cfg.TTL,
		maxSize:     maxSize,
		onEvict:     cfg.OnEvict,
		logger:      cfg.Logger,
		valuePrefix: prefix + "v:",
		lruKey:      prefix + "lru",
	}, nil
}

func (r *redisCache) keys(key string) []string {
	return []string{r.valuePrefix + key, r.lruKey}
}

func (r *redisCache) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, err)
	}
}

func (r *redisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	result, err := getAndTouch.Run(ctx, r.client, r.keys(key), now, key).Text()
	if err != nil {
		// redis.Nil is a plain miss
		if !errors.Is(err, redis.Nil) {
			r.logError("redis cache Get failed", err)
		}
		return nil, false
	}
	return []byte(result), true
}

func (r *redisCache) Set(key string, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	maxSize := strconv.Itoa(r.maxSize)
	ttlMs := strconv.FormatInt(r.ttl.Milliseconds(), 10)

	evicted, err := setAndEvict.Run(ctx, r.client, r.keys(key),
		value, now, key, maxSize, ttlMs, r.valuePrefix,
	).StringSlice()
	if err != nil {
		r.logError("redis cache Set failed", err)
		return
	}

	if r.onEvict == nil {
		return
	}
	for _, evictedKey := range evicted {
		r.onEvict(evictedKey, nil)
	}
}

func (r *redisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := deleteEntry.Run(ctx, r.client, r.keys(key), key).Err(); err != nil {
		r.logError("redis cache Delete failed", err)
	}
}

func (r *redisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.ZCard(ctx, r.lruKey).Result()
	if err != nil {
		r.logError("redis cache Len failed", err)
		return 0
	}
	return int(n)
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
