package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Belphemur/MediaFetch/internal/config"
)

// defaultSize is used when a provider is configured without a capacity.
const defaultSize = 256

// ProviderConfig holds the configuration needed to create a cache instance.
type ProviderConfig struct {
	Size int
	TTL  time.Duration

	// OnEvict is not supported by every provider.
	OnEvict EvictCallback
	// Logger receives errors Get/Set/Delete cannot return. Optional.
	Logger Logger

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces keys so several logical caches can share a
	// provider. Redis falls back to "mediafetch:" when empty.
	KeyPrefix string

	// Group labels the cache metrics. An empty group disables them.
	Group string
}

// Provider is a constructor function that creates a Cache from config.
type Provider func(cfg ProviderConfig) (Cache, error)

type registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

var providers = &registry{providers: make(map[string]Provider)}

func (r *registry) add(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		panic("cache: Register provider is nil")
	}
	if _, exists := r.providers[name]; exists {
		panic(fmt.Sprintf("cache: provider %q already registered", name))
	}
	r.providers[name] = p
}

func (r *registry) get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register makes a provider available to New. It panics on a nil provider
// or a duplicate name.
func Register(name string, p Provider) {
	providers.add(name, p)
}

// RegisteredProviders returns the provider names, sorted.
func RegisteredProviders() []string {
	return providers.names()
}

// New creates a cache with the named provider. A non-empty cfg.Group wraps
// it with metrics.
func New(name string, cfg ProviderConfig) (Cache, error) {
	p, ok := providers.get(name)
	if !ok {
		return nil, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	if cfg.Group == "" {
		return p(cfg)
	}

	group, onEvict := cfg.Group, cfg.OnEvict
	cfg.OnEvict = func(key string, value []byte) {
		EvictionsTotal.WithLabelValues(group).Inc()
		if onEvict != nil {
			onEvict(key, value)
		}
	}
	inner, err := p(cfg)
	if err != nil {
		return nil, err
	}
	return newMeteredCache(inner, group), nil
}

// NewFromConfig creates the cache described by the "cache" section of the
// loaded configuration, namespaced under keyPrefix.
func NewFromConfig(keyPrefix string) (Cache, error) {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	provider := cfg.Cache.Provider
	if provider == "" {
		provider = "memory"
	}
	c, err := New(provider, ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           config.Duration("cache.ttl", cfg.Cache.TTL, time.Hour),
		Logger:        NewZerologLogger(logger),
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		KeyPrefix:     keyPrefix,
		Group:         cfg.Cache.Group,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", provider, err)
	}
	logger.Info().Str("provider", provider).Str("group", cfg.Cache.Group).Str("prefix", keyPrefix).Int("size", cfg.Cache.Size).Msg("Metadata cache initialized")
	return c, nil
}
