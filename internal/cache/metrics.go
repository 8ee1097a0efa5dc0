package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics carry a "cache" label set from ProviderConfig.Group.
var (
	// LookupsTotal counts Get calls by result ("hit" or "miss").
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_cache_lookups_total",
			Help: "Cache lookups by result.",
		},
		[]string{"cache", "result"},
	)

	// EvictionsTotal counts entries dropped for capacity, expiry or removal.
	EvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_cache_evictions_total",
			Help: "Entries evicted from the cache.",
		},
		[]string{"cache"},
	)

	// ValueBytes observes the size of every stored value. Metadata of long
	// playlists is the large end of this distribution.
	ValueBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediafetch_cache_value_bytes",
			Help:    "Size of values written to the cache.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"cache"},
	)
)

func init() {
	prometheus.MustRegister(LookupsTotal, EvictionsTotal, ValueBytes)
}

// entryGauges keeps one scrape-time entries gauge per cache group. Reading
// Len at scrape time stays correct when Redis expires keys on its own.
type entryGauges struct {
	mu      sync.Mutex
	reg     prometheus.Registerer
	byGroup map[string]prometheus.Collector
}

func newEntryGauges(reg prometheus.Registerer) *entryGauges {
	return &entryGauges{reg: reg, byGroup: make(map[string]prometheus.Collector)}
}

var gauges = newEntryGauges(prometheus.DefaultRegisterer)

// track replaces any gauge already registered for group.
func (g *entryGauges) track(group string, size func() int) {
	gauge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "mediafetch_cache_entries",
			Help:        "Current number of entries in the cache.",
			ConstLabels: prometheus.Labels{"cache": group},
		},
		func() float64 { return float64(size()) },
	)

	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.byGroup[group]; ok {
		g.reg.Unregister(old)
	}
	g.byGroup[group] = gauge
	_ = g.reg.Register(gauge)
}

func (g *entryGauges) untrack(group string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.byGroup[group]; ok {
		g.reg.Unregister(old)
		delete(g.byGroup, group)
	}
}

func (g *entryGauges) tracked(group string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.byGroup[group]
	return ok
}
