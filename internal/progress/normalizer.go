// Package progress turns backend download events into a bounded, monotonic
// percentage on a 10% grid.
package progress

import "sync"

// EventKind classifies a backend progress event.
type EventKind int

const (
	// EventOther covers every event the normalizer ignores.
	EventOther EventKind = iota
	// EventDownloading carries byte counts for an active transfer.
	EventDownloading
	// EventFinished marks the end of a transfer.
	EventFinished
)

// Event is a backend-neutral progress event. Total is zero when the backend
// does not know the size.
type Event struct {
	Kind       EventKind
	Downloaded int64
	Total      int64
}

// Observer receives progress events. Implementations must be safe to call
// from the goroutine running the backend.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// BucketSize is the progress granularity in percent.
const BucketSize = 10

// Normalizer holds the last reported bucket for one download. A new instance
// must be created per item.
type Normalizer struct {
	mu       sync.Mutex
	bucket   int
	onChange func(bucket int)
}

// NewNormalizer returns a Normalizer calling onChange each time the bucket
// advances. onChange may be nil.
func NewNormalizer(onChange func(bucket int)) *Normalizer {
	return &Normalizer{onChange: onChange}
}

// OnEvent implements Observer.
func (n *Normalizer) OnEvent(e Event) {
	var next int
	switch e.Kind {
	case EventDownloading:
		if e.Total <= 0 || e.Downloaded < 0 {
			return
		}
		next = Bucket(e.Downloaded, e.Total)
	case EventFinished:
		next = 100
	default:
		return
	}

	n.mu.Lock()
	advanced := false
	if next > n.bucket {
		n.bucket = next
		advanced = true
	}
	cb := n.onChange
	n.mu.Unlock()

	if advanced && cb != nil {
		cb(next)
	}
}

// Current returns the last reported bucket.
func (n *Normalizer) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bucket
}

// Bucket maps a byte count onto the 10% grid: floor percent rounded up to the
// next multiple of BucketSize, clamped to [0,100]. total must be positive.
func Bucket(downloaded, total int64) int {
	pct := int(downloaded * 100 / total)
	if r := pct % BucketSize; r != 0 {
		pct += BucketSize - r
	}
	return max(0, min(pct, 100))
}
