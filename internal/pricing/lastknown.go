package pricing

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type cachedPrice struct {
	At    time.Time
	Price float64
}

// LastKnown remembers the most recent hub price per hub across refresh cycles.
// Entries expire after ttl so a long outage does not serve a stale price forever.
type LastKnown struct {
	mu    sync.Mutex
	store *cache.Cache
}

func NewLastKnown(ttl time.Duration) *LastKnown {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LastKnown{store: cache.New(ttl, 2*ttl)}
}

// Get returns the cached price for hub.
func (l *LastKnown) Get(hub string) (float64, time.Time, bool) {
	if l == nil {
		return 0, time.Time{}, false
	}
	v, ok := l.store.Get(hub)
	if !ok {
		return 0, time.Time{}, false
	}
	cp := v.(cachedPrice)
	return cp.Price, cp.At, true
}

// Observe records a price seen at instant at. Older observations never replace newer ones.
func (l *LastKnown) Observe(hub string, at time.Time, price float64) {
	if l == nil || hub == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.store.Get(hub); ok && v.(cachedPrice).At.After(at) {
		return
	}
	l.store.SetDefault(hub, cachedPrice{At: at, Price: price})
}
