package suggest

import (
	"math"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// PrefixCache keeps the results of recent prefix queries. Entries are
// evicted least recently used first. Safe for concurrent use.
type PrefixCache struct {
	results     map[string][]Suggestion
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	maxEntries  int
	mu          sync.Mutex
}

// NewPrefixCache creates a cache holding at most maxEntries prefixes.
func NewPrefixCache(maxEntries int) *PrefixCache {
	return &PrefixCache{
		results:    make(map[string][]Suggestion, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached result for key.
func (pc *PrefixCache) Get(key string) ([]Suggestion, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	res, ok := pc.results[key]
	if !ok {
		return nil, false
	}
	pc.hits++
	pc.markAccessed(key)
	return slices.Clone(res), true
}

// Put stores a copy of res under key.
func (pc *PrefixCache) Put(key string, res []Suggestion) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if _, exists := pc.results[key]; !exists && len(pc.results) >= pc.maxEntries {
		pc.evictLRU()
	}
	pc.results[key] = slices.Clone(res)
	pc.markAccessed(key)
}

// Stats returns cache size and hit counters.
func (pc *PrefixCache) Stats() map[string]int {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	return map[string]int{
		"hotPrefixes":    len(pc.results),
		"maxHotPrefixes": pc.maxEntries,
		"hotPrefixHits":  int(pc.hits),
	}
}

func (pc *PrefixCache) markAccessed(key string) {
	pc.accessCount++
	pc.accessTime[key] = pc.accessCount
}

func (pc *PrefixCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, accessTime := range pc.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(pc.results, oldestKey)
		delete(pc.accessTime, oldestKey)
		log.Debugf("Evicted prefix %q from hot cache", oldestKey)
	}
}
