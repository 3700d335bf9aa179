package entropy

import (
	"encoding/hex"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"

	"github.com/debtmap-go/debtmap/internal/model"
)

// Cache memoizes Score by a content hash of the token stream, per spec
// §4.5 and §5 (per-process, content-addressed, hit-rate observable).
// A disabled cache behaves as a pass-through so the core's "disabling
// caches must yield identical results" guarantee holds trivially.
// Safe for concurrent use: the pipeline runs AnalyzeFile across files
// in parallel and all of them share one Cache.
type Cache struct {
	mu      sync.Mutex
	lru     *lru.Cache[string, Score]
	enabled bool
	hits    int
	misses  int
}

// NewCache builds an LRU-backed entropy cache with the given capacity.
// capacity<=0 disables caching.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		return &Cache{enabled: false}
	}
	c, err := lru.New[string, Score](capacity)
	if err != nil {
		return &Cache{enabled: false}
	}
	return &Cache{lru: c, enabled: true}
}

// Key hashes a token stream into a stable, content-addressed cache key.
func Key(tokens []model.Token) string {
	h := blake3.New()
	for _, t := range tokens {
		h.Write([]byte{byte(t.Kind)})
		h.Write([]byte(t.Lexeme))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GetOrCompute returns the cached Score for key, computing and storing
// it via compute when absent.
func (c *Cache) GetOrCompute(key string, compute func() Score) Score {
	if !c.enabled {
		return compute()
	}
	c.mu.Lock()
	v, ok := c.lru.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	if ok {
		return v
	}

	v = compute()
	c.mu.Lock()
	c.lru.Add(key, v)
	c.mu.Unlock()
	return v
}

// HitRate returns the fraction of lookups served from cache, or 0 when
// no lookups have occurred yet.
func (c *Cache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
