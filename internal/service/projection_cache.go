package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/prop-edge/internal/metrics"
)

// ProjectionCache memoizes projection results for identical requests. Entries
// expire on the configured TTL; a line move produces a different key, so stale
// answers never shadow a fresh board.
type ProjectionCache struct {
	service Projector
	cache   *cache.Cache
	ttl     time.Duration

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewProjectionCache wraps a projector with an expiring in-memory cache
func NewProjectionCache(service Projector, ttl, cleanupInterval time.Duration) *ProjectionCache {
	if cleanupInterval <= 0 {
		cleanupInterval = ttl * 2
	}
	return &ProjectionCache{
		service: service,
		cache:   cache.New(ttl, cleanupInterval),
		ttl:     ttl,
	}
}

// Project returns the cached projection for the request, computing and
// storing it on a miss. Failed projections are never cached.
func (pc *ProjectionCache) Project(ctx context.Context, req ProjectionRequest) (*Projection, error) {
	key := projectionCacheKey(req)

	if cached, found := pc.cache.Get(key); found {
		if proj, ok := cached.(*Projection); ok {
			pc.recordHit()
			return proj, nil
		}
	}
	pc.recordMiss()

	proj, err := pc.service.Project(ctx, req)
	if err != nil {
		return nil, err
	}

	pc.cache.Set(key, proj, pc.ttl)
	return proj, nil
}

// Flush drops every cached projection and resets the counters
func (pc *ProjectionCache) Flush() {
	pc.cache.Flush()

	pc.mu.Lock()
	pc.hits = 0
	pc.misses = 0
	pc.mu.Unlock()
}

// Stats returns the hit/miss counters and the hit ratio
func (pc *ProjectionCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	hits = pc.hits
	misses = pc.misses
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of live cache entries
func (pc *ProjectionCache) ItemCount() int {
	return pc.cache.ItemCount()
}

func (pc *ProjectionCache) recordHit() {
	pc.mu.Lock()
	pc.hits++
	pc.mu.Unlock()
	metrics.RecordProjectionCacheHit()
}

func (pc *ProjectionCache) recordMiss() {
	pc.mu.Lock()
	pc.misses++
	pc.mu.Unlock()
	metrics.RecordProjectionCacheMiss()
}

// projectionCacheKey flattens a request into a stable cache key. Every field
// that can change the answer participates.
func projectionCacheKey(req ProjectionRequest) string {
	rest := "auto"
	if req.DaysRest != nil {
		rest = fmt.Sprintf("%d", *req.DaysRest)
	}
	odds := "line"
	if req.AmericanOdds != nil {
		odds = fmt.Sprintf("%d", *req.AmericanOdds)
	}
	return fmt.Sprintf("%s|%s|%s|%.2f|%s|%d|%s|%.4f|%s|%s",
		req.PlayerID,
		req.PlayerName,
		req.StatType,
		req.Line,
		req.GameDate.UTC().Format("2006-01-02"),
		req.Window,
		req.Method,
		req.Decay,
		rest,
		odds,
	)
}
