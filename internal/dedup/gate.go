// Package dedup suppresses redelivered notification events within a bounded
// time window. The gate is a best-effort, latency-saving front: the durable
// idempotency boundary stays in the conditional state transitions, so a lost
// gate entry can never cause a double apply, only a wasted guard check.
package dedup

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Key identifies one logical event. EventAt is the event's own timestamp, not
// wall-clock: the same actor may legitimately repeat an action later, while a
// redelivery of the same event carries the same timestamp.
type Key struct {
	ActorID string
	Action  string
	EventAt time.Time
}

func (k Key) String() string {
	return k.ActorID + ":" + k.Action + ":" + strconv.FormatInt(k.EventAt.UnixMilli(), 10)
}

type Gate interface {
	// ShouldProcess records the key and reports whether the event is novel.
	// Record-then-process: the key is claimed before the caller runs, closing
	// the race between two near-simultaneous deliveries.
	ShouldProcess(ctx context.Context, k Key) (bool, error)
}

// MemoryGate is a single-process TTL map. Constructed once at process start
// and injected, so a multi-instance deployment can swap in RedisGate without
// touching business logic.
type MemoryGate struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	seen       map[string]time.Time

	now func() time.Time // test seam
}

const (
	DefaultTTL        = 60 * time.Second
	defaultMaxEntries = 10_000
)

func NewMemoryGate(ttl time.Duration, maxEntries int) *MemoryGate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryGate{
		ttl:        ttl,
		maxEntries: maxEntries,
		seen:       map[string]time.Time{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (g *MemoryGate) ShouldProcess(_ context.Context, k Key) (bool, error) {
	key := k.String()
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if first, ok := g.seen[key]; ok && now.Sub(first) < g.ttl {
		return false, nil
	}
	g.seen[key] = now
	if len(g.seen) > g.maxEntries {
		g.sweepLocked(now)
	}
	return true, nil
}

// Sweep evicts expired entries; callers may run it on a ticker to bound memory
// between bursts.
func (g *MemoryGate) Sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked(g.now())
}

func (g *MemoryGate) sweepLocked(now time.Time) {
	for key, first := range g.seen {
		if now.Sub(first) >= g.ttl {
			delete(g.seen, key)
		}
	}
}

// Len reports the number of tracked keys.
func (g *MemoryGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
