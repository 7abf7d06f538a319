package gate

import (
	"sync"
	"time"

	"github.com/billgate/billgate/internal/flags"
)

// DefaultDecisionTTL bounds how long a decision is served when the registry
// version never changes.
const DefaultDecisionTTL = 30 * time.Second

// Decision is a memoized permission outcome for one (selector,
// discriminator) pair. Decisions are recomputed, never mutated in place.
type Decision struct {
	Selector          string
	Discriminator     string
	Allowed           bool
	Flag              string // denying flag when not allowed
	ComputedAtVersion uint64
	ExpiresAt         time.Time
}

type cacheKey struct {
	selector      string
	discriminator string
}

// DecisionCache memoizes permission decisions scoped by the registry
// version they were computed at. An entry is served only while its TTL has
// not lapsed AND it was computed at the registry's current version; the
// version check guarantees a flag flip is observed on the very next call
// after the flip, while the TTL bounds cost when the version never changes.
//
// Concurrent callers may recompute redundantly on a miss; recomputation is
// cheap and idempotent, so last write wins without a single-flight lock.
// The cache is purely a performance optimization and safe to discard at any
// time.
type DecisionCache struct {
	registry *flags.Registry
	ttl      time.Duration

	mu      sync.RWMutex
	entries map[cacheKey]Decision
}

// NewDecisionCache creates a decision cache bound to the given registry's
// version counter.
func NewDecisionCache(registry *flags.Registry, ttl time.Duration) *DecisionCache {
	if ttl == 0 {
		ttl = DefaultDecisionTTL
	}
	return &DecisionCache{
		registry: registry,
		ttl:      ttl,
		entries:  make(map[cacheKey]Decision),
	}
}

// GetOrCompute returns the cached decision for (selector, discriminator)
// when fresh, otherwise recomputes via compute and stores the result.
//
// The registry version is captured before compute runs: if a flag flips
// mid-computation, the stored entry carries the pre-flip version and the
// next lookup recomputes, so no decision can outlive the state it was
// derived from.
func (c *DecisionCache) GetOrCompute(selector, discriminator string, compute func() Decision) Decision {
	key := cacheKey{selector: selector, discriminator: discriminator}
	version := c.registry.CurrentVersion()

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && cached.ComputedAtVersion == version && time.Now().Before(cached.ExpiresAt) {
		return cached
	}

	decision := compute()
	decision.Selector = selector
	decision.Discriminator = discriminator
	decision.ComputedAtVersion = version
	decision.ExpiresAt = time.Now().Add(c.ttl)

	c.mu.Lock()
	c.entries[key] = decision
	c.mu.Unlock()

	return decision
}

// Purge discards every cached decision. Correctness never depends on cache
// contents, so purging is safe at any point.
func (c *DecisionCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]Decision)
}

// Len returns the number of cached decisions.
func (c *DecisionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
