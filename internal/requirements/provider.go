package requirements

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ProviderConfig holds configuration for the requirements provider.
type ProviderConfig struct {
	Source Source
	Logger zerolog.Logger

	// TTL bounds how long a layer snapshot is served before the source is
	// consulted again. Requirement shapes change far less often than flag
	// state, so this is independent of (and typically much longer than)
	// the decision cache TTL. Default: 5 minutes.
	TTL time.Duration

	// MaxRetries bounds the retry attempts per load. Default: 3.
	MaxRetries uint64

	// InitialInterval is the initial retry backoff. Default: 50ms.
	InitialInterval time.Duration
}

// Provider serves requirement lookups from per-layer snapshots of the
// backing source. Loads are retried with bounded exponential backoff behind
// a circuit breaker; on failure the last-known-good snapshot keeps serving,
// and only when none exists does a lookup surface ErrUnavailable.
type Provider struct {
	source          Source
	logger          zerolog.Logger
	ttl             time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	breaker         *gobreaker.CircuitBreaker[Set]

	mu        sync.RWMutex
	snapshots map[Layer]*snapshot
}

// snapshot is one layer's cached requirement set plus a reverse index from
// selector to the flags gating it.
type snapshot struct {
	byFlag     Set
	bySelector map[string]map[string]DiscriminatorSet // selector -> flag -> set
	loadedAt   time.Time
}

// NewProvider creates a requirements provider over the given source.
func NewProvider(cfg ProviderConfig) *Provider {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	initialInterval := cfg.InitialInterval
	if initialInterval == 0 {
		initialInterval = 50 * time.Millisecond
	}

	breaker := gobreaker.NewCircuitBreaker[Set](gobreaker.Settings{
		Name:    "requirements-source",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	})

	return &Provider{
		source:          cfg.Source,
		logger:          cfg.Logger,
		ttl:             ttl,
		maxRetries:      maxRetries,
		initialInterval: initialInterval,
		breaker:         breaker,
		snapshots:       make(map[Layer]*snapshot),
	}
}

// Get returns the requirement entry for a flag under a layer. The entry may
// be empty when the flag declares no selectors there.
func (p *Provider) Get(ctx context.Context, flagName string, layer Layer) (Entry, error) {
	snap, err := p.layerSnapshot(ctx, layer)
	if err != nil {
		return nil, err
	}
	return snap.byFlag[flagName], nil
}

// ForSelector returns every flag gating the given selector under a layer,
// with the discriminator set each declares. An empty map means the selector
// is ungated.
func (p *Provider) ForSelector(ctx context.Context, layer Layer, selector string) (map[string]DiscriminatorSet, error) {
	snap, err := p.layerSnapshot(ctx, layer)
	if err != nil {
		return nil, err
	}
	return snap.bySelector[selector], nil
}

// LayerSet returns the full requirement set for a layer.
func (p *Provider) LayerSet(ctx context.Context, layer Layer) (Set, error) {
	snap, err := p.layerSnapshot(ctx, layer)
	if err != nil {
		return nil, err
	}
	return snap.byFlag, nil
}

// Invalidate discards all cached snapshots, forcing a reload on next access.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = make(map[Layer]*snapshot)
}

// layerSnapshot returns a fresh-enough snapshot for the layer, loading from
// the source when the TTL has lapsed. A failed reload falls back to the
// stale snapshot rather than erroring: serving known-stale requirements is
// preferred over dropping the gate configuration entirely.
func (p *Provider) layerSnapshot(ctx context.Context, layer Layer) (*snapshot, error) {
	p.mu.RLock()
	snap, ok := p.snapshots[layer]
	p.mu.RUnlock()
	if ok && time.Since(snap.loadedAt) < p.ttl {
		return snap, nil
	}

	set, err := p.load(ctx, layer)
	if err != nil {
		if ok {
			p.logger.Warn().Err(err).Str("layer", string(layer)).
				Msg("requirements reload failed, serving last-known-good snapshot")
			return snap, nil
		}
		p.logger.Error().Err(err).Str("layer", string(layer)).
			Msg("requirements unavailable and no snapshot exists")
		return nil, ErrUnavailable
	}

	next := buildSnapshot(set)
	p.mu.Lock()
	p.snapshots[layer] = next
	p.mu.Unlock()
	return next, nil
}

// load fetches a layer's set through the circuit breaker with bounded
// exponential backoff.
func (p *Provider) load(ctx context.Context, layer Layer) (Set, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.initialInterval
	bo.MaxElapsedTime = 0

	var set Set
	operation := func() error {
		result, err := p.breaker.Execute(func() (Set, error) {
			return p.source.Load(ctx, layer)
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		set = result
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, p.maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return set, nil
}

func buildSnapshot(set Set) *snapshot {
	bySelector := make(map[string]map[string]DiscriminatorSet)
	for flag, entry := range set {
		for selector, discs := range entry {
			flagsFor, ok := bySelector[selector]
			if !ok {
				flagsFor = make(map[string]DiscriminatorSet)
				bySelector[selector] = flagsFor
			}
			flagsFor[flag] = discs
		}
	}
	return &snapshot{
		byFlag:     set,
		bySelector: bySelector,
		loadedAt:   time.Now(),
	}
}
