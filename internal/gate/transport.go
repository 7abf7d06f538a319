package gate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/requirements"
)

// DefaultRouteRefreshInterval bounds how long the transport guard serves a
// route table before consulting the requirements provider again.
const DefaultRouteRefreshInterval = 30 * time.Second

// TransportGuardConfig holds the dependencies of a transport guard.
type TransportGuardConfig struct {
	Registry     *flags.Registry
	Requirements *requirements.Provider

	// Cache overrides the guard's private decision cache. When nil a cache
	// is created with CacheTTL.
	Cache    *DecisionCache
	CacheTTL time.Duration

	// RefreshInterval controls route table rebuilds. Defaults to
	// DefaultRouteRefreshInterval.
	RefreshInterval time.Duration

	Logger zerolog.Logger
}

// route is one (pattern, flag) gating rule in registration order.
type route struct {
	pattern        *Pattern
	flag           string
	discriminators requirements.DiscriminatorSet
	order          int
}

// TransportGuard evaluates transport-layer requirements against incoming
// requests. Path patterns are compiled once per template at registration,
// not re-parsed per request; the compiled table is rebuilt when the
// provider's snapshot refreshes.
//
// When the provider has never produced a snapshot the guard fails closed
// and denies every request it covers: availability of the guarded surface
// is sacrificed over risking an open gate.
type TransportGuard struct {
	registry        *flags.Registry
	provider        *requirements.Provider
	cache           *DecisionCache
	logger          zerolog.Logger
	refreshInterval time.Duration

	mu          sync.RWMutex
	compiled    map[string]*Pattern
	routes      []route
	refreshedAt time.Time
	degraded    bool
}

// NewTransportGuard creates a transport guard and compiles the initial
// route table. A malformed path pattern in the initial requirement set is a
// configuration error: the guard refuses to start rather than run with
// ambiguous rules. An unavailable provider is not fatal; the guard starts
// degraded and denies until a snapshot loads.
func NewTransportGuard(ctx context.Context, cfg TransportGuardConfig) (*TransportGuard, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("%w: flag registry is required", ErrConfiguration)
	}
	if cfg.Requirements == nil {
		return nil, fmt.Errorf("%w: requirements provider is required", ErrConfiguration)
	}

	cache := cfg.Cache
	if cache == nil {
		cache = NewDecisionCache(cfg.Registry, cfg.CacheTTL)
	}
	refreshInterval := cfg.RefreshInterval
	if refreshInterval == 0 {
		refreshInterval = DefaultRouteRefreshInterval
	}

	g := &TransportGuard{
		registry:        cfg.Registry,
		provider:        cfg.Requirements,
		cache:           cache,
		logger:          cfg.Logger,
		refreshInterval: refreshInterval,
		compiled:        make(map[string]*Pattern),
		degraded:        true,
	}

	set, err := cfg.Requirements.LayerSet(ctx, requirements.LayerTransport)
	if err != nil {
		g.logger.Error().Err(err).
			Msg("transport requirements unavailable at startup, guard starts fail-closed")
		return g, nil
	}

	if err := g.rebuild(set, true); err != nil {
		return nil, err
	}
	return g, nil
}

// Handle evaluates the transport requirements for one request. A nil return
// means the request passes; otherwise the denial names the flag, layer, and
// matched pattern for the collaborating transport layer to render.
func (g *TransportGuard) Handle(ctx context.Context, path, verb string, ec flags.EvalContext) *DeniedError {
	g.refresh(ctx)

	g.mu.RLock()
	degraded := g.degraded
	routes := g.routes
	g.mu.RUnlock()

	if degraded {
		return &DeniedError{
			Layer:         requirements.LayerTransport,
			Selector:      path,
			Discriminator: requirements.Wildcard,
			Reason:        "requirements unavailable",
		}
	}

	pattern, params := matchBest(routes, path)
	if pattern == nil {
		return nil
	}

	// Gather every flag gating the selected pattern.
	gating := make(map[string]requirements.DiscriminatorSet)
	for _, rt := range routes {
		if rt.pattern == pattern {
			gating[rt.flag] = rt.discriminators
		}
	}

	discriminator := transportDiscriminator(pattern, params, verb, vocabulary(gating))

	decision := g.cache.GetOrCompute(pattern.String(), discriminator, func() Decision {
		return evaluate(g.registry, gating, discriminator, ec)
	})

	if !decision.Allowed {
		return &DeniedError{
			Flag:          decision.Flag,
			Layer:         requirements.LayerTransport,
			Selector:      pattern.String(),
			Discriminator: discriminator,
		}
	}
	return nil
}

// refresh rebuilds the route table when the refresh interval has lapsed.
// Rebuild failures keep the previous table serving; malformed templates
// appearing after startup are skipped with a log rather than tearing down
// the running guard.
func (g *TransportGuard) refresh(ctx context.Context) {
	g.mu.RLock()
	stale := time.Since(g.refreshedAt) >= g.refreshInterval || g.degraded
	g.mu.RUnlock()
	if !stale {
		return
	}

	set, err := g.provider.LayerSet(ctx, requirements.LayerTransport)
	if err != nil {
		g.logger.Warn().Err(err).Msg("transport requirements refresh failed, keeping current routes")
		return
	}

	if err := g.rebuild(set, false); err != nil {
		g.logger.Error().Err(err).Msg("transport route rebuild failed, keeping current routes")
	}
}

// rebuild compiles the route table from a requirement set. In strict mode
// (construction) a malformed pattern is fatal; afterwards it is skipped.
func (g *TransportGuard) rebuild(set requirements.Set, strict bool) error {
	// Deterministic registration order: flag name, then template.
	flagNames := make([]string, 0, len(set))
	for name := range set {
		flagNames = append(flagNames, name)
	}
	sort.Strings(flagNames)

	g.mu.Lock()
	defer g.mu.Unlock()

	var routes []route
	order := 0
	for _, flagName := range flagNames {
		entry := set[flagName]
		templates := make([]string, 0, len(entry))
		for t := range entry {
			templates = append(templates, t)
		}
		sort.Strings(templates)

		for _, template := range templates {
			pattern, ok := g.compiled[template]
			if !ok {
				var err error
				pattern, err = CompilePattern(template)
				if err != nil {
					if strict {
						return fmt.Errorf("%w: %v", ErrConfiguration, err)
					}
					g.logger.Error().Err(err).
						Str("flag", flagName).
						Str("pattern", template).
						Msg("skipping malformed transport pattern")
					continue
				}
				g.compiled[template] = pattern
			}
			routes = append(routes, route{
				pattern:        pattern,
				flag:           flagName,
				discriminators: entry[template],
				order:          order,
			})
			order++
		}
	}

	g.routes = routes
	g.refreshedAt = time.Now()
	g.degraded = false
	return nil
}

// matchBest selects the most specific matching pattern. Routes are walked
// in registration order, and only a strictly more specific pattern replaces
// the current best, so ties between equally specific patterns resolve to
// the first registered.
func matchBest(routes []route, path string) (*Pattern, map[string]string) {
	var (
		best       *Pattern
		bestParams map[string]string
	)

	seen := make(map[*Pattern]struct{})
	for _, rt := range routes {
		if _, done := seen[rt.pattern]; done {
			continue
		}
		seen[rt.pattern] = struct{}{}

		params, ok := rt.pattern.Match(path)
		if !ok {
			continue
		}
		if best == nil || compareSpecificity(rt.pattern, best) < 0 {
			best, bestParams = rt.pattern, params
		}
	}

	return best, bestParams
}

// transportDiscriminator resolves the discriminator for a transport call:
// a bound path parameter whose value is in the requirement vocabulary wins,
// otherwise the HTTP verb.
func transportDiscriminator(pattern *Pattern, params map[string]string, verb string, vocab map[string]struct{}) string {
	for _, name := range pattern.paramNames() {
		value, ok := params[name]
		if !ok {
			continue
		}
		if _, known := vocab[value]; known {
			return value
		}
	}
	return strings.ToUpper(verb)
}
