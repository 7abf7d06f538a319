package gate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/requirements"
)

// GuardConfig holds the dependencies and the enumerated selector set a
// guard is constructed against.
type GuardConfig struct {
	// Layer is the requirements layer this guard queries.
	Layer requirements.Layer

	// Selectors enumerates the guarded method names. A guard never
	// discovers selectors dynamically; a call for a selector outside this
	// set is treated as an internal fault and fails closed.
	Selectors []string

	Registry     *flags.Registry
	Requirements *requirements.Provider

	// Cache overrides the guard's private decision cache. When nil a cache
	// is created with CacheTTL.
	Cache    *DecisionCache
	CacheTTL time.Duration

	Logger zerolog.Logger
}

// Guard is the generic interception primitive. A layer specialization wraps
// a target and calls Authorize before delegating each guarded method.
type Guard struct {
	layer        requirements.Layer
	selectors    map[string]struct{}
	registry     *flags.Registry
	requirements *requirements.Provider
	cache        *DecisionCache
	logger       zerolog.Logger
}

// NewGuard creates a layer guard. The selector set, registry, and provider
// are required; a missing piece is a configuration error.
func NewGuard(cfg GuardConfig) (*Guard, error) {
	if cfg.Layer == "" {
		return nil, fmt.Errorf("%w: layer is required", ErrConfiguration)
	}
	if len(cfg.Selectors) == 0 {
		return nil, fmt.Errorf("%w: at least one guarded selector is required", ErrConfiguration)
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("%w: flag registry is required", ErrConfiguration)
	}
	if cfg.Requirements == nil {
		return nil, fmt.Errorf("%w: requirements provider is required", ErrConfiguration)
	}

	selectors := make(map[string]struct{}, len(cfg.Selectors))
	for _, s := range cfg.Selectors {
		if s == "" {
			return nil, fmt.Errorf("%w: empty selector name", ErrConfiguration)
		}
		selectors[s] = struct{}{}
	}

	cache := cfg.Cache
	if cache == nil {
		cache = NewDecisionCache(cfg.Registry, cfg.CacheTTL)
	}

	return &Guard{
		layer:        cfg.Layer,
		selectors:    selectors,
		registry:     cfg.Registry,
		requirements: cfg.Requirements,
		cache:        cache,
		logger:       cfg.Logger,
	}, nil
}

// Layer returns the guard's layer.
func (g *Guard) Layer() requirements.Layer {
	return g.layer
}

// Authorize evaluates the requirements gating the call's selector and
// returns nil when the call may proceed, or a *DeniedError naming the
// denying flag, layer, and selector.
//
// Evaluation faults never escape into the caller's normal error path: a
// panic during extraction or lookup degrades to a fail-closed denial with
// diagnostic logging. A broken policy evaluation can only make the system
// more restrictive, never silently permissive.
func (g *Guard) Authorize(ctx context.Context, call Call) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error().
				Interface("panic", rec).
				Str("layer", string(g.layer)).
				Str("selector", call.Selector).
				Msg("gate evaluation panicked, failing closed")
			err = &DeniedError{
				Layer:         g.layer,
				Selector:      call.Selector,
				Discriminator: requirements.Wildcard,
				Reason:        "internal gate fault",
			}
		}
	}()

	if _, ok := g.selectors[call.Selector]; !ok {
		g.logger.Error().
			Str("layer", string(g.layer)).
			Str("selector", call.Selector).
			Msg("call for selector outside the guarded set, failing closed")
		return &DeniedError{
			Layer:         g.layer,
			Selector:      call.Selector,
			Discriminator: requirements.Wildcard,
			Reason:        "selector not declared to guard",
		}
	}

	gating, reqErr := g.requirements.ForSelector(ctx, g.layer, call.Selector)
	if reqErr != nil {
		g.logger.Error().Err(reqErr).
			Str("layer", string(g.layer)).
			Str("selector", call.Selector).
			Msg("requirements unavailable, failing closed")
		return &DeniedError{
			Layer:         g.layer,
			Selector:      call.Selector,
			Discriminator: requirements.Wildcard,
			Reason:        "requirements unavailable",
		}
	}

	// Ungated selector: delegate untouched.
	if len(gating) == 0 {
		return nil
	}

	discriminator := call.discriminator(vocabulary(gating))

	decision := g.cache.GetOrCompute(call.Selector, discriminator, func() Decision {
		return evaluate(g.registry, gating, discriminator, call.Context)
	})

	if !decision.Allowed {
		return &DeniedError{
			Flag:          decision.Flag,
			Layer:         g.layer,
			Selector:      call.Selector,
			Discriminator: discriminator,
		}
	}
	return nil
}

// evaluate checks every flag gating the discriminator, in deterministic
// name order. A flag absent from the registry evaluates to not-enabled, so
// a requirement referencing an unconfigured flag denies rather than erring.
func evaluate(registry *flags.Registry, gating map[string]requirements.DiscriminatorSet, discriminator string, ec flags.EvalContext) Decision {
	names := make([]string, 0, len(gating))
	for name := range gating {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !gating[name].Contains(discriminator) {
			continue
		}
		if !registry.IsEnabled(name, ec) {
			return Decision{Allowed: false, Flag: name}
		}
	}
	return Decision{Allowed: true}
}
