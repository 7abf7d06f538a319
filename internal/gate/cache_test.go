package gate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/gate"
)

func countingCompute(calls *int, allowed bool) func() gate.Decision {
	return func() gate.Decision {
		*calls++
		return gate.Decision{Allowed: allowed}
	}
}

func TestDecisionCache_ServesFreshEntry(t *testing.T) {
	registry := flags.NewRegistry()
	cache := gate.NewDecisionCache(registry, time.Minute)

	calls := 0
	first := cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))
	second := cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))

	assert.Equal(t, 1, calls)
	assert.True(t, first.Allowed)
	assert.Equal(t, first.ComputedAtVersion, second.ComputedAtVersion)
	assert.Equal(t, "create_account", second.Selector)
	assert.Equal(t, "credit", second.Discriminator)
	assert.Equal(t, 1, cache.Len())
}

func TestDecisionCache_KeyedByDiscriminator(t *testing.T) {
	registry := flags.NewRegistry()
	cache := gate.NewDecisionCache(registry, time.Minute)

	calls := 0
	cache.GetOrCompute("create_account", "credit", countingCompute(&calls, false))
	cache.GetOrCompute("create_account", "savings", countingCompute(&calls, true))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, cache.Len())
}

func TestDecisionCache_VersionBumpInvalidates(t *testing.T) {
	registry := flags.NewRegistry()
	cache := gate.NewDecisionCache(registry, time.Minute)

	calls := 0
	cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))
	require.Equal(t, 1, calls)

	registry.Apply(flags.Flag{Name: "banking_v2", Kind: flags.KindBoolean, Enabled: true})

	cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))
	assert.Equal(t, 2, calls, "a flag flip must force recomputation on the next call")
}

func TestDecisionCache_TTLExpiry(t *testing.T) {
	registry := flags.NewRegistry()
	cache := gate.NewDecisionCache(registry, time.Millisecond)

	calls := 0
	cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))
	time.Sleep(5 * time.Millisecond)
	cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))

	assert.Equal(t, 2, calls)
}

func TestDecisionCache_VersionCapturedBeforeCompute(t *testing.T) {
	registry := flags.NewRegistry()
	cache := gate.NewDecisionCache(registry, time.Minute)

	// Flip a flag while the first computation is in flight. The stored
	// entry carries the pre-flip version, so the next lookup recomputes.
	calls := 0
	cache.GetOrCompute("create_account", "credit", func() gate.Decision {
		calls++
		registry.Apply(flags.Flag{Name: "banking_v2", Kind: flags.KindBoolean, Enabled: true})
		return gate.Decision{Allowed: true}
	})
	cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))

	assert.Equal(t, 2, calls, "entry computed against a stale version must not be served")
}

func TestDecisionCache_Purge(t *testing.T) {
	registry := flags.NewRegistry()
	cache := gate.NewDecisionCache(registry, time.Minute)

	calls := 0
	cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))
	cache.GetOrCompute("mark_paid", "subscription", countingCompute(&calls, false))
	require.Equal(t, 2, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())

	cache.GetOrCompute("create_account", "credit", countingCompute(&calls, true))
	assert.Equal(t, 3, calls)
}

func TestDecisionCache_DefaultTTL(t *testing.T) {
	registry := flags.NewRegistry()
	cache := gate.NewDecisionCache(registry, 0)

	decision := cache.GetOrCompute("create_account", "credit", func() gate.Decision {
		return gate.Decision{Allowed: true}
	})
	assert.True(t, decision.ExpiresAt.After(time.Now().Add(20*time.Second)))
}
