// Package requirements supplies, per flag and per layer, the selectors and
// discriminator values the flag gates. The engine treats this mapping as
// read-only configuration sourced from a possibly-slow backing store.
package requirements

// Layer identifies which interception layer a requirement applies to.
type Layer string

// Guarded layers.
const (
	LayerRepository Layer = "repository"
	LayerService    Layer = "service"
	LayerTransport  Layer = "transport"
)

// Wildcard means "any discriminator requires this flag". For a transport
// requirement the discriminator values are HTTP verbs; for repository and
// service requirements they are entity subtypes.
const Wildcard = "*"

// DiscriminatorSet is the set of discriminator values a requirement gates,
// or the wildcard.
type DiscriminatorSet map[string]struct{}

// NewDiscriminatorSet builds a set from its values.
func NewDiscriminatorSet(values ...string) DiscriminatorSet {
	s := make(DiscriminatorSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether the set gates the given discriminator, either by
// exact membership or via the wildcard.
func (s DiscriminatorSet) Contains(d string) bool {
	if _, ok := s[Wildcard]; ok {
		return true
	}
	_, ok := s[d]
	return ok
}

// Values returns the set's members in unspecified order.
func (s DiscriminatorSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// Entry maps a selector (method name or path pattern) to the discriminators
// the owning flag gates for it.
type Entry map[string]DiscriminatorSet

// Set is the full requirement mapping for one layer: flag name to Entry.
// An Entry may reference a flag absent from the registry; that is resolved
// by policy at evaluation time (deny), not rejected at load time.
type Set map[string]Entry
