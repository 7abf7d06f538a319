package requirements

import (
	"context"
	"sync"
)

// MemorySource is an in-memory Source for tests and static configuration.
type MemorySource struct {
	mu     sync.RWMutex
	layers map[Layer]Set
	err    error
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{layers: make(map[Layer]Set)}
}

// Load returns the requirement set for a layer.
func (s *MemorySource) Load(ctx context.Context, layer Layer) (Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}

	set, ok := s.layers[layer]
	if !ok {
		return Set{}, nil
	}
	// Copy so callers can't mutate the source's view.
	out := make(Set, len(set))
	for flag, entry := range set {
		e := make(Entry, len(entry))
		for selector, discs := range entry {
			copied := make(DiscriminatorSet, len(discs))
			for d := range discs {
				copied[d] = struct{}{}
			}
			e[selector] = copied
		}
		out[flag] = e
	}
	return out, nil
}

// Require declares that flag gates selector for the given discriminators
// under layer. No discriminators means the wildcard.
func (s *MemorySource) Require(layer Layer, flag, selector string, discriminators ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.layers[layer]
	if !ok {
		set = Set{}
		s.layers[layer] = set
	}
	entry, ok := set[flag]
	if !ok {
		entry = Entry{}
		set[flag] = entry
	}
	if len(discriminators) == 0 {
		discriminators = []string{Wildcard}
	}
	entry[selector] = NewDiscriminatorSet(discriminators...)
}

// Clear removes every requirement.
func (s *MemorySource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = make(map[Layer]Set)
}

// Fail makes every subsequent Load return err; nil restores normal operation.
func (s *MemorySource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Ensure MemorySource implements Source interface.
var _ Source = (*MemorySource)(nil)
