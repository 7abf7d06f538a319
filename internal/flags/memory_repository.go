package flags

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository for testing.
type InMemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{flags: make(map[string]Flag)}
}

// NewInMemoryRepositoryWithFlags creates a new in-memory repository seeded
// with initial flags.
func NewInMemoryRepositoryWithFlags(initial []Flag) *InMemoryRepository {
	repo := NewInMemoryRepository()
	for _, f := range initial {
		repo.flags[f.Name] = f
	}
	return repo
}

// GetFlag retrieves a single feature flag by name.
func (r *InMemoryRepository) GetFlag(ctx context.Context, name string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.flags[name]
	if !ok {
		return nil, ErrFlagNotFound
	}
	return &f, nil
}

// GetAllFlags retrieves all feature flags.
func (r *InMemoryRepository) GetAllFlags(ctx context.Context) ([]Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Flag, 0, len(r.flags))
	for _, f := range r.flags {
		out = append(out, f)
	}
	return out, nil
}

// SetFlag creates or updates a feature flag.
func (r *InMemoryRepository) SetFlag(ctx context.Context, flag *Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	flag.UpdatedAt = time.Now()
	r.flags[flag.Name] = *flag
	return nil
}

// SetFlags creates or updates multiple feature flags.
func (r *InMemoryRepository) SetFlags(ctx context.Context, all []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, flag := range all {
		flag.UpdatedAt = now
		r.flags[flag.Name] = *flag
	}
	return nil
}

// DeleteFlag removes a feature flag by name.
func (r *InMemoryRepository) DeleteFlag(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flags, name)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
