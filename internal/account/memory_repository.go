package account

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository for testing.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewInMemoryRepository creates a new in-memory account repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{accounts: make(map[string]*Account)}
}

// Create creates a new account.
func (r *InMemoryRepository) Create(ctx context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

// GetByUserAndID retrieves an account by user ID and account ID.
func (r *InMemoryRepository) GetByUserAndID(ctx context.Context, userID, accountID string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

// List retrieves all accounts for a user ordered by name.
func (r *InMemoryRepository) List(ctx context.Context, userID string) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Account
	for _, a := range r.accounts {
		if a.UserID == userID {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update updates an existing account.
func (r *InMemoryRepository) Update(ctx context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[account.ID]
	if !ok || existing.UserID != account.UserID {
		return ErrAccountNotFound
	}
	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = time.Now()
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

// Delete deletes an account by user ID and account ID.
func (r *InMemoryRepository) Delete(ctx context.Context, userID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[accountID]
	if !ok || existing.UserID != userID {
		return ErrAccountNotFound
	}
	delete(r.accounts, accountID)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
