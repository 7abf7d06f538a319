package bill

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository for testing.
type InMemoryRepository struct {
	mu    sync.RWMutex
	bills map[string]*Bill
}

// NewInMemoryRepository creates a new in-memory bill repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{bills: make(map[string]*Bill)}
}

// Create creates a new bill.
func (r *InMemoryRepository) Create(ctx context.Context, bill *Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	bill.CreatedAt = now
	bill.UpdatedAt = now
	copied := *bill
	r.bills[bill.ID] = &copied
	return nil
}

// GetByUserAndID retrieves a bill by user ID and bill ID.
func (r *InMemoryRepository) GetByUserAndID(ctx context.Context, userID, billID string) (*Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bills[billID]
	if !ok || b.UserID != userID {
		return nil, ErrBillNotFound
	}
	copied := *b
	return &copied, nil
}

// List retrieves all bills for a user ordered by due day.
func (r *InMemoryRepository) List(ctx context.Context, userID string) ([]*Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Bill
	for _, b := range r.bills {
		if b.UserID == userID {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDay < out[j].DueDay })
	return out, nil
}

// Update updates an existing bill.
func (r *InMemoryRepository) Update(ctx context.Context, bill *Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.bills[bill.ID]
	if !ok || existing.UserID != bill.UserID {
		return ErrBillNotFound
	}
	bill.CreatedAt = existing.CreatedAt
	bill.UpdatedAt = time.Now()
	copied := *bill
	r.bills[bill.ID] = &copied
	return nil
}

// Delete deletes a bill by user ID and bill ID.
func (r *InMemoryRepository) Delete(ctx context.Context, userID, billID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.bills[billID]
	if !ok || existing.UserID != userID {
		return ErrBillNotFound
	}
	delete(r.bills, billID)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
