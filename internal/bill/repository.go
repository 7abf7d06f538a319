package bill

import "context"

// Repository defines the interface for bill data persistence.
type Repository interface {
	// Create creates a new bill.
	Create(ctx context.Context, bill *Bill) error

	// GetByUserAndID retrieves a bill by user ID and bill ID.
	// Returns ErrBillNotFound if the bill doesn't exist or doesn't belong
	// to the user.
	GetByUserAndID(ctx context.Context, userID, billID string) (*Bill, error)

	// List retrieves all bills for a user.
	List(ctx context.Context, userID string) ([]*Bill, error)

	// Update updates an existing bill.
	Update(ctx context.Context, bill *Bill) error

	// Delete deletes a bill by user ID and bill ID.
	Delete(ctx context.Context, userID, billID string) error
}
