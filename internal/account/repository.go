package account

import "context"

// Guarded repository selectors, enumerated for the repository-layer gate.
// These are the only names the gate resolves requirements against; a new
// repository method must be added here to be gated.
const (
	SelectorCreateAccount = "CreateAccount"
	SelectorGetAccount    = "GetAccount"
	SelectorListAccounts  = "ListAccounts"
	SelectorUpdateAccount = "UpdateAccount"
	SelectorDeleteAccount = "DeleteAccount"
)

// RepositorySelectors enumerates every guarded repository selector.
func RepositorySelectors() []string {
	return []string{
		SelectorCreateAccount,
		SelectorGetAccount,
		SelectorListAccounts,
		SelectorUpdateAccount,
		SelectorDeleteAccount,
	}
}

// Repository defines the interface for account data persistence.
type Repository interface {
	// Create creates a new account.
	Create(ctx context.Context, account *Account) error

	// GetByUserAndID retrieves an account by user ID and account ID.
	// Returns ErrAccountNotFound if the account doesn't exist or doesn't
	// belong to the user.
	GetByUserAndID(ctx context.Context, userID, accountID string) (*Account, error)

	// List retrieves all accounts for a user.
	List(ctx context.Context, userID string) ([]*Account, error)

	// Update updates an existing account.
	Update(ctx context.Context, account *Account) error

	// Delete deletes an account by user ID and account ID.
	Delete(ctx context.Context, userID, accountID string) error
}
