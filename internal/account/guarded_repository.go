package account

import (
	"context"

	"github.com/billgate/billgate/internal/gate"
)

// GuardedRepository wraps a Repository with the repository-layer feature
// gate. It exposes the identical call surface as the wrapped repository, so
// callers are unaware of interception except for the added denial outcome:
// a gated method returns *gate.DeniedError instead of delegating.
type GuardedRepository struct {
	inner Repository
	guard *gate.Guard
}

// NewGuardedRepository wraps inner with the given repository-layer guard.
func NewGuardedRepository(inner Repository, guard *gate.Guard) *GuardedRepository {
	return &GuardedRepository{inner: inner, guard: guard}
}

// Create creates a new account if the gate permits its account type.
func (r *GuardedRepository) Create(ctx context.Context, account *Account) error {
	call := gate.Call{
		Selector: SelectorCreateAccount,
		Named:    []gate.NamedArg{{Name: "account_type", Value: string(account.Type)}},
		Args:     []any{account},
	}
	call.Context.Subject = account.UserID
	if err := r.guard.Authorize(ctx, call); err != nil {
		return err
	}
	return r.inner.Create(ctx, account)
}

// GetByUserAndID retrieves an account if the gate permits.
//
// No subtype is known before the row is read, so the discriminator resolves
// to the wildcard and only wildcard requirements govern the read.
func (r *GuardedRepository) GetByUserAndID(ctx context.Context, userID, accountID string) (*Account, error) {
	call := gate.Call{
		Selector: SelectorGetAccount,
		Args:     []any{userID, accountID},
	}
	call.Context.Subject = userID
	if err := r.guard.Authorize(ctx, call); err != nil {
		return nil, err
	}
	return r.inner.GetByUserAndID(ctx, userID, accountID)
}

// List retrieves all accounts for a user if the gate permits.
func (r *GuardedRepository) List(ctx context.Context, userID string) ([]*Account, error) {
	call := gate.Call{
		Selector: SelectorListAccounts,
		Args:     []any{userID},
	}
	call.Context.Subject = userID
	if err := r.guard.Authorize(ctx, call); err != nil {
		return nil, err
	}
	return r.inner.List(ctx, userID)
}

// Update updates an account if the gate permits its account type.
func (r *GuardedRepository) Update(ctx context.Context, account *Account) error {
	call := gate.Call{
		Selector: SelectorUpdateAccount,
		Named:    []gate.NamedArg{{Name: "account_type", Value: string(account.Type)}},
		Args:     []any{account},
	}
	call.Context.Subject = account.UserID
	if err := r.guard.Authorize(ctx, call); err != nil {
		return err
	}
	return r.inner.Update(ctx, account)
}

// Delete deletes an account if the gate permits.
func (r *GuardedRepository) Delete(ctx context.Context, userID, accountID string) error {
	call := gate.Call{
		Selector: SelectorDeleteAccount,
		Args:     []any{userID, accountID},
	}
	call.Context.Subject = userID
	if err := r.guard.Authorize(ctx, call); err != nil {
		return err
	}
	return r.inner.Delete(ctx, userID, accountID)
}

// Ensure GuardedRepository implements Repository interface.
var _ Repository = (*GuardedRepository)(nil)
