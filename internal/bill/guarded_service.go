package bill

import (
	"context"

	"github.com/billgate/billgate/internal/api/models"
	"github.com/billgate/billgate/internal/gate"
)

// Guarded service selectors, enumerated for the service-layer gate.
const (
	SelectorListBills  = "ListBills"
	SelectorGetBill    = "GetBill"
	SelectorCreateBill = "CreateBill"
	SelectorMarkPaid   = "MarkBillPaid"
	SelectorDeleteBill = "DeleteBill"
)

// ServiceSelectors enumerates every guarded service selector.
func ServiceSelectors() []string {
	return []string{
		SelectorListBills,
		SelectorGetBill,
		SelectorCreateBill,
		SelectorMarkPaid,
		SelectorDeleteBill,
	}
}

// GuardedService wraps a Service with the service-layer feature gate,
// exposing the identical call surface. Gated methods return
// *gate.DeniedError instead of delegating when a required flag is off.
type GuardedService struct {
	inner Service
	guard *gate.Guard
}

// NewGuardedService wraps inner with the given service-layer guard.
func NewGuardedService(inner Service, guard *gate.Guard) *GuardedService {
	return &GuardedService{inner: inner, guard: guard}
}

// List retrieves all bills for a user if the gate permits.
func (s *GuardedService) List(ctx context.Context, userID string) ([]models.Bill, error) {
	call := gate.Call{Selector: SelectorListBills, Args: []any{userID}}
	call.Context.Subject = userID
	if err := s.guard.Authorize(ctx, call); err != nil {
		return nil, err
	}
	return s.inner.List(ctx, userID)
}

// Get retrieves a bill if the gate permits.
func (s *GuardedService) Get(ctx context.Context, userID, billID string) (*models.Bill, error) {
	call := gate.Call{Selector: SelectorGetBill, Args: []any{userID, billID}}
	call.Context.Subject = userID
	if err := s.guard.Authorize(ctx, call); err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, userID, billID)
}

// Create creates a bill if the gate permits its category.
func (s *GuardedService) Create(ctx context.Context, userID string, input *models.BillCreateRequest) (*models.Bill, error) {
	call := gate.Call{
		Selector: SelectorCreateBill,
		Named:    []gate.NamedArg{{Name: "category", Value: input.Category}},
		Args:     []any{userID, input},
	}
	call.Context.Subject = userID
	if err := s.guard.Authorize(ctx, call); err != nil {
		return nil, err
	}
	return s.inner.Create(ctx, userID, input)
}

// MarkPaid marks a bill paid if the gate permits its category. The category
// is not known from the arguments, so the gate reads the bill first and
// extracts the discriminator from the entity itself.
func (s *GuardedService) MarkPaid(ctx context.Context, userID, billID string) (*models.Bill, error) {
	call := gate.Call{Selector: SelectorMarkPaid, Args: []any{userID, billID}}
	call.Context.Subject = userID
	if b, err := s.inner.Get(ctx, userID, billID); err == nil {
		call.Args = append(call.Args, &Bill{Category: Category(b.Category)})
	}
	if err := s.guard.Authorize(ctx, call); err != nil {
		return nil, err
	}
	return s.inner.MarkPaid(ctx, userID, billID)
}

// Delete deletes a bill if the gate permits.
func (s *GuardedService) Delete(ctx context.Context, userID, billID string) error {
	call := gate.Call{Selector: SelectorDeleteBill, Args: []any{userID, billID}}
	call.Context.Subject = userID
	if err := s.guard.Authorize(ctx, call); err != nil {
		return err
	}
	return s.inner.Delete(ctx, userID, billID)
}

// Ensure GuardedService implements Service interface.
var _ Service = (*GuardedService)(nil)
