package bill

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billgate/billgate/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength = 80
)

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Errors []models.FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d field error(s)", len(e.Errors))
}

// Service defines the bill business operations. The interface exists so the
// service-layer gate can wrap the implementation behind the identical call
// surface.
type Service interface {
	// List retrieves all bills for a user.
	List(ctx context.Context, userID string) ([]models.Bill, error)

	// Get retrieves a bill by ID for a user.
	Get(ctx context.Context, userID, billID string) (*models.Bill, error)

	// Create creates a new bill for a user.
	Create(ctx context.Context, userID string, input *models.BillCreateRequest) (*models.Bill, error)

	// MarkPaid marks a bill as paid.
	MarkPaid(ctx context.Context, userID, billID string) (*models.Bill, error)

	// Delete deletes a bill for a user.
	Delete(ctx context.Context, userID, billID string) error
}

// service is the Repository-backed Service implementation.
type service struct {
	repo Repository
}

// NewService creates a new bill service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// List retrieves all bills for a user.
func (s *service) List(ctx context.Context, userID string) ([]models.Bill, error) {
	bills, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Bill, 0, len(bills))
	for _, b := range bills {
		items = append(items, toAPIBill(b))
	}
	return items, nil
}

// Get retrieves a bill by ID for a user.
func (s *service) Get(ctx context.Context, userID, billID string) (*models.Bill, error) {
	b, err := s.repo.GetByUserAndID(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	result := toAPIBill(b)
	return &result, nil
}

// Create creates a new bill for a user.
func (s *service) Create(ctx context.Context, userID string, input *models.BillCreateRequest) (*models.Bill, error) {
	if fieldErrors := validateBillInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	b := &Bill{
		ID:          "bil_" + uuid.New().String()[:22],
		UserID:      userID,
		Name:        input.Name,
		Category:    Category(input.Category),
		AmountCents: input.AmountCents,
		DueDay:      input.DueDay,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	result := toAPIBill(b)
	return &result, nil
}

// MarkPaid marks a bill as paid.
func (s *service) MarkPaid(ctx context.Context, userID, billID string) (*models.Bill, error) {
	b, err := s.repo.GetByUserAndID(ctx, userID, billID)
	if err != nil {
		return nil, err
	}
	if b.Paid {
		return nil, ErrAlreadyPaid
	}

	now := time.Now()
	b.Paid = true
	b.PaidAt = &now
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	result := toAPIBill(b)
	return &result, nil
}

// Delete deletes a bill for a user.
func (s *service) Delete(ctx context.Context, userID, billID string) error {
	return s.repo.Delete(ctx, userID, billID)
}

func validateBillInput(input *models.BillCreateRequest) []models.FieldError {
	var fieldErrors []models.FieldError

	if input.Name == "" {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "name", Message: "name is required", Code: "required",
		})
	} else if len(input.Name) > MaxNameLength {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength), Code: "too_long",
		})
	}

	if !Category(input.Category).Valid() {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "category", Message: "category must be one of: utility, subscription, one_time", Code: "invalid",
		})
	}

	if input.AmountCents <= 0 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "amountCents", Message: "amountCents must be positive", Code: "invalid",
		})
	}

	if input.DueDay < 1 || input.DueDay > 31 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "dueDay", Message: "dueDay must be between 1 and 31", Code: "invalid",
		})
	}

	return fieldErrors
}

func toAPIBill(b *Bill) models.Bill {
	return models.Bill{
		ID:          b.ID,
		Name:        b.Name,
		Category:    string(b.Category),
		AmountCents: b.AmountCents,
		DueDay:      b.DueDay,
		Paid:        b.Paid,
		PaidAt:      b.PaidAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
