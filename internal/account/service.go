package account

import (
	"context"
	"errors"
	"fmt"

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

// Service provides account operations over a Repository. The repository is
// injected already wrapped by the repository-layer gate; the service itself
// is unaware of gating beyond surfacing the denial outcome.
type Service struct {
	repo Repository
}

// NewService creates a new account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all accounts for a user.
func (s *Service) List(ctx context.Context, userID string) ([]models.Account, error) {
	accounts, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, toAPIAccount(a))
	}
	return items, nil
}

// Get retrieves an account by ID for a user.
func (s *Service) Get(ctx context.Context, userID, accountID string) (*models.Account, error) {
	a, err := s.repo.GetByUserAndID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	result := toAPIAccount(a)
	return &result, nil
}

// Create creates a new account for a user.
func (s *Service) Create(ctx context.Context, userID string, input *models.AccountCreateRequest) (*models.Account, error) {
	if fieldErrors := validateAccountInput(input.Name, input.Type); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	a := &Account{
		ID:           "acc_" + uuid.New().String()[:22],
		UserID:       userID,
		Name:         input.Name,
		Type:         Type(input.Type),
		BalanceCents: input.BalanceCents,
		Currency:     defaultCurrency(input.Currency),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	result := toAPIAccount(a)
	return &result, nil
}

// Update updates an existing account for a user.
func (s *Service) Update(ctx context.Context, userID, accountID string, input *models.AccountUpdateRequest) (*models.Account, error) {
	if fieldErrors := validateAccountInput(input.Name, input.Type); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	existing, err := s.repo.GetByUserAndID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	existing.Name = input.Name
	existing.Type = Type(input.Type)
	existing.BalanceCents = input.BalanceCents
	if input.Currency != "" {
		existing.Currency = input.Currency
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	result := toAPIAccount(existing)
	return &result, nil
}

// Delete deletes an account for a user.
func (s *Service) Delete(ctx context.Context, userID, accountID string) error {
	return s.repo.Delete(ctx, userID, accountID)
}

func validateAccountInput(name, accountType string) []models.FieldError {
	var fieldErrors []models.FieldError

	if name == "" {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "name", Message: "name is required", Code: "required",
		})
	} else if len(name) > MaxNameLength {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength), Code: "too_long",
		})
	}

	if !Type(accountType).Valid() {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "type", Message: "type must be one of: checking, savings, credit", Code: "invalid",
		})
	}

	return fieldErrors
}

func defaultCurrency(currency string) string {
	if currency == "" {
		return "EUR"
	}
	return currency
}

func toAPIAccount(a *Account) models.Account {
	return models.Account{
		ID:           a.ID,
		Name:         a.Name,
		Type:         string(a.Type),
		BalanceCents: a.BalanceCents,
		Currency:     a.Currency,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// IsNotFound reports whether err indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
