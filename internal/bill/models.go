// Package bill provides bill tracking operations. Its service is the
// wrapped target of the service-layer feature gate.
package bill

import (
	"errors"
	"time"
)

// Domain errors.
var (
	ErrBillNotFound = errors.New("bill not found")
	ErrAlreadyPaid  = errors.New("bill already marked paid")
)

// Category is the bill subtype and the discriminator the service gate
// resolves requirements against.
type Category string

// Bill categories.
const (
	CategoryUtility      Category = "utility"
	CategorySubscription Category = "subscription"
	CategoryOneTime      Category = "one_time"
)

// Valid reports whether c is a known bill category.
func (c Category) Valid() bool {
	switch c {
	case CategoryUtility, CategorySubscription, CategoryOneTime:
		return true
	default:
		return false
	}
}

// Bill represents a tracked bill.
type Bill struct {
	ID          string
	UserID      string
	Name        string
	Category    Category
	AmountCents int64
	DueDay      int // day of month, 1-31
	Paid        bool
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Discriminator returns the bill category for gate extraction.
func (b *Bill) Discriminator() string {
	return string(b.Category)
}
