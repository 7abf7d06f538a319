// Package account provides bank account persistence and operations. Its
// repository is the wrapped target of the repository-layer feature gate.
package account

import (
	"errors"
	"time"
)

// Domain errors.
var (
	ErrAccountNotFound = errors.New("account not found")
)

// Type is the account subtype and the discriminator the repository gate
// resolves requirements against.
type Type string

// Account subtypes.
const (
	TypeChecking Type = "checking"
	TypeSavings  Type = "savings"
	TypeCredit   Type = "credit"
)

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeChecking, TypeSavings, TypeCredit:
		return true
	default:
		return false
	}
}

// Account represents a bank account tracked for cashflow.
type Account struct {
	ID           string
	UserID       string
	Name         string
	Type         Type
	BalanceCents int64
	Currency     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Discriminator returns the account subtype for gate extraction.
func (a *Account) Discriminator() string {
	return string(a.Type)
}
