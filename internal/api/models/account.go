package models

import "time"

// Account represents a bank account in API responses.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	BalanceCents int64     `json:"balanceCents"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountList represents a list of accounts.
type AccountList struct {
	Items []Account `json:"items"`
}

// AccountCreateRequest represents a request to create an account.
type AccountCreateRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	BalanceCents int64  `json:"balanceCents"`
	Currency     string `json:"currency,omitempty"`
}

// AccountUpdateRequest represents a request to update an account.
type AccountUpdateRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	BalanceCents int64  `json:"balanceCents"`
	Currency     string `json:"currency,omitempty"`
}
