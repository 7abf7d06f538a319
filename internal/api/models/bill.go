package models

import "time"

// Bill represents a tracked bill in API responses.
type Bill struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	AmountCents int64      `json:"amountCents"`
	DueDay      int        `json:"dueDay"`
	Paid        bool       `json:"paid"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BillList represents a list of bills.
type BillList struct {
	Items []Bill `json:"items"`
}

// BillCreateRequest represents a request to create a bill.
type BillCreateRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amountCents"`
	DueDay      int    `json:"dueDay"`
}
