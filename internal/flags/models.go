// Package flags provides the authoritative in-memory feature flag registry
// and its persistence layer. Flag state is owned here; guards only read it.
package flags

import (
	"time"
)

// Kind identifies how a flag's state answers "enabled for this context".
type Kind string

// Supported flag kinds.
const (
	// KindBoolean is a plain on/off switch.
	KindBoolean Kind = "boolean"

	// KindPercentage enables the flag for a stable percentage of subjects.
	KindPercentage Kind = "percentage"

	// KindSegment enables the flag for subjects in a named segment.
	KindSegment Kind = "segment"
)

// Well-known flag names used by the default gating configuration.
const (
	// FlagBankingV2 gates typed account creation in the new banking flow.
	FlagBankingV2 = "banking_v2"

	// FlagBillAutopay gates automatic bill payment operations.
	FlagBillAutopay = "bill_autopay"

	// FlagAccountsAPI gates the public accounts transport surface.
	FlagAccountsAPI = "accounts_api"
)

// Flag represents a feature flag with its current state.
//
// Name is immutable once created. Version is the value of the registry's
// global counter at the time of the flag's last mutation and strictly
// increases across mutations.
type Flag struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Enabled   bool      `json:"enabled"`
	Rollout   int       `json:"rollout,omitempty"`  // percentage kind: 0-100
	Segments  []string  `json:"segments,omitempty"` // segment kind
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EvalContext carries the caller identity a non-boolean flag needs to
// answer "enabled for this context". Zero value is valid and matches
// nothing but boolean flags.
type EvalContext struct {
	// Subject identifies the acting entity (typically a user ID) and is
	// the hashing input for percentage rollout.
	Subject string

	// Segment is the subject's segment name, if known.
	Segment string
}
