package models

import "time"

// FeatureFlag represents a feature flag in admin API responses.
type FeatureFlag struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Enabled   bool      `json:"enabled"`
	Rollout   int       `json:"rollout,omitempty"`
	Segments  []string  `json:"segments,omitempty"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FeatureFlagList represents a list of feature flags.
type FeatureFlagList struct {
	Items []FeatureFlag `json:"items"`
}

// FlagUpdate represents a single flag update.
type FlagUpdate struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind,omitempty"`
	Enabled  bool     `json:"enabled"`
	Rollout  int      `json:"rollout,omitempty"`
	Segments []string `json:"segments,omitempty"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason,omitempty"`
}
