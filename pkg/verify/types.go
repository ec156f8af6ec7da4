// Package verify defines the public types of the series verifier.
package verify

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Reason classifies a structural violation found in a persisted series.
type Reason string

const (
	ReasonHeightGap       Reason = "height_gap"
	ReasonDuplicateHeight Reason = "duplicate_height"
	ReasonNegativeValue   Reason = "negative_value"
)

// Warning flags a height where the pool value dropped relative to the
// previous entry by more than the configured tolerance. Drops can be
// legitimate (unshielding, chain reorganizations), so warnings accompany a
// valid result rather than failing it.
type Warning struct {
	Height   uint64          `json:"height"`
	Previous decimal.Decimal `json:"previous"`
	Value    decimal.Decimal `json:"value"`
	Drop     decimal.Decimal `json:"drop"`
}

func (w Warning) String() string {
	return fmt.Sprintf("value dropped by %s at height %d (%s -> %s)",
		w.Drop, w.Height, w.Previous, w.Value)
}

// Result is the outcome of a verification pass. It is always returned as
// data, never as an error.
type Result struct {
	Valid bool `json:"valid"`

	// AtHeight and Reason identify the first violation when Valid is false.
	AtHeight uint64 `json:"at_height,omitempty"`
	Reason   Reason `json:"reason,omitempty"`

	// Warnings lists soft anomalies found in an otherwise valid series.
	Warnings []Warning `json:"warnings,omitempty"`
}
