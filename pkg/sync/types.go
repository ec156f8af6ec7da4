// Package sync defines the public types of the synchronization engine.
package sync

import "context"

// Status is the terminal outcome of a sync run.
type Status string

const (
	// StatusComplete means the store was brought up to the chain tip.
	StatusComplete Status = "complete"

	// StatusPartial means a contiguous prefix of the missing range was
	// committed before a height failed all retries.
	StatusPartial Status = "partial"

	// StatusUnavailable means the chain tip could not be queried; the run
	// aborted with zero side effects.
	StatusUnavailable Status = "unavailable"
)

// Result describes the outcome of a sync run with enough detail to resume or
// diagnose without inspecting internals.
type Result struct {
	Status Status `json:"status"`

	// NewEntries is the number of entries committed by this run.
	NewEntries int `json:"new_entries"`

	// FinalHeight is the last persisted height after the run. Only
	// meaningful when HasFinal is true (the store may still be empty after
	// an unavailable or fully failed run).
	FinalHeight uint64 `json:"final_height"`
	HasFinal    bool   `json:"has_final"`

	// FailedHeight is the first height that exhausted its retries. Set only
	// for StatusPartial.
	FailedHeight uint64 `json:"failed_height,omitempty"`

	// Cause carries the underlying RPC error for StatusPartial and
	// StatusUnavailable outcomes.
	Cause error `json:"-"`
}

// Synchronizer brings a series store up to date with the chain.
type Synchronizer interface {
	// Run performs one sync pass. Structural store failures (corrupt data,
	// sequence violations) are returned as errors; RPC outcomes are encoded
	// in the Result.
	Run(ctx context.Context) (*Result, error)
}
