// Package store defines the public contract of the durable series store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/horizen-tools/poolscope/pkg/series"
)

// ErrStoreCorrupt indicates that existing persisted data could not be parsed
// into well-formed series entries. It is fatal on load and is never repaired
// automatically.
var ErrStoreCorrupt = errors.New("series store data is corrupt")

// SequenceViolationError is returned when an append would break height
// contiguity. The store is left unchanged.
type SequenceViolationError struct {
	Expected uint64
	Got      uint64
}

func (e *SequenceViolationError) Error() string {
	return fmt.Sprintf("sequence violation: expected height %d, got %d", e.Expected, e.Got)
}

// IsSequenceViolation reports whether err is (or wraps) a SequenceViolationError.
func IsSequenceViolation(err error) bool {
	var sv *SequenceViolationError
	return errors.As(err, &sv)
}

// SeriesStore is the durable, ordered record of (height, value) pairs.
// It is the single writer of the on-disk representation; all writes are
// flushed durable before the call returns.
type SeriesStore interface {
	// Load reads the entire persisted series into memory, preserving order.
	// An absent backing store yields an empty series; unparsable data yields
	// an error wrapping ErrStoreCorrupt.
	Load(ctx context.Context) (series.Series, error)

	// LoadFrom returns the persisted series truncated to entries at or after
	// fromHeight, for display consumers.
	LoadFrom(ctx context.Context, fromHeight uint64) (series.Series, error)

	// AppendBatch appends entries to the end of the store in order, after
	// validating contiguity against the current last height (or the genesis
	// height for an empty store). The append is all-or-nothing: a violation
	// or mid-write failure leaves the store at its pre-batch state.
	AppendBatch(ctx context.Context, entries []series.Entry) error

	// Rewrite replaces the entire store content. Used only by explicit
	// repair and reset flows, never by normal sync.
	Rewrite(ctx context.Context, entries []series.Entry) error

	// LastHeight returns the highest persisted height, and false if the
	// store is empty.
	LastHeight(ctx context.Context) (uint64, bool, error)

	// Close releases any resources held by the store.
	Close() error
}
