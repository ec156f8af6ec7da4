// Package series defines the core data model: an ordered sequence of
// per-height shielded pool observations.
package series

import (
	"github.com/shopspring/decimal"
)

// Entry is a single observation: the total shielded pool value at a block height.
type Entry struct {
	Height uint64          `json:"height"`
	Value  decimal.Decimal `json:"value"`
}

// Series is an ordered sequence of entries. A well-formed series has strictly
// contiguous heights: entry i+1 is always at height of entry i plus one.
type Series []Entry

// LastHeight returns the height of the last entry, and false if the series is empty.
func (s Series) LastHeight() (uint64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Height, true
}

// From returns the sub-series of entries at or after the given height.
// The returned slice shares backing storage with s.
func (s Series) From(height uint64) Series {
	for i, e := range s {
		if e.Height >= height {
			return s[i:]
		}
	}
	return Series{}
}

// Truncate returns the prefix of entries at or below the given height.
// The returned slice shares backing storage with s.
func (s Series) Truncate(height uint64) Series {
	for i, e := range s {
		if e.Height > height {
			return s[:i]
		}
	}
	return s
}
