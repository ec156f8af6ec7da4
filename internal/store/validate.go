package store

import (
	"github.com/horizen-tools/poolscope/pkg/series"
	pkgstore "github.com/horizen-tools/poolscope/pkg/store"
)

// validateAppend checks that entries extend the store contiguously: the first
// entry follows the current last height (or sits at genesis for an empty
// store) and every subsequent entry increments by exactly one.
func validateAppend(last uint64, hasLast bool, genesis uint64, entries []series.Entry) error {
	expected := genesis
	if hasLast {
		expected = last + 1
	}

	for _, e := range entries {
		if e.Height != expected {
			return &pkgstore.SequenceViolationError{Expected: expected, Got: e.Height}
		}
		expected++
	}

	return nil
}

// validateSeries checks that entries form a well-formed series anchored at
// the genesis height. Used by rewrite, which replaces the store wholesale.
func validateSeries(genesis uint64, entries []series.Entry) error {
	return validateAppend(0, false, genesis, entries)
}
