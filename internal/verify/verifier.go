// Package verify implements the read-only series verifier.
package verify

import (
	"github.com/shopspring/decimal"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/logger"
	"github.com/horizen-tools/poolscope/pkg/series"
	pkgverify "github.com/horizen-tools/poolscope/pkg/verify"
)

// Verifier walks a persisted series and checks its structural invariants
// without mutating it. It is safe to run against a read snapshot.
type Verifier struct {
	dropTolerance decimal.Decimal
	log           *logger.Logger
}

// New creates a Verifier. dropTolerance is the pool value decrease above
// which a soft warning is flagged.
func New(dropTolerance decimal.Decimal, log *logger.Logger) *Verifier {
	return &Verifier{
		dropTolerance: dropTolerance,
		log:           log.WithComponent(common.ComponentVerifier),
	}
}

// Verify scans entries in order, checking height contiguity and value
// non-negativity. The first violation wins. Value drops larger than the
// tolerance are collected as warnings alongside a valid result; legitimate
// unshielding and chain reorganizations can reduce the pool, so they are
// surfaced for manual review rather than failed.
func (v *Verifier) Verify(s series.Series) pkgverify.Result {
	result := pkgverify.Result{Valid: true}

	for i, e := range s {
		if e.Value.IsNegative() {
			v.log.Errorw("negative pool value",
				"height", e.Height,
				"value", e.Value,
			)
			return pkgverify.Result{
				Valid:    false,
				AtHeight: e.Height,
				Reason:   pkgverify.ReasonNegativeValue,
			}
		}

		if i == 0 {
			continue
		}
		prev := s[i-1]

		if e.Height <= prev.Height {
			v.log.Errorw("height does not increase",
				"height", e.Height,
				"previous", prev.Height,
			)
			return pkgverify.Result{
				Valid:    false,
				AtHeight: e.Height,
				Reason:   pkgverify.ReasonDuplicateHeight,
			}
		}

		if e.Height != prev.Height+1 {
			v.log.Errorw("height gap",
				"height", e.Height,
				"previous", prev.Height,
			)
			return pkgverify.Result{
				Valid:    false,
				AtHeight: e.Height,
				Reason:   pkgverify.ReasonHeightGap,
			}
		}

		if drop := prev.Value.Sub(e.Value); drop.GreaterThan(v.dropTolerance) {
			v.log.Warnw("large pool value drop",
				"height", e.Height,
				"previous_value", prev.Value,
				"value", e.Value,
				"drop", drop,
			)
			result.Warnings = append(result.Warnings, pkgverify.Warning{
				Height:   e.Height,
				Previous: prev.Value,
				Value:    e.Value,
				Drop:     drop,
			})
		}
	}

	return result
}
