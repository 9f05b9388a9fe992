package visitation

import (
	"math"

	"bidrag/internal/domain"
	dErrors "bidrag/pkg/domain-errors"
)

// referenceWindowDays is the fixed 2-year window the monthly average is
// computed over.
const referenceWindowDays = 730

// Classify computes the average monthly overnights with the non-primary
// parent from a structured calendar and maps it to a samværsklasse.
//
// Vacation blocks state overnights per occurrence for each parent; nights
// inside vacation blocks are excluded from the regular cycle, so the regular
// share is the remaining window converted to a per-cycle average. The monthly
// average is regular plus vacation nights with the non-primary parent, spread
// over the 24-month window, with intermediate results rounded to 2 decimals
// half-up and the final lookup value to 0 decimals half-up.
func Classify(cal domain.VisitationCalcPayload, table *Table) (string, error) {
	if table == nil {
		return "", unresolvable("no table loaded")
	}
	if cal.CycleDays <= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "visitation calendar has no cycle length")
	}

	var withPrimary, withNonPrimary float64
	for _, block := range cal.VacationBlocks {
		perWindow := block.PerYear * 2
		withPrimary += perWindow * block.NightsWithPrimary
		withNonPrimary += perWindow * block.NightsWithNonPrimary
	}

	eligibleDays := referenceWindowDays - withPrimary - withNonPrimary
	if eligibleDays < 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "vacation blocks exceed the reference window")
	}

	cycles := roundTo(eligibleDays/float64(cal.CycleDays), 2)
	monthly := roundTo((cycles*cal.RegularOvernightsPerCycle+withNonPrimary)/24, 2)

	return table.classFor(roundTo(monthly, 0)), nil
}

// roundTo rounds half-up (away from zero) to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(v*shift) / shift
}
