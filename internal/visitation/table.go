// Package visitation classifies a structured visitation calendar into a
// samværsklasse using the externally supplied threshold table. The table is
// reference data; if it cannot be resolved the classification fails rather
// than guessing a class.
package visitation

import (
	"fmt"
	"sort"
	"time"

	"bidrag/internal/domain"
	"bidrag/internal/registry"
	dErrors "bidrag/pkg/domain-errors"
)

// ClassNone is the class for monthly averages below every bracket.
const ClassNone = "INGEN_SAMVÆR"

// Table is the resolved bracket list: expired rows filtered out, sorted, one
// bracket per class, contiguous from zero.
type Table struct {
	brackets []domain.ThresholdBracket
}

// NewTable builds a Table from the raw rows, dropping rows expired at the
// given reference time and validating the remainder. Any inconsistency makes
// the table unresolvable; classification must not proceed on a partial table.
func NewTable(rows []registry.ThresholdRow, now time.Time) (*Table, error) {
	byClass := make(map[string]bool)
	var brackets []domain.ThresholdBracket
	for _, row := range rows {
		if row.ValidUntil != nil && row.ValidUntil.Before(now) {
			continue
		}
		if byClass[row.Class] {
			return nil, unresolvable(fmt.Sprintf("class %q has more than one valid bracket", row.Class))
		}
		byClass[row.Class] = true
		brackets = append(brackets, domain.ThresholdBracket{
			Class:      row.Class,
			NightsFrom: row.NightsFrom,
			NightsTo:   row.NightsTo,
		})
	}
	if len(brackets) == 0 {
		return nil, unresolvable("no valid brackets")
	}

	sort.Slice(brackets, func(i, j int) bool { return brackets[i].NightsFrom < brackets[j].NightsFrom })

	if brackets[0].NightsFrom != 0 {
		return nil, unresolvable("lowest bracket does not start at 0")
	}
	for i, b := range brackets {
		if b.NightsTo < b.NightsFrom {
			return nil, unresolvable(fmt.Sprintf("bracket %q is inverted", b.Class))
		}
		if i > 0 && b.NightsFrom != brackets[i-1].NightsTo+1 {
			return nil, unresolvable(fmt.Sprintf("bracket %q does not continue from %q", b.Class, brackets[i-1].Class))
		}
	}

	return &Table{brackets: brackets}, nil
}

// Brackets returns the resolved bracket list in ascending order, for
// snapshotting into a sub-calculation graph.
func (t *Table) Brackets() []domain.ThresholdBracket {
	out := make([]domain.ThresholdBracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// classFor looks up the bracket enclosing a rounded monthly overnight count.
// Values above the top bracket classify to the highest class; values below
// the bottom one (possible only when the table starts above zero, which
// NewTable rejects) classify to no visitation.
func (t *Table) classFor(nights float64) string {
	for _, b := range t.brackets {
		if nights >= b.NightsFrom && nights <= b.NightsTo {
			return b.Class
		}
	}
	if nights > t.brackets[len(t.brackets)-1].NightsTo {
		return t.brackets[len(t.brackets)-1].Class
	}
	return ClassNone
}

func unresolvable(desc string) error {
	return dErrors.New(dErrors.CodeUnresolvableTable, "visitation threshold table: "+desc)
}
