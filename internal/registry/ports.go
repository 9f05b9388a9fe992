package registry

import (
	"context"

	"bidrag/internal/domain"
	id "bidrag/pkg/domain"
)

// CaseSource serves case master data from the surrounding case-processing
// system. Grounds processing never creates or mutates cases.
type CaseSource interface {
	Case(ctx context.Context, caseID id.CaseID) (domain.Case, error)
}

// PersonRegistry resolves identity supersessions against the population
// register. Newest returns sentinel.ErrNotFound when the identity has not
// been superseded.
type PersonRegistry interface {
	Newest(ctx context.Context, ident id.Ident) (id.Ident, error)
}

// FactSource fetches the raw fact records for a case from the surrounding
// systems (income register, population register, benefits, case store).
// Fetching is one sequential call chain; failures propagate unwrapped so the
// caller's timeout/retry policy applies.
type FactSource interface {
	Facts(ctx context.Context, c domain.Case) (*FactSet, error)
}

// ThresholdTables supplies the raw visitation threshold table. sentinel
// errors signal an unavailable table; the classifier must fail rather than
// guess a class.
type ThresholdTables interface {
	VisitationClasses(ctx context.Context) ([]ThresholdRow, error)
}

// CalculationEngine is the opaque downstream consumer of a scoped grounds
// set. It returns result nodes whose dependsOn point at their inputs; the
// assembler unions them back into the graph.
type CalculationEngine interface {
	Calculate(ctx context.Context, grounds domain.GroundsSet) ([]domain.Node, error)
}
