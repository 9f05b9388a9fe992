// Package store persists activated grounds generations. Activation is
// append-only: a new generation never rewrites an old one, because stored
// generations are the audit record behind decisions.
package store

import (
	"context"
	"time"

	"bidrag/internal/domain"
	id "bidrag/pkg/domain"
)

// Generation is one activated grounds set for a case. Number starts at 1 and
// increases by one per activation.
type Generation struct {
	CaseID      id.CaseID
	Number      int64
	ActivatedAt time.Time
	ActivatedBy string
	Grounds     domain.GroundsSet
}

// ActiveStore persists and serves grounds generations.
//
// Active returns sentinel.ErrNotFound when the case has never been
// activated. Activate appends the next generation; concurrent activations of
// the same case race on the generation number and the loser gets
// sentinel.ErrConflict, which is the at-most-one-build-per-case enforcement
// point.
type ActiveStore interface {
	Active(ctx context.Context, caseID id.CaseID) (*Generation, error)
	Generations(ctx context.Context, caseID id.CaseID) ([]Generation, error)
	Activate(ctx context.Context, caseID id.CaseID, grounds domain.GroundsSet, actor string, at time.Time) (*Generation, error)
}
