// Package registry defines the collaborator boundary: the DTO shapes external
// fetchers return and the ports the grounds service consumes them through.
// Retry, backoff, and timeouts live behind these ports, never in the core.
package registry

import (
	"time"

	"bidrag/internal/domain"
	id "bidrag/pkg/domain"
)

// IncomeRecord is one income row. Official rows carry the source system's row
// id; manual rows were entered by a case worker and have none.
type IncomeRecord struct {
	SourceRowID string
	OwnerIdent  id.Ident
	// ChildIdent is set when the income is earmarked for one child (e.g. a
	// supplement payment).
	ChildIdent id.Ident
	Period     domain.Period
	Amount     float64
	Kind       string
	Manual     bool
}

// CohabitationRecord is one household-membership/bostatus row for a member of
// the recipient's household.
type CohabitationRecord struct {
	SourceRowID     string
	MemberIdent     id.Ident
	MemberName      string
	MemberBirthDate time.Time
	Relationship    string
	Period          domain.Period
	Status          string
	Manual          bool
}

// CivilStatusRecord is one sivilstand row for the case owner.
type CivilStatusRecord struct {
	SourceRowID string
	Period      domain.Period
	Status      string
	Manual      bool
}

// VisitationRecord is one samvær period for a child/payer pair, normally
// entered from an agreement. Calendar, when present, is the structured input
// behind the class.
type VisitationRecord struct {
	ChildIdent id.Ident
	Period     domain.Period
	Class      string
	Calendar   *domain.VisitationCalcPayload
}

// AllowanceRecord is one utvidet barnetrygd row for the recipient.
type AllowanceRecord struct {
	SourceRowID string
	ChildIdent  id.Ident
	Period      domain.Period
	Amount      float64
	Manual      bool
}

// EmploymentRecord is one arbeidsforhold row. Always officially sourced.
type EmploymentRecord struct {
	SourceRowID string
	OwnerIdent  id.Ident
	Period      domain.Period
	Employer    string
	Percent     float64
}

// FeeRecord is a gebyr decision for one party. Fee decisions are made in the
// case; there is no official register behind them.
type FeeRecord struct {
	OwnerIdent id.Ident
	Exempt     bool
	Reason     string
	Manual     bool
}

// NoteRecord is free-text case documentation with no single owner.
type NoteRecord struct {
	Kind string
	Text string
}

// FactSet bundles everything fetched (or manually recorded) for one build.
type FactSet struct {
	Income       []IncomeRecord
	Cohabitation []CohabitationRecord
	CivilStatus  []CivilStatusRecord
	Visitation   []VisitationRecord
	Allowance    []AllowanceRecord
	Employment   []EmploymentRecord
	Fees         []FeeRecord
	Notes        []NoteRecord
}

// ThresholdRow is one raw row of the visitation threshold table as supplied by
// the reference-data collaborator. Expired rows carry a past ValidUntil.
type ThresholdRow struct {
	Class      string
	NightsFrom float64
	NightsTo   float64
	ValidUntil *time.Time
}
