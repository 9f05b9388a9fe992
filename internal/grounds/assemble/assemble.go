// Package assemble composes person and fact nodes into a complete GroundsSet.
// Three build modes share the same builders: the full unscoped case graph, a
// calculation-scoped graph for one child, and a narrow visitation sub-graph
// that carries its own threshold-table snapshot.
package assemble

import (
	"context"
	"fmt"

	"bidrag/internal/domain"
	"bidrag/internal/grounds/fact"
	"bidrag/internal/grounds/person"
	"bidrag/internal/grounds/refid"
	"bidrag/internal/registry"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
)

// CalculationType selects which fact categories a scoped build includes.
type CalculationType string

const (
	CalcBidrag    CalculationType = "BIDRAG"
	CalcForskudd  CalculationType = "FORSKUDD"
	CalcSærbidrag CalculationType = "SÆRBIDRAG"
)

// excludedCategories lists the fact categories each calculation type has no
// use for. Forskudd is independent of visitation; særbidrag is independent of
// the recipient's barnetrygd situation. A full build excludes nothing.
var excludedCategories = map[CalculationType]map[domain.Category]bool{
	CalcBidrag: {},
	CalcForskudd: {
		domain.CategoryVisitationPeriod: true,
		domain.CategoryVisitationCalc:   true,
	},
	CalcSærbidrag: {
		domain.CategoryRawAllowance:    true,
		domain.CategoryAllowancePeriod: true,
	},
}

// builderEntry wires one fact builder into the dispatch table, tagged with
// the categories it produces so scoped builds can skip whole fact domains.
type builderEntry struct {
	categories []domain.Category
	run        func(fact.Input, *registry.FactSet) ([]domain.Node, error)
}

// builders is the single dispatch table: adding a fact category means adding
// a builder here and a payload type in domain.
var builders = []builderEntry{
	{
		categories: []domain.Category{domain.CategoryRawIncome, domain.CategoryIncomePeriod},
		run: func(in fact.Input, fs *registry.FactSet) ([]domain.Node, error) {
			return fact.BuildIncome(in, fs.Income)
		},
	},
	{
		categories: []domain.Category{domain.CategoryRawHousehold, domain.CategoryCohabitationPeriod},
		run: func(in fact.Input, fs *registry.FactSet) ([]domain.Node, error) {
			return fact.BuildCohabitation(in, fs.Cohabitation)
		},
	},
	{
		categories: []domain.Category{domain.CategoryRawCivilStatus, domain.CategoryCivilStatusPeriod},
		run: func(in fact.Input, fs *registry.FactSet) ([]domain.Node, error) {
			return fact.BuildCivilStatus(in, fs.CivilStatus)
		},
	},
	{
		categories: []domain.Category{domain.CategoryVisitationPeriod, domain.CategoryVisitationCalc},
		run: func(in fact.Input, fs *registry.FactSet) ([]domain.Node, error) {
			return fact.BuildVisitation(in, fs.Visitation)
		},
	},
	{
		categories: []domain.Category{domain.CategoryRawAllowance, domain.CategoryAllowancePeriod},
		run: func(in fact.Input, fs *registry.FactSet) ([]domain.Node, error) {
			return fact.BuildAllowance(in, fs.Allowance)
		},
	},
	{
		categories: []domain.Category{domain.CategoryRawEmployment},
		run: func(in fact.Input, fs *registry.FactSet) ([]domain.Node, error) {
			return fact.BuildEmployment(in, fs.Employment)
		},
	},
	{
		categories: []domain.Category{domain.CategoryFee},
		run: func(in fact.Input, fs *registry.FactSet) ([]domain.Node, error) {
			return fact.BuildFees(in, fs.Fees)
		},
	},
	{
		categories: []domain.Category{domain.CategoryNotat},
		run: func(in fact.Input, fs *registry.FactSet) ([]domain.Node, error) {
			return fact.BuildNotes(in, fs.Notes)
		},
	},
}

// Assembler builds GroundsSets. It owns no state beyond the person builder;
// every build starts from a fresh reference resolver.
type Assembler struct {
	persons *person.Builder
}

func New(persons *person.Builder) *Assembler {
	return &Assembler{persons: persons}
}

// BuildFull builds the complete case graph: every person, every category,
// unscoped.
func (a *Assembler) BuildFull(ctx context.Context, c domain.Case, facts *registry.FactSet) (domain.GroundsSet, error) {
	return a.build(ctx, c, facts, id.Ident(""), nil)
}

// BuildForChild builds the calculation-scoped graph for one target child:
// facts earmarked for other children are left out, as are the categories the
// calculation type has no use for.
func (a *Assembler) BuildForChild(ctx context.Context, c domain.Case, facts *registry.FactSet, child id.Ident, calc CalculationType) (domain.GroundsSet, error) {
	excluded, ok := excludedCategories[calc]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("unknown calculation type %q", calc))
	}
	return a.build(ctx, c, facts, child, excluded)
}

// BuildVisitationSub builds the narrow visitation slice for one child/payer
// pair, plus a snapshot of the threshold table the classification depended
// on, so the sub-result stays readable without the full graph. Person nodes
// no visitation node points at are pruned.
func (a *Assembler) BuildVisitationSub(ctx context.Context, c domain.Case, facts *registry.FactSet, child id.Ident, brackets []domain.ThresholdBracket) (domain.GroundsSet, error) {
	visitationOnly := &registry.FactSet{Visitation: facts.Visitation}
	excluded := map[domain.Category]bool{}
	for _, entry := range builders {
		if entry.categories[0] != domain.CategoryVisitationPeriod {
			for _, cat := range entry.categories {
				excluded[cat] = true
			}
		}
	}

	set, err := a.build(ctx, c, visitationOnly, child, excluded)
	if err != nil {
		return nil, err
	}
	set = pruneUnreferencedPersons(set)

	payload := domain.ThresholdTablePayload{Brackets: brackets}
	raw, err := domain.MarshalPayload(payload)
	if err != nil {
		return nil, err
	}
	set = append(set, domain.Node{
		Reference: refid.New().Node(domain.CategoryThresholdTable, "", "samværsklasse", payload),
		Category:  domain.CategoryThresholdTable,
		Source:    domain.SourceOfficial,
		Payload:   raw,
	})

	if err := set.CheckIntegrity(); err != nil {
		return nil, err
	}
	return set, nil
}

// MergeResults unions calculation-engine result nodes into an existing set.
// Result references must not collide with the set, and every provenance edge
// of a result node must resolve inside the merged graph.
func MergeResults(set domain.GroundsSet, results []domain.Node) (domain.GroundsSet, error) {
	merged := make(domain.GroundsSet, len(set), len(set)+len(results))
	copy(merged, set)

	idx := set.ByReference()
	for _, n := range results {
		if _, dup := idx[n.Reference]; dup {
			return nil, dErrors.New(dErrors.CodeConflict,
				fmt.Sprintf("result node %q collides with an existing reference", n.Reference))
		}
		merged = append(merged, n)
	}

	if err := merged.CheckIntegrity(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (a *Assembler) build(ctx context.Context, c domain.Case, facts *registry.FactSet, targetChild id.Ident, excluded map[domain.Category]bool) (domain.GroundsSet, error) {
	r := refid.New()

	personNodes, refs, err := a.persons.Build(ctx, r, c, targetChild)
	if err != nil {
		return nil, err
	}

	in := fact.Input{
		Resolver:    r,
		Persons:     refs,
		Children:    childIdents(c),
		Anchor:      c.Virkningstidspunkt,
		TargetChild: targetChild,
	}
	for _, p := range c.Parties {
		switch p.Role {
		case domain.RoleRecipient:
			in.RecipientKey = p.Key()
		case domain.RolePayer:
			in.PayerKey = p.Key()
		}
	}

	set := domain.GroundsSet(personNodes)
	seen := make(map[string]bool, len(set))
	for _, n := range set {
		seen[n.Reference] = true
	}

	for _, entry := range builders {
		if skipEntry(entry, excluded) {
			continue
		}
		nodes, err := entry.run(in, facts)
		if err != nil {
			return nil, err
		}
		// Union by reference; the first occurrence wins.
		for _, n := range nodes {
			if seen[n.Reference] {
				continue
			}
			seen[n.Reference] = true
			set = append(set, n)
		}
	}

	if err := set.CheckIntegrity(); err != nil {
		return nil, err
	}
	return set, nil
}

func skipEntry(entry builderEntry, excluded map[domain.Category]bool) bool {
	for _, cat := range entry.categories {
		if excluded[cat] {
			return true
		}
	}
	return false
}

func childIdents(c domain.Case) map[id.Ident]bool {
	children := make(map[id.Ident]bool)
	for _, p := range c.Children() {
		if !p.Ident.IsZero() {
			children[p.Ident] = true
		}
	}
	return children
}

// pruneUnreferencedPersons drops person nodes nothing in the set points at.
// Sub-builds include only the people their facts concern.
func pruneUnreferencedPersons(set domain.GroundsSet) domain.GroundsSet {
	referenced := make(map[string]bool)
	for _, n := range set {
		if n.OwnerReference != "" {
			referenced[n.OwnerReference] = true
		}
		if n.SubjectChildReference != "" {
			referenced[n.SubjectChildReference] = true
		}
		for _, dep := range n.DependsOn {
			referenced[dep] = true
		}
	}
	return set.Filter(func(n domain.Node) bool {
		return !n.Category.IsPerson() || referenced[n.Reference]
	})
}
