package fact

import (
	"bidrag/internal/domain"
	"bidrag/internal/registry"
)

// gapExemptKinds are income kinds that do not form a continuous timeline;
// the coverage validator skips gap checks for them.
var gapExemptKinds = map[string]bool{
	"OVERGANGSSTØNAD":   true,
	"KAPITALINNTEKT":    true,
	"NÆRINGSINNTEKT_KU": true,
}

// BuildIncome converts income rows into raw source nodes plus derived
// reporting-period nodes. Official rows aggregating into the same owner, child
// scope, kind, and period become one reporting period depending on every raw
// row it sums; manual rows become standalone reporting periods with no
// provenance.
func BuildIncome(in Input, records []registry.IncomeRecord) ([]domain.Node, error) {
	var nodes []domain.Node

	type groupKey struct {
		owner string
		child string
		kind  string
		from  string
		to    string
	}
	type group struct {
		key     groupKey
		period  domain.Period
		amount  float64
		rawRefs []string
	}
	var order []groupKey
	groups := make(map[groupKey]*group)

	for _, rec := range records {
		if in.skipForTarget(rec.ChildIdent) {
			continue
		}
		owner, err := in.ownerRef(rec.OwnerIdent.String(), domain.CategoryIncomePeriod)
		if err != nil {
			if rec.Manual {
				// Manual entries for persons outside the scope are dropped,
				// not fatal: the case worker entered them against a party the
				// current scope excludes.
				continue
			}
			return nil, err
		}
		child := in.childRef(rec.ChildIdent)

		if rec.Manual {
			payload := domain.IncomePeriodPayload{
				Periode:   rec.Period,
				Amount:    rec.Amount,
				Kind:      rec.Kind,
				GapExempt: gapExemptKinds[rec.Kind],
			}
			ref := in.Resolver.Node(domain.CategoryIncomePeriod, owner, "", payload)
			n, err := node(ref, domain.CategoryIncomePeriod, owner, child, domain.SourceManual, nil, payload)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			continue
		}

		rawPayload := domain.RawIncomePayload{
			Periode:     rec.Period,
			Amount:      rec.Amount,
			Kind:        rec.Kind,
			SourceRowID: rec.SourceRowID,
		}
		rawRef := in.Resolver.Node(domain.CategoryRawIncome, owner, rec.SourceRowID, rawPayload)
		rawNode, err := node(rawRef, domain.CategoryRawIncome, owner, child, domain.SourceOfficial, nil, rawPayload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, rawNode)

		key := groupKey{owner: owner, child: child, kind: rec.Kind,
			from: rec.Period.From.Format("2006-01-02"), to: ""}
		if rec.Period.To != nil {
			key.to = rec.Period.To.Format("2006-01-02")
		}
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, period: rec.Period}
			groups[key] = g
			order = append(order, key)
		}
		g.amount += rec.Amount
		g.rawRefs = append(g.rawRefs, rawRef)
	}

	// Derived reporting periods, in first-encounter order so references stay
	// deterministic.
	for _, key := range order {
		g := groups[key]
		payload := domain.IncomePeriodPayload{
			Periode:   g.period,
			Amount:    g.amount,
			Kind:      key.kind,
			GapExempt: gapExemptKinds[key.kind],
		}
		ref := in.Resolver.Node(domain.CategoryIncomePeriod, key.owner, "", payload)
		if err := requireProvenance(domain.CategoryIncomePeriod, ref, g.rawRefs); err != nil {
			return nil, err
		}
		n, err := node(ref, domain.CategoryIncomePeriod, key.owner, key.child, domain.SourceOfficial, g.rawRefs, payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
