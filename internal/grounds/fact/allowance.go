package fact

import (
	"bidrag/internal/domain"
	"bidrag/internal/registry"
)

// BuildAllowance converts utvidet barnetrygd rows into raw nodes plus derived
// allowance periods on the bidragsmottaker. Rows earmarked for one child are
// child-scoped and filtered by the build's target child.
func BuildAllowance(in Input, records []registry.AllowanceRecord) ([]domain.Node, error) {
	var nodes []domain.Node

	for _, rec := range records {
		if in.skipForTarget(rec.ChildIdent) {
			continue
		}
		owner, err := in.ownerRef(in.RecipientKey, domain.CategoryAllowancePeriod)
		if err != nil {
			return nil, err
		}
		childRef := in.childRef(rec.ChildIdent)

		var rawRefs []string
		if !rec.Manual {
			rawPayload := domain.RawAllowancePayload{
				Periode:     rec.Period,
				Amount:      rec.Amount,
				SourceRowID: rec.SourceRowID,
			}
			rawRef := in.Resolver.Node(domain.CategoryRawAllowance, owner, rec.SourceRowID, rawPayload)
			rawNode, err := node(rawRef, domain.CategoryRawAllowance, owner, childRef, domain.SourceOfficial, nil, rawPayload)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, rawNode)
			rawRefs = append(rawRefs, rawRef)
		}

		payload := domain.AllowancePeriodPayload{Periode: rec.Period, Amount: rec.Amount}
		ref := in.Resolver.Node(domain.CategoryAllowancePeriod, owner, "", payload)
		if !rec.Manual {
			if err := requireProvenance(domain.CategoryAllowancePeriod, ref, rawRefs); err != nil {
				return nil, err
			}
		}
		n, err := node(ref, domain.CategoryAllowancePeriod, owner, childRef, sourceOf(rec.Manual), rawRefs, payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
