package fact

import (
	"bidrag/internal/domain"
	"bidrag/internal/registry"
)

// BuildCohabitation converts household rows into raw membership nodes plus
// derived bostatus periods, one timeline per household member. The member is
// the owner of both nodes; when the member is a søknadsbarn the derived period
// is additionally child-scoped so calculation runs can filter it.
func BuildCohabitation(in Input, records []registry.CohabitationRecord) ([]domain.Node, error) {
	var nodes []domain.Node

	for _, rec := range records {
		if in.skipForTarget(rec.MemberIdent) {
			// Bostatus of a sibling outside the calculation scope.
			continue
		}

		memberKey := domain.Party{
			Ident:     rec.MemberIdent,
			Name:      rec.MemberName,
			BirthDate: rec.MemberBirthDate,
		}.Key()
		owner, err := in.ownerRef(memberKey, domain.CategoryCohabitationPeriod)
		if err != nil {
			if rec.Manual {
				continue
			}
			return nil, err
		}
		childRef := in.childRef(rec.MemberIdent)

		var rawRefs []string
		if !rec.Manual {
			rawPayload := domain.RawHouseholdPayload{
				Periode:      rec.Period,
				MemberIdent:  rec.MemberIdent.String(),
				MemberName:   rec.MemberName,
				Relationship: rec.Relationship,
				SourceRowID:  rec.SourceRowID,
			}
			rawRef := in.Resolver.Node(domain.CategoryRawHousehold, owner, rec.SourceRowID, rawPayload)
			rawNode, err := node(rawRef, domain.CategoryRawHousehold, owner, "", domain.SourceOfficial, nil, rawPayload)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, rawNode)
			rawRefs = append(rawRefs, rawRef)
		}

		payload := domain.CohabitationPayload{Periode: rec.Period, Status: rec.Status}
		ref := in.Resolver.Node(domain.CategoryCohabitationPeriod, owner, "", payload)
		if !rec.Manual {
			if err := requireProvenance(domain.CategoryCohabitationPeriod, ref, rawRefs); err != nil {
				return nil, err
			}
		}
		n, err := node(ref, domain.CategoryCohabitationPeriod, owner, childRef, sourceOf(rec.Manual), rawRefs, payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
