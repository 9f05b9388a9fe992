package fact

import (
	"bidrag/internal/domain"
	"bidrag/internal/registry"
)

// BuildCivilStatus converts sivilstand rows into raw nodes plus derived
// civil-status periods. The timeline belongs to the case owner, the
// bidragsmottaker.
func BuildCivilStatus(in Input, records []registry.CivilStatusRecord) ([]domain.Node, error) {
	var nodes []domain.Node

	for _, rec := range records {
		owner, err := in.ownerRef(in.RecipientKey, domain.CategoryCivilStatusPeriod)
		if err != nil {
			return nil, err
		}

		var rawRefs []string
		if !rec.Manual {
			rawPayload := domain.RawCivilStatusPayload{
				Periode:     rec.Period,
				Status:      rec.Status,
				SourceRowID: rec.SourceRowID,
			}
			rawRef := in.Resolver.Node(domain.CategoryRawCivilStatus, owner, rec.SourceRowID, rawPayload)
			rawNode, err := node(rawRef, domain.CategoryRawCivilStatus, owner, "", domain.SourceOfficial, nil, rawPayload)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, rawNode)
			rawRefs = append(rawRefs, rawRef)
		}

		payload := domain.CivilStatusPayload{Periode: rec.Period, Status: rec.Status}
		ref := in.Resolver.Node(domain.CategoryCivilStatusPeriod, owner, "", payload)
		if !rec.Manual {
			if err := requireProvenance(domain.CategoryCivilStatusPeriod, ref, rawRefs); err != nil {
				return nil, err
			}
		}
		n, err := node(ref, domain.CategoryCivilStatusPeriod, owner, "", sourceOf(rec.Manual), rawRefs, payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
