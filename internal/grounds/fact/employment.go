package fact

import (
	"bidrag/internal/domain"
	"bidrag/internal/registry"
)

// BuildEmployment converts arbeidsforhold rows into raw source nodes. No
// derived periods exist for employment; calculation engines read the raw
// history directly, and the coverage validator never gap-checks it.
func BuildEmployment(in Input, records []registry.EmploymentRecord) ([]domain.Node, error) {
	var nodes []domain.Node

	for _, rec := range records {
		owner, err := in.ownerRef(rec.OwnerIdent.String(), domain.CategoryRawEmployment)
		if err != nil {
			return nil, err
		}

		payload := domain.RawEmploymentPayload{
			Periode:     rec.Period,
			Employer:    rec.Employer,
			Percent:     rec.Percent,
			SourceRowID: rec.SourceRowID,
		}
		ref := in.Resolver.Node(domain.CategoryRawEmployment, owner, rec.SourceRowID, payload)
		n, err := node(ref, domain.CategoryRawEmployment, owner, "", domain.SourceOfficial, nil, payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
