package fact

import (
	"fmt"

	"bidrag/internal/domain"
	"bidrag/internal/registry"
	dErrors "bidrag/pkg/domain-errors"
)

// BuildFees converts gebyr decisions into fee nodes. Fee decisions are made in
// the case itself; a record claiming official sourcing has no register to
// trace back to and fails the build rather than losing the audit trail.
func BuildFees(in Input, records []registry.FeeRecord) ([]domain.Node, error) {
	var nodes []domain.Node

	for _, rec := range records {
		if !rec.Manual {
			return nil, dErrors.New(dErrors.CodeBrokenProvenance,
				fmt.Sprintf("official gebyr for %q has no source register", rec.OwnerIdent))
		}
		owner, err := in.ownerRef(rec.OwnerIdent.String(), domain.CategoryFee)
		if err != nil {
			return nil, err
		}

		payload := domain.FeePayload{Exempt: rec.Exempt, Reason: rec.Reason}
		ref := in.Resolver.Node(domain.CategoryFee, owner, "", payload)
		n, err := node(ref, domain.CategoryFee, owner, "", domain.SourceManual, nil, payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
