package fact

import (
	"bidrag/internal/domain"
	"bidrag/internal/registry"
)

// BuildVisitation converts samvær records into visitation-period nodes owned
// by the bidragspliktig and scoped to the child the visitation concerns. A
// record carrying a structured calendar additionally yields a calculator node
// the period depends on, so the class stays explainable. Visitation is entered
// from agreements; there is no official register, so every node is manual and
// the calculator dependency is the only provenance edge.
func BuildVisitation(in Input, records []registry.VisitationRecord) ([]domain.Node, error) {
	var nodes []domain.Node

	for _, rec := range records {
		if in.skipForTarget(rec.ChildIdent) {
			continue
		}
		owner, err := in.ownerRef(in.PayerKey, domain.CategoryVisitationPeriod)
		if err != nil {
			return nil, err
		}
		childRef := in.childRef(rec.ChildIdent)

		var deps []string
		if rec.Calendar != nil {
			calcRef := in.Resolver.Node(domain.CategoryVisitationCalc, owner, "", *rec.Calendar)
			calcNode, err := node(calcRef, domain.CategoryVisitationCalc, owner, childRef, domain.SourceManual, nil, *rec.Calendar)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, calcNode)
			deps = append(deps, calcRef)
		}

		payload := domain.VisitationPeriodPayload{Periode: rec.Period, Class: rec.Class}
		ref := in.Resolver.Node(domain.CategoryVisitationPeriod, owner, "", payload)
		n, err := node(ref, domain.CategoryVisitationPeriod, owner, childRef, domain.SourceManual, deps, payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
