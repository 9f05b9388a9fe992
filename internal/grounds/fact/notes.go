package fact

import (
	"bidrag/internal/domain"
	"bidrag/internal/registry"
)

// BuildNotes converts case documentation into ownerless notat nodes.
func BuildNotes(in Input, records []registry.NoteRecord) ([]domain.Node, error) {
	var nodes []domain.Node

	for _, rec := range records {
		payload := domain.NotatPayload{Kind: rec.Kind, Text: rec.Text}
		ref := in.Resolver.Node(domain.CategoryNotat, "", "", payload)
		n, err := node(ref, domain.CategoryNotat, "", "", domain.SourceManual, nil, payload)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
