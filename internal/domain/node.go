// Package domain holds the grounds-graph data model: nodes, periods, grounds
// sets, and the change report produced by reconciliation.
//
// A Node is the atomic unit of the graph. Relationships are one-directional
// lookups by reference string; nothing holds pointers to other nodes and
// nothing is mutated after construction. JSON field names follow the grounds
// exchange format (referanse, gjelderReferanse, grunnlagsreferanseListe, …).
package domain

import (
	"encoding/json"
	"fmt"

	dErrors "bidrag/pkg/domain-errors"
)

// Source states how a fact entered the case.
type Source string

const (
	// SourceOfficial marks facts fetched from an official register. They must
	// carry provenance back to at least one raw source node.
	SourceOfficial Source = "INNHENTET"
	// SourceManual marks facts entered by a case worker. They never depend on
	// raw source nodes.
	SourceManual Source = "MANUELT"
)

// Node is one referenceable fact or derived value in a grounds graph.
type Node struct {
	// Reference is globally unique and deterministically derived; rebuilding
	// the same logical fact from the same input yields the same reference.
	Reference string `json:"referanse"`

	// Category tags what kind of fact this is.
	Category Category `json:"type"`

	// OwnerReference points at the person node this fact is attributed to.
	// Empty for facts with no single owner (e.g. a case-wide notat).
	OwnerReference string `json:"gjelderReferanse,omitempty"`

	// SubjectChildReference points at the child the fact concerns, when the
	// fact is child-specific. Empty when the fact is not child-scoped or the
	// child is unknown to the case.
	SubjectChildReference string `json:"gjelderBarnReferanse,omitempty"`

	// Source is set for fact nodes; person and reference-table nodes leave it
	// empty.
	Source Source `json:"kilde,omitempty"`

	// DependsOn lists references of the nodes this node was derived from, in
	// derivation order.
	DependsOn []string `json:"grunnlagsreferanseListe,omitempty"`

	// Payload is the category-specific content, encoded once at construction.
	Payload json.RawMessage `json:"innhold"`
}

// MarshalPayload encodes a typed payload for storage on a Node. Encoding at
// construction keeps nodes value-comparable and immutable.
func MarshalPayload(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}

// GroundsSet is an ordered, reference-deduplicated collection of nodes: the
// full case grounds, a per-child calculation subset, or a sub-calculation
// slice.
type GroundsSet []Node

// ByReference builds a lookup index. Build it once per set and treat it as
// read-only.
func (g GroundsSet) ByReference() map[string]Node {
	idx := make(map[string]Node, len(g))
	for _, n := range g {
		idx[n.Reference] = n
	}
	return idx
}

// References returns the node references in set order.
func (g GroundsSet) References() []string {
	refs := make([]string, len(g))
	for i, n := range g {
		refs[i] = n.Reference
	}
	return refs
}

// Filter returns the nodes matching pred, preserving order.
func (g GroundsSet) Filter(pred func(Node) bool) GroundsSet {
	var out GroundsSet
	for _, n := range g {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

// ByCategory returns the nodes of one category, preserving order.
func (g GroundsSet) ByCategory(c Category) GroundsSet {
	return g.Filter(func(n Node) bool { return n.Category == c })
}

// CheckIntegrity verifies reference uniqueness and provenance closure: no two
// nodes share a reference, and every ownerReference, subjectChildReference,
// and dependsOn entry resolves to a node in the set.
func (g GroundsSet) CheckIntegrity() error {
	idx := make(map[string]struct{}, len(g))
	for _, n := range g {
		if _, dup := idx[n.Reference]; dup {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("duplicate reference %q", n.Reference))
		}
		idx[n.Reference] = struct{}{}
	}
	for _, n := range g {
		if n.OwnerReference != "" {
			if _, ok := idx[n.OwnerReference]; !ok {
				return dErrors.New(dErrors.CodeMissingOwner,
					fmt.Sprintf("node %q owner %q not in set", n.Reference, n.OwnerReference))
			}
		}
		if n.SubjectChildReference != "" {
			if _, ok := idx[n.SubjectChildReference]; !ok {
				return dErrors.New(dErrors.CodeMissingOwner,
					fmt.Sprintf("node %q subject child %q not in set", n.Reference, n.SubjectChildReference))
			}
		}
		for _, dep := range n.DependsOn {
			if _, ok := idx[dep]; !ok {
				return dErrors.New(dErrors.CodeBrokenProvenance,
					fmt.Sprintf("node %q depends on %q which is not in set", n.Reference, dep))
			}
		}
	}
	return nil
}
