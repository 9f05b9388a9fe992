// Package fact builds typed fact nodes from raw collaborator records. One
// builder per category, all honoring the same contract: owner references
// resolve to person nodes, officially sourced facts carry provenance back to
// raw source nodes, manual facts never do, and child-scoped facts respect the
// build's target child.
package fact

import (
	"fmt"
	"time"

	"bidrag/internal/domain"
	"bidrag/internal/grounds/person"
	"bidrag/internal/grounds/refid"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
	strutil "bidrag/pkg/platform/strings"
)

// Input is the shared builder input: assigned person references, the case's
// anchor date, and the optional target child a calculation run is scoped to.
type Input struct {
	Resolver *refid.Resolver
	Persons  person.Refs
	// Children marks which idents are søknadsbarn; only those become subject
	// child references.
	Children    map[id.Ident]bool
	Anchor      time.Time
	TargetChild id.Ident

	// RecipientKey and PayerKey are the party keys of the bidragsmottaker and
	// bidragspliktig; case-wide facts (sivilstand, allowances) attach to them.
	RecipientKey string
	PayerKey     string
}

// ownerRef resolves a person key to its node reference. Officially sourced
// facts that cannot be attributed to a known person abort the build.
func (in Input) ownerRef(key string, category domain.Category) (string, error) {
	if ref, ok := in.Persons[key]; ok {
		return ref, nil
	}
	return "", dErrors.New(dErrors.CodeMissingOwner,
		fmt.Sprintf("%s fact owner %q has no person node", category, key))
}

// childRef resolves an optional child scope. An ident that is not a known
// søknadsbarn yields an empty reference: the fact is kept but deliberately
// unscoped, never silently pointed at a dangling reference.
func (in Input) childRef(child id.Ident) string {
	if child.IsZero() || !in.Children[child] {
		return ""
	}
	return in.Persons[child.String()]
}

// skipForTarget reports whether a child-scoped fact belongs to a different
// child than the build's target. Facts with no child scope are always kept.
func (in Input) skipForTarget(child id.Ident) bool {
	if in.TargetChild.IsZero() || child.IsZero() || !in.Children[child] {
		return false
	}
	return child != in.TargetChild
}

// node assembles a fact node, deduplicating the provenance list.
func node(ref string, c domain.Category, owner, subjectChild string, src domain.Source, dependsOn []string, payload any) (domain.Node, error) {
	raw, err := domain.MarshalPayload(payload)
	if err != nil {
		return domain.Node{}, err
	}
	return domain.Node{
		Reference:             ref,
		Category:              c,
		OwnerReference:        owner,
		SubjectChildReference: subjectChild,
		Source:                src,
		DependsOn:             strutil.DedupeAndTrim(dependsOn),
		Payload:               raw,
	}, nil
}

// requireProvenance guards the audit trail: an officially sourced fact with no
// raw source nodes is a fatal build error, never a silently thinner graph.
func requireProvenance(c domain.Category, ref string, dependsOn []string) error {
	if len(dependsOn) == 0 {
		return dErrors.New(dErrors.CodeBrokenProvenance,
			fmt.Sprintf("official %s fact %q has no raw source nodes", c, ref))
	}
	return nil
}

func sourceOf(manual bool) domain.Source {
	if manual {
		return domain.SourceManual
	}
	return domain.SourceOfficial
}
