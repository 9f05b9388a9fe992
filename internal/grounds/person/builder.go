// Package person builds the canonical person nodes every other grounds builder
// hangs facts on.
package person

import (
	"context"
	"errors"
	"log/slog"

	"bidrag/internal/domain"
	"bidrag/internal/grounds/refid"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
)

// IdentityResolver looks up the newest known identity for a national
// identifier. Returns sentinel.ErrNotFound when no newer identity exists.
// Injected explicitly; builders never resolve collaborators ambiently.
type IdentityResolver interface {
	Newest(ctx context.Context, ident id.Ident) (id.Ident, error)
}

// Refs maps party keys (see domain.Party.Key) to assigned person references.
type Refs map[string]string

// Builder produces one person node per distinct identity in a case.
type Builder struct {
	resolver IdentityResolver
	logger   *slog.Logger
}

func NewBuilder(resolver IdentityResolver, logger *slog.Logger) *Builder {
	return &Builder{resolver: resolver, logger: logger}
}

// Build returns person nodes for the case's parties. With a non-zero
// targetChild only that child is included alongside all non-child roles;
// otherwise every child gets a node. Household-member identities superseded in
// the register are built under the newest identity; resolution failure falls
// back to the identity as recorded.
func (b *Builder) Build(ctx context.Context, r *refid.Resolver, c domain.Case, targetChild id.Ident) ([]domain.Node, Refs, error) {
	var nodes []domain.Node
	refs := make(Refs, len(c.Parties))

	for _, party := range c.Parties {
		if party.Role == domain.RoleChild && !targetChild.IsZero() && party.Ident != targetChild {
			continue
		}

		resolved := b.resolveIdentity(ctx, party)
		key := party.Key()
		identityKey := key
		if !resolved.IsZero() {
			identityKey = resolved.String()
		}
		if ref, done := refs[identityKey]; done {
			// Two roles resolving to the same identity share one node.
			refs[key] = ref
			continue
		}

		category, err := domain.PersonCategoryForRole(party.Role)
		if err != nil {
			return nil, nil, err
		}

		birthDate := domain.DateOf(party.BirthDate)
		ref := r.Person(category, resolved.String(), party.Name, birthDate.Format("2006-01-02"))
		payload, err := domain.MarshalPayload(domain.PersonPayload{
			Ident:     resolved.String(),
			Name:      party.Name,
			BirthDate: birthDate,
		})
		if err != nil {
			return nil, nil, err
		}

		nodes = append(nodes, domain.Node{
			Reference: ref,
			Category:  category,
			Payload:   payload,
		})
		refs[identityKey] = ref
		refs[key] = ref
	}

	return nodes, refs, nil
}

// resolveIdentity returns the newest identity for household members, falling
// back to the recorded one when lookup fails. Non-household roles are always
// used as recorded; their identities are case-managed.
func (b *Builder) resolveIdentity(ctx context.Context, party domain.Party) id.Ident {
	if party.Role != domain.RoleHouseholdMember || party.Ident.IsZero() || b.resolver == nil {
		return party.Ident
	}
	newest, err := b.resolver.Newest(ctx, party.Ident)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) && b.logger != nil {
			b.logger.WarnContext(ctx, "identity resolution failed, using recorded identity",
				"error", err,
			)
		}
		return party.Ident
	}
	return newest
}
