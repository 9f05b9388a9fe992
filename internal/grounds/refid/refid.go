// Package refid derives deterministic node references.
//
// A reference is category + "_" + ownerDiscriminator + "_" + contentDiscriminator.
// The owner discriminator is the owner's own reference (persons resolve first,
// bottom-up), and the content discriminator is a stable slug of the natural key
// when the source system supplies one, otherwise a hash of the canonical
// content. Rebuilding from byte-identical input yields byte-identical
// references; reconciliation and deduplication rely on this.
package refid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"bidrag/internal/domain"
)

// Resolver assigns references within one graph build. It tracks assigned
// references so two distinct logical facts that would collide on content get
// an explicit sequence suffix in encounter order. Builders must iterate raw
// records in source order for suffixes to be stable across rebuilds.
type Resolver struct {
	taken map[string]int
}

func New() *Resolver {
	return &Resolver{taken: make(map[string]int)}
}

// Person derives a person node reference. Persons carry no owner
// discriminator; the content discriminator is the national identifier, or a
// hash of name + birth date for members without one.
func (r *Resolver) Person(c domain.Category, ident, name, birthDate string) string {
	disc := slug(ident)
	if disc == "" {
		disc = ContentHash(struct {
			Name      string `json:"navn"`
			BirthDate string `json:"fødselsdato"`
		}{name, birthDate})
	}
	return r.claim(prefix(c) + "_" + disc)
}

// Node derives a fact node reference under an owner. naturalKey is the source
// system's row id when one exists; content is the category payload used as a
// fallback key for manually entered data.
func (r *Resolver) Node(c domain.Category, ownerRef, naturalKey string, content any) string {
	disc := slug(naturalKey)
	if disc == "" {
		disc = ContentHash(content)
	}
	base := prefix(c)
	if ownerRef != "" {
		base += "_" + ownerRef
	}
	return r.claim(base + "_" + disc)
}

// claim registers a candidate reference, appending "_2", "_3", … on collision.
func (r *Resolver) claim(candidate string) string {
	n := r.taken[candidate]
	r.taken[candidate] = n + 1
	if n == 0 {
		return candidate
	}
	return fmt.Sprintf("%s_%d", candidate, n+1)
}

// ContentHash returns a short stable hash of the canonical JSON encoding of
// content. Go marshals struct fields in declaration order, so identical values
// hash identically.
func ContentHash(content any) string {
	b, err := json.Marshal(content)
	if err != nil {
		// Payload types are plain data; marshal failure means a programming
		// error, not bad input.
		panic(fmt.Sprintf("refid: unhashable content: %v", err))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:12]
}

func prefix(c domain.Category) string {
	return strings.ToLower(string(c))
}

// slug normalizes a natural key for use inside a reference: lowercase, with
// anything outside [a-z0-9] collapsed to '-'.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
