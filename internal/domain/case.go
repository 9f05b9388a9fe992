package domain

import (
	"time"

	id "bidrag/pkg/domain"
)

// Party is one person attached to a case. Household members fetched from the
// population register may lack a national identifier; they are keyed by name +
// birth date instead.
type Party struct {
	Role      Role
	Ident     id.Ident
	Name      string
	BirthDate time.Time
}

// Key returns the stable identity key for the party: the national identifier
// when present, otherwise name + birth date.
func (p Party) Key() string {
	if !p.Ident.IsZero() {
		return p.Ident.String()
	}
	return p.Name + "|" + DateOf(p.BirthDate).Format("2006-01-02")
}

// Case is the slice of a child-support case the grounds builder needs: the
// parties and the anchor date coverage is validated from.
type Case struct {
	ID id.CaseID

	// Virkningstidspunkt is the date the decision takes legal effect; period
	// timelines must cover from here.
	Virkningstidspunkt time.Time

	Parties []Party
}

// Children returns the søknadsbarn parties in case order.
func (c Case) Children() []Party {
	var out []Party
	for _, p := range c.Parties {
		if p.Role == RoleChild {
			out = append(out, p)
		}
	}
	return out
}
