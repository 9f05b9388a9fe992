// Package domain provides typed identifiers shared across the service.
//
// IDs are distinct named types so a CaseID can never be passed where a BuildID
// is expected. Construct via the Parse functions at trust boundaries; direct
// casting bypasses validation.
package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	dErrors "bidrag/pkg/domain-errors"
)

// CaseID identifies a child-support case.
type CaseID uuid.UUID

// BuildID identifies one grounds build run.
type BuildID uuid.UUID

// Ident is a national identifier (fødselsnummer or d-nummer), 11 digits.
// Household members without one are keyed by name + birth date instead; see
// the person builder.
type Ident string

// NewBuildID allocates a fresh build run id.
func NewBuildID() BuildID {
	return BuildID(uuid.New())
}

func (c CaseID) String() string  { return uuid.UUID(c).String() }
func (b BuildID) String() string { return uuid.UUID(b).String() }
func (i Ident) String() string   { return string(i) }

// IsZero reports whether the ident is unset.
func (i Ident) IsZero() bool { return i == "" }

// ParseCaseID validates and returns a CaseID.
// IDs must be valid, non-nil UUIDs.
func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case id")
	if err != nil {
		return CaseID{}, err
	}
	return CaseID(u), nil
}

// ParseBuildID validates and returns a BuildID.
func ParseBuildID(s string) (BuildID, error) {
	u, err := parseUUID(s, "build id")
	if err != nil {
		return BuildID{}, err
	}
	return BuildID(u), nil
}

// ParseIdent validates a national identifier: exactly 11 digits.
// The control-digit check belongs to the population registry; this only guards
// against obviously malformed input crossing the boundary.
func ParseIdent(s string) (Ident, error) {
	s = strings.TrimSpace(s)
	if len(s) != 11 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "ident must be 11 digits")
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "ident must be 11 digits")
		}
	}
	return Ident(s), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be the nil UUID")
	}
	return u, nil
}
