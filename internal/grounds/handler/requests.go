package handler

import (
	"strings"

	"bidrag/internal/grounds/assemble"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
)

// Build modes accepted by POST /cases/{caseID}/grounds/build.
const (
	ModeFull       = "FULLT"
	ModeChild      = "SØKNADSBARN"
	ModeVisitation = "SAMVÆR"
)

// BuildRequest is the HTTP request body for POST /cases/{caseID}/grounds/build.
type BuildRequest struct {
	Mode        string `json:"modus"`
	Child       string `json:"søknadsbarn,omitempty"`
	Calculation string `json:"beregningstype,omitempty"`

	// Parsed values (populated by Validate)
	parsedChild       id.Ident
	parsedCalculation assemble.CalculationType
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *BuildRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Mode = strings.ToUpper(strings.TrimSpace(r.Mode))
	if r.Mode == "" {
		r.Mode = ModeFull
	}
	switch r.Mode {
	case ModeFull, ModeChild, ModeVisitation:
	default:
		return dErrors.New(dErrors.CodeValidation, "modus must be FULLT, SØKNADSBARN or SAMVÆR")
	}

	r.Child = strings.TrimSpace(r.Child)
	if r.Mode != ModeFull {
		if r.Child == "" {
			return dErrors.New(dErrors.CodeValidation, "søknadsbarn is required for scoped builds")
		}
		child, err := id.ParseIdent(r.Child)
		if err != nil {
			return err
		}
		r.parsedChild = child
	} else if r.Child != "" {
		return dErrors.New(dErrors.CodeValidation, "søknadsbarn is only valid for scoped builds")
	}

	r.Calculation = strings.ToUpper(strings.TrimSpace(r.Calculation))
	switch r.Mode {
	case ModeChild:
		if r.Calculation == "" {
			r.Calculation = string(assemble.CalcBidrag)
		}
		switch assemble.CalculationType(r.Calculation) {
		case assemble.CalcBidrag, assemble.CalcForskudd, assemble.CalcSærbidrag:
			r.parsedCalculation = assemble.CalculationType(r.Calculation)
		default:
			return dErrors.New(dErrors.CodeValidation, "beregningstype must be BIDRAG, FORSKUDD or SÆRBIDRAG")
		}
	default:
		if r.Calculation != "" {
			return dErrors.New(dErrors.CodeValidation, "beregningstype is only valid for søknadsbarn builds")
		}
	}

	return nil
}

// ParsedChild returns the validated target child ident.
func (r *BuildRequest) ParsedChild() id.Ident {
	return r.parsedChild
}

// ParsedCalculation returns the validated calculation type.
func (r *BuildRequest) ParsedCalculation() assemble.CalculationType {
	return r.parsedCalculation
}
