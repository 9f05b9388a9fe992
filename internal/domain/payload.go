package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	dErrors "bidrag/pkg/domain-errors"
)

// Payload structs, one per category. The node's Category is the variant tag;
// DecodePayload is the single dispatch point from tag to concrete type.

// PersonPayload identifies a party to the case. Members without a national
// identifier are keyed by name + birth date (Ident empty).
type PersonPayload struct {
	Ident     string    `json:"ident,omitempty"`
	Name      string    `json:"navn,omitempty"`
	BirthDate time.Time `json:"fødselsdato"`
}

// RawIncomePayload is an income row as fetched from the income register.
type RawIncomePayload struct {
	Periode     Period  `json:"periode"`
	Amount      float64 `json:"beløp"`
	Kind        string  `json:"inntektstype"`
	SourceRowID string  `json:"kildeId"`
}

// IncomePeriodPayload is a derived reporting period aggregating raw income
// rows. GapExempt marks income kinds that tolerate timeline gaps.
type IncomePeriodPayload struct {
	Periode   Period  `json:"periode"`
	Amount    float64 `json:"beløp"`
	Kind      string  `json:"inntektstype"`
	GapExempt bool    `json:"gjelderIkkeLøpende,omitempty"`
}

// RawHouseholdPayload is a household membership row from the population
// register.
type RawHouseholdPayload struct {
	Periode      Period `json:"periode"`
	MemberIdent  string `json:"ident,omitempty"`
	MemberName   string `json:"navn,omitempty"`
	Relationship string `json:"relasjon,omitempty"`
	SourceRowID  string `json:"kildeId"`
}

// CohabitationPayload is a bostatus period for one household member.
type CohabitationPayload struct {
	Periode Period `json:"periode"`
	Status  string `json:"bostatus"`
}

// RawCivilStatusPayload is a civil-status row from the population register.
type RawCivilStatusPayload struct {
	Periode     Period `json:"periode"`
	Status      string `json:"sivilstand"`
	SourceRowID string `json:"kildeId"`
}

// CivilStatusPayload is a sivilstand period for the case owner.
type CivilStatusPayload struct {
	Periode Period `json:"periode"`
	Status  string `json:"sivilstand"`
}

// RawEmploymentPayload is an arbeidsforhold row. Employment history tolerates
// gaps; it is never gap-checked.
type RawEmploymentPayload struct {
	Periode     Period  `json:"periode"`
	Employer    string  `json:"arbeidsgiver"`
	Percent     float64 `json:"stillingsprosent,omitempty"`
	SourceRowID string  `json:"kildeId"`
}

// RawAllowancePayload is an utvidet barnetrygd row from the benefits register.
type RawAllowancePayload struct {
	Periode     Period  `json:"periode"`
	Amount      float64 `json:"beløp"`
	SourceRowID string  `json:"kildeId"`
}

// AllowancePeriodPayload is a derived allowance period.
type AllowancePeriodPayload struct {
	Periode Period  `json:"periode"`
	Amount  float64 `json:"beløp"`
}

// VisitationPeriodPayload is a samvær period for one child/payer pair.
type VisitationPeriodPayload struct {
	Periode Period `json:"periode"`
	Class   string `json:"samværsklasse"`
}

// VacationBlock is one holiday block in a visitation calendar.
type VacationBlock struct {
	Kind                 string  `json:"type"`
	PerYear              float64 `json:"antallPerÅr"`
	NightsWithPrimary    float64 `json:"netterHosHovedomsorg"`
	NightsWithNonPrimary float64 `json:"netterHosSamværsforelder"`
}

// VisitationCalcPayload is the structured calendar behind a computed
// visitation class.
type VisitationCalcPayload struct {
	RegularOvernightsPerCycle float64         `json:"netterPerSyklus"`
	CycleDays                 int             `json:"syklusLengde"`
	VacationBlocks            []VacationBlock `json:"ferieblokker"`
}

// FeePayload is a gebyr decision for one party.
type FeePayload struct {
	Exempt bool   `json:"fritatt"`
	Reason string `json:"begrunnelse,omitempty"`
}

// NotatPayload is free-text case documentation; it has no single owner.
type NotatPayload struct {
	Kind string `json:"type"`
	Text string `json:"innhold"`
}

// ThresholdBracket is one row of the visitation threshold table.
type ThresholdBracket struct {
	Class      string  `json:"samværsklasse"`
	NightsFrom float64 `json:"antallNetterFra"`
	NightsTo   float64 `json:"antallNetterTil"`
}

// ThresholdTablePayload snapshots the threshold table a sub-calculation used,
// so the sub-result stays self-explanatory without the full graph.
type ThresholdTablePayload struct {
	Brackets []ThresholdBracket `json:"klasser"`
}

// ResultPayload carries opaque calculation-engine output.
type ResultPayload struct {
	Kind    string          `json:"type"`
	Content json.RawMessage `json:"innhold"`
}

// DecodePayload decodes a node payload into its concrete type based on the
// category tag. Adding a category is a one-place change here plus the builder
// dispatch table.
func DecodePayload(c Category, raw json.RawMessage) (any, error) {
	var v any
	switch {
	case c.IsPerson():
		v = &PersonPayload{}
	default:
		switch c {
		case CategoryRawIncome:
			v = &RawIncomePayload{}
		case CategoryIncomePeriod:
			v = &IncomePeriodPayload{}
		case CategoryRawHousehold:
			v = &RawHouseholdPayload{}
		case CategoryCohabitationPeriod:
			v = &CohabitationPayload{}
		case CategoryRawCivilStatus:
			v = &RawCivilStatusPayload{}
		case CategoryCivilStatusPeriod:
			v = &CivilStatusPayload{}
		case CategoryRawEmployment:
			v = &RawEmploymentPayload{}
		case CategoryRawAllowance:
			v = &RawAllowancePayload{}
		case CategoryAllowancePeriod:
			v = &AllowancePeriodPayload{}
		case CategoryVisitationPeriod:
			v = &VisitationPeriodPayload{}
		case CategoryVisitationCalc:
			v = &VisitationCalcPayload{}
		case CategoryFee:
			v = &FeePayload{}
		case CategoryNotat:
			v = &NotatPayload{}
		case CategoryThresholdTable:
			v = &ThresholdTablePayload{}
		case CategoryResult:
			v = &ResultPayload{}
		default:
			return nil, dErrors.New(dErrors.CodeUnknownCategory, fmt.Sprintf("no payload type for category %q", c))
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", c, err)
	}
	return v, nil
}

// PeriodValueOf projects a period-bearing node onto its value-comparable form.
// Returns ok=false for categories without a period.
func PeriodValueOf(n Node) (PeriodValue, bool, error) {
	if !n.Category.IsPeriodBearing() {
		return PeriodValue{}, false, nil
	}
	decoded, err := DecodePayload(n.Category, n.Payload)
	if err != nil {
		return PeriodValue{}, false, err
	}
	switch p := decoded.(type) {
	case *RawIncomePayload:
		return PeriodValue{Period: p.Periode, Value: p.Kind + ":" + formatAmount(p.Amount)}, true, nil
	case *IncomePeriodPayload:
		return PeriodValue{Period: p.Periode, Value: p.Kind + ":" + formatAmount(p.Amount)}, true, nil
	case *RawHouseholdPayload:
		return PeriodValue{Period: p.Periode, Value: p.Relationship}, true, nil
	case *CohabitationPayload:
		return PeriodValue{Period: p.Periode, Value: p.Status}, true, nil
	case *RawCivilStatusPayload:
		return PeriodValue{Period: p.Periode, Value: p.Status}, true, nil
	case *CivilStatusPayload:
		return PeriodValue{Period: p.Periode, Value: p.Status}, true, nil
	case *RawEmploymentPayload:
		return PeriodValue{Period: p.Periode, Value: p.Employer + ":" + formatAmount(p.Percent)}, true, nil
	case *RawAllowancePayload:
		return PeriodValue{Period: p.Periode, Value: formatAmount(p.Amount)}, true, nil
	case *AllowancePeriodPayload:
		return PeriodValue{Period: p.Periode, Value: formatAmount(p.Amount)}, true, nil
	case *VisitationPeriodPayload:
		return PeriodValue{Period: p.Periode, Value: p.Class}, true, nil
	}
	return PeriodValue{}, false, nil
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
