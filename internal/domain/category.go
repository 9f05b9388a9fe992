package domain

import (
	"fmt"

	dErrors "bidrag/pkg/domain-errors"
)

// Category is the closed tag identifying what kind of fact a node carries.
// Values follow the grounds exchange format.
type Category string

// Person node categories, one per case role.
const (
	CategoryPersonRecipient   Category = "PERSON_BIDRAGSMOTTAKER"
	CategoryPersonPayer       Category = "PERSON_BIDRAGSPLIKTIG"
	CategoryPersonSearchChild Category = "PERSON_SØKNADSBARN"
	CategoryPersonHousehold   Category = "PERSON_HUSSTANDSMEDLEM"
	CategoryPersonOther       Category = "PERSON_ANNEN"
)

// Fact node categories. INNHENTET_* are raw source nodes as fetched from the
// registers; the *_PERIODE categories are the derived period facts calculation
// engines consume.
const (
	CategoryRawIncome          Category = "INNHENTET_INNTEKT"
	CategoryIncomePeriod       Category = "INNTEKT_RAPPORTERING_PERIODE"
	CategoryRawHousehold       Category = "INNHENTET_HUSSTANDSMEDLEM"
	CategoryCohabitationPeriod Category = "BOSTATUS_PERIODE"
	CategoryRawCivilStatus     Category = "INNHENTET_SIVILSTAND"
	CategoryCivilStatusPeriod  Category = "SIVILSTAND_PERIODE"
	CategoryRawEmployment      Category = "INNHENTET_ARBEIDSFORHOLD"
	CategoryRawAllowance       Category = "INNHENTET_UTVIDET_BARNETRYGD"
	CategoryAllowancePeriod    Category = "UTVIDET_BARNETRYGD_PERIODE"
	CategoryVisitationPeriod   Category = "SAMVÆRSPERIODE"
	CategoryVisitationCalc     Category = "SAMVÆRSKALKULATOR"
	CategoryFee                Category = "GEBYR"
	CategoryNotat              Category = "NOTAT"
)

// Reference-table and result categories.
const (
	CategoryThresholdTable Category = "SJABLON_SAMVÆRSKLASSE"
	CategoryResult         Category = "DELBEREGNING"
)

var validCategories = map[Category]bool{
	CategoryPersonRecipient:    true,
	CategoryPersonPayer:        true,
	CategoryPersonSearchChild:  true,
	CategoryPersonHousehold:    true,
	CategoryPersonOther:        true,
	CategoryRawIncome:          true,
	CategoryIncomePeriod:       true,
	CategoryRawHousehold:       true,
	CategoryCohabitationPeriod: true,
	CategoryRawCivilStatus:     true,
	CategoryCivilStatusPeriod:  true,
	CategoryRawEmployment:      true,
	CategoryRawAllowance:       true,
	CategoryAllowancePeriod:    true,
	CategoryVisitationPeriod:   true,
	CategoryVisitationCalc:     true,
	CategoryFee:                true,
	CategoryNotat:              true,
	CategoryThresholdTable:     true,
	CategoryResult:             true,
}

// ParseCategory constructs a Category from external input.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !validCategories[c] {
		return "", dErrors.New(dErrors.CodeUnknownCategory, fmt.Sprintf("unknown category %q", s))
	}
	return c, nil
}

// IsPerson reports whether the category is a person node category.
func (c Category) IsPerson() bool {
	switch c {
	case CategoryPersonRecipient, CategoryPersonPayer, CategoryPersonSearchChild,
		CategoryPersonHousehold, CategoryPersonOther:
		return true
	}
	return false
}

// IsPeriodBearing reports whether payloads of this category carry a period.
func (c Category) IsPeriodBearing() bool {
	switch c {
	case CategoryIncomePeriod, CategoryCohabitationPeriod, CategoryCivilStatusPeriod,
		CategoryVisitationPeriod, CategoryAllowancePeriod,
		CategoryRawIncome, CategoryRawHousehold, CategoryRawCivilStatus,
		CategoryRawEmployment, CategoryRawAllowance:
		return true
	}
	return false
}

// IsReconcilable reports whether the category takes part in reconciliation:
// officially sourced, period-bearing raw categories whose fetched generations
// a case worker activates.
func (c Category) IsReconcilable() bool {
	switch c {
	case CategoryRawIncome, CategoryRawHousehold, CategoryRawCivilStatus,
		CategoryRawEmployment, CategoryRawAllowance:
		return true
	}
	return false
}

// Role identifies a party's function in a case.
type Role string

const (
	RoleRecipient       Role = "BIDRAGSMOTTAKER"
	RolePayer           Role = "BIDRAGSPLIKTIG"
	RoleChild           Role = "SØKNADSBARN"
	RoleHouseholdMember Role = "HUSSTANDSMEDLEM"
	RoleOther           Role = "ANNEN"
)

// PersonCategoryForRole maps a case role to its person node category.
func PersonCategoryForRole(r Role) (Category, error) {
	switch r {
	case RoleRecipient:
		return CategoryPersonRecipient, nil
	case RolePayer:
		return CategoryPersonPayer, nil
	case RoleChild:
		return CategoryPersonSearchChild, nil
	case RoleHouseholdMember:
		return CategoryPersonHousehold, nil
	case RoleOther:
		return CategoryPersonOther, nil
	}
	return "", dErrors.New(dErrors.CodeUnknownCategory, fmt.Sprintf("unknown role %q", r))
}
