package visitation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidrag/internal/domain"
	"bidrag/internal/registry"
	dErrors "bidrag/pkg/domain-errors"
)

func standardRows() []registry.ThresholdRow {
	return []registry.ThresholdRow{
		{Class: "INGEN_SAMVÆR", NightsFrom: 0, NightsTo: 1},
		{Class: "SAMVÆRSKLASSE_1", NightsFrom: 2, NightsTo: 3},
		{Class: "SAMVÆRSKLASSE_2", NightsFrom: 4, NightsTo: 8},
		{Class: "SAMVÆRSKLASSE_3", NightsFrom: 9, NightsTo: 13},
		{Class: "SAMVÆRSKLASSE_4", NightsFrom: 14, NightsTo: 15},
	}
}

func standardTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(standardRows(), time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return table
}

func TestClassify_RegularCycleWithVacations(t *testing.T) {
	// 4 overnights per 14-day cycle; vacations total 92 nights with the
	// primary parent and 14 with the non-primary over the 2-year window.
	// 624 eligible days → 44.57 cycles → (44.57×4 + 14)/24 = 8.01 → 8.
	cal := domain.VisitationCalcPayload{
		RegularOvernightsPerCycle: 4,
		CycleDays:                 14,
		VacationBlocks: []domain.VacationBlock{
			{Kind: "SOMMERFERIE", PerYear: 1, NightsWithPrimary: 32, NightsWithNonPrimary: 7},
			{Kind: "JULEFERIE", PerYear: 1, NightsWithPrimary: 14},
		},
	}

	class, err := Classify(cal, standardTable(t))
	require.NoError(t, err)
	assert.Equal(t, "SAMVÆRSKLASSE_2", class)
}

func TestClassify_AboveTopBracketClampsToHighestClass(t *testing.T) {
	cal := domain.VisitationCalcPayload{
		RegularOvernightsPerCycle: 14,
		CycleDays:                 14,
	}

	class, err := Classify(cal, standardTable(t))
	require.NoError(t, err)
	assert.Equal(t, "SAMVÆRSKLASSE_4", class)
}

func TestClassify_NoVisitation(t *testing.T) {
	cal := domain.VisitationCalcPayload{CycleDays: 14}

	class, err := Classify(cal, standardTable(t))
	require.NoError(t, err)
	assert.Equal(t, "INGEN_SAMVÆR", class)
}

func TestClassify_InvalidCalendar(t *testing.T) {
	_, err := Classify(domain.VisitationCalcPayload{}, standardTable(t))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Classify(domain.VisitationCalcPayload{
		CycleDays: 14,
		VacationBlocks: []domain.VacationBlock{
			{Kind: "FERIE", PerYear: 10, NightsWithPrimary: 40},
		},
	}, standardTable(t))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestClassify_NilTable(t *testing.T) {
	_, err := Classify(domain.VisitationCalcPayload{CycleDays: 14}, nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnresolvableTable))
}

func TestNewTable_FiltersExpiredRows(t *testing.T) {
	now := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := append(standardRows(), registry.ThresholdRow{
		Class: "SAMVÆRSKLASSE_2", NightsFrom: 4, NightsTo: 8, ValidUntil: &expired,
	})

	table, err := NewTable(rows, now)
	require.NoError(t, err)
	assert.Len(t, table.Brackets(), 5)
}

func TestNewTable_Unresolvable(t *testing.T) {
	now := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := map[string][]registry.ThresholdRow{
		"empty": nil,
		"duplicate class": append(standardRows(), registry.ThresholdRow{
			Class: "SAMVÆRSKLASSE_2", NightsFrom: 16, NightsTo: 20,
		}),
		"hole between brackets": {
			{Class: "INGEN_SAMVÆR", NightsFrom: 0, NightsTo: 1},
			{Class: "SAMVÆRSKLASSE_1", NightsFrom: 3, NightsTo: 5},
		},
		"does not start at zero": {
			{Class: "SAMVÆRSKLASSE_1", NightsFrom: 2, NightsTo: 3},
		},
		"inverted bracket": {
			{Class: "INGEN_SAMVÆR", NightsFrom: 0, NightsTo: 1},
			{Class: "SAMVÆRSKLASSE_1", NightsFrom: 2, NightsTo: 1},
		},
	}

	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTable(rows, now)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnresolvableTable))
		})
	}
}
