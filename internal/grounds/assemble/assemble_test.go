package assemble

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidrag/internal/domain"
	"bidrag/internal/grounds/person"
	"bidrag/internal/registry"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
	"bidrag/pkg/platform/sentinel"
)

type fakeResolver struct{}

func (fakeResolver) Newest(_ context.Context, _ id.Ident) (id.Ident, error) {
	return "", sentinel.ErrNotFound
}

const (
	recipientIdent = id.Ident("01018512345")
	payerIdent     = id.Ident("02028612345")
	childOneIdent  = id.Ident("03031012345")
	childTwoIdent  = id.Ident("04041212345")
)

func testCase() domain.Case {
	return domain.Case{
		Virkningstidspunkt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Parties: []domain.Party{
			{Role: domain.RoleRecipient, Ident: recipientIdent, Name: "Mor Eksempel"},
			{Role: domain.RolePayer, Ident: payerIdent, Name: "Far Eksempel"},
			{Role: domain.RoleChild, Ident: childOneIdent, Name: "Barn En"},
			{Role: domain.RoleChild, Ident: childTwoIdent, Name: "Barn To"},
		},
	}
}

func testFacts() *registry.FactSet {
	return &registry.FactSet{
		Income: []registry.IncomeRecord{
			{SourceRowID: "inntekt-1", OwnerIdent: recipientIdent, Period: domain.MonthPeriod(2022, time.January, 2022, time.December), Amount: 420000, Kind: "LØNN"},
			{SourceRowID: "inntekt-2", OwnerIdent: payerIdent, ChildIdent: childOneIdent, Period: domain.MonthPeriod(2022, time.January, 2022, time.June), Amount: 12000, Kind: "BARNETILLEGG"},
			{SourceRowID: "inntekt-3", OwnerIdent: payerIdent, ChildIdent: childTwoIdent, Period: domain.MonthPeriod(2022, time.January, 2022, time.June), Amount: 12000, Kind: "BARNETILLEGG"},
		},
		CivilStatus: []registry.CivilStatusRecord{
			{SourceRowID: "sivilstand-1", Period: domain.MonthPeriod(2022, time.January, 2022, time.December), Status: "UGIFT"},
		},
		Visitation: []registry.VisitationRecord{
			{ChildIdent: childOneIdent, Period: domain.MonthPeriod(2022, time.January, 2022, time.December), Class: "SAMVÆRSKLASSE_2"},
		},
		Notes: []registry.NoteRecord{
			{Kind: "VURDERING", Text: "Inntekt bekreftet mot a-ordningen."},
		},
	}
}

func newAssembler() *Assembler {
	return New(person.NewBuilder(fakeResolver{}, nil))
}

func TestBuildFull_CompleteAndConsistent(t *testing.T) {
	set, err := newAssembler().BuildFull(context.Background(), testCase(), testFacts())
	require.NoError(t, err)
	require.NoError(t, set.CheckIntegrity())

	assert.Len(t, set.ByCategory(domain.CategoryPersonSearchChild), 2)
	assert.Len(t, set.ByCategory(domain.CategoryRawIncome), 3)
	assert.Len(t, set.ByCategory(domain.CategoryIncomePeriod), 3)
	assert.Len(t, set.ByCategory(domain.CategoryVisitationPeriod), 1)
	assert.Len(t, set.ByCategory(domain.CategoryNotat), 1)

	idx := set.ByReference()
	for _, n := range set.ByCategory(domain.CategoryIncomePeriod) {
		require.NotEmpty(t, n.DependsOn, "derived income periods must carry provenance")
		for _, dep := range n.DependsOn {
			assert.Equal(t, domain.CategoryRawIncome, idx[dep].Category)
		}
	}
}

func TestBuildFull_Deterministic(t *testing.T) {
	first, err := newAssembler().BuildFull(context.Background(), testCase(), testFacts())
	require.NoError(t, err)
	second, err := newAssembler().BuildFull(context.Background(), testCase(), testFacts())
	require.NoError(t, err)

	assert.Equal(t, first.References(), second.References())
}

func TestBuildForChild_ExcludesOtherChildren(t *testing.T) {
	set, err := newAssembler().BuildForChild(context.Background(), testCase(), testFacts(), childOneIdent, CalcBidrag)
	require.NoError(t, err)
	require.NoError(t, set.CheckIntegrity())

	children := set.ByCategory(domain.CategoryPersonSearchChild)
	require.Len(t, children, 1)

	// Child two's earmarked income must not leak into child one's grounds.
	assert.Len(t, set.ByCategory(domain.CategoryRawIncome), 2)
	for _, n := range set {
		assert.True(t, n.SubjectChildReference == "" || n.SubjectChildReference == children[0].Reference)
	}
}

func TestBuildForChild_CalculationTypeExclusions(t *testing.T) {
	set, err := newAssembler().BuildForChild(context.Background(), testCase(), testFacts(), childOneIdent, CalcForskudd)
	require.NoError(t, err)

	assert.Empty(t, set.ByCategory(domain.CategoryVisitationPeriod))
	assert.NotEmpty(t, set.ByCategory(domain.CategoryIncomePeriod))
}

func TestBuildForChild_UnknownCalculationType(t *testing.T) {
	_, err := newAssembler().BuildForChild(context.Background(), testCase(), testFacts(), childOneIdent, CalculationType("EKTEFELLEBIDRAG"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestBuildVisitationSub_NarrowSliceWithTable(t *testing.T) {
	brackets := []domain.ThresholdBracket{
		{Class: "INGEN_SAMVÆR", NightsFrom: 0, NightsTo: 1},
		{Class: "SAMVÆRSKLASSE_1", NightsFrom: 2, NightsTo: 3},
	}

	set, err := newAssembler().BuildVisitationSub(context.Background(), testCase(), testFacts(), childOneIdent, brackets)
	require.NoError(t, err)
	require.NoError(t, set.CheckIntegrity())

	require.Len(t, set.ByCategory(domain.CategoryVisitationPeriod), 1)
	require.Len(t, set.ByCategory(domain.CategoryThresholdTable), 1)
	assert.Empty(t, set.ByCategory(domain.CategoryIncomePeriod))
	assert.Empty(t, set.ByCategory(domain.CategoryNotat))

	// Only the payer and the child remain; the recipient has no visitation
	// fact pointing at her.
	assert.Empty(t, set.ByCategory(domain.CategoryPersonRecipient))
	assert.Len(t, set.ByCategory(domain.CategoryPersonPayer), 1)
	assert.Len(t, set.ByCategory(domain.CategoryPersonSearchChild), 1)
}

func TestMergeResults(t *testing.T) {
	set, err := newAssembler().BuildForChild(context.Background(), testCase(), testFacts(), childOneIdent, CalcBidrag)
	require.NoError(t, err)
	income := set.ByCategory(domain.CategoryIncomePeriod)
	require.NotEmpty(t, income)

	result := domain.Node{
		Reference: "delberegning_bidragsevne_2022",
		Category:  domain.CategoryResult,
		Source:    domain.SourceOfficial,
		DependsOn: []string{income[0].Reference},
		Payload:   []byte(`{"type":"BIDRAGSEVNE","innhold":{}}`),
	}

	merged, err := MergeResults(set, []domain.Node{result})
	require.NoError(t, err)
	assert.Len(t, merged, len(set)+1)
	assert.Len(t, set.ByCategory(domain.CategoryResult), 0, "input set must not be mutated")

	t.Run("reference collision", func(t *testing.T) {
		dup := result
		dup.Reference = income[0].Reference
		_, err := MergeResults(set, []domain.Node{dup})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("dangling provenance", func(t *testing.T) {
		broken := result
		broken.DependsOn = []string{"delberegning_som_ikke_finnes"}
		_, err := MergeResults(set, []domain.Node{broken})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBrokenProvenance))
	})
}
