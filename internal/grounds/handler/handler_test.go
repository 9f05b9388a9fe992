package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidrag/internal/domain"
	"bidrag/internal/grounds/assemble"
	"bidrag/internal/grounds/service"
	"bidrag/internal/grounds/store"
	"bidrag/internal/registry"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
	"bidrag/pkg/testutil"
)

type fakeService struct {
	lastMode  string
	lastChild id.Ident
	lastCalc  assemble.CalculationType
	result    *service.BuildResult
	entries   []service.ValidationEntry
	report    domain.ChangeReport
	gen       *store.Generation
	err       error
}

func (f *fakeService) BuildFull(_ context.Context, _ domain.Case) (*service.BuildResult, error) {
	f.lastMode = ModeFull
	return f.result, f.err
}

func (f *fakeService) BuildForChild(_ context.Context, _ domain.Case, child id.Ident, calc assemble.CalculationType) (*service.BuildResult, error) {
	f.lastMode = ModeChild
	f.lastChild = child
	f.lastCalc = calc
	return f.result, f.err
}

func (f *fakeService) BuildVisitation(_ context.Context, _ domain.Case, child id.Ident) (*service.BuildResult, error) {
	f.lastMode = ModeVisitation
	f.lastChild = child
	return f.result, f.err
}

func (f *fakeService) Validate(_ context.Context, _ domain.Case) ([]service.ValidationEntry, error) {
	return f.entries, f.err
}

func (f *fakeService) Reconcile(_ context.Context, _ domain.Case) (domain.ChangeReport, error) {
	return f.report, f.err
}

func (f *fakeService) Activate(_ context.Context, _ domain.Case) (*store.Generation, error) {
	return f.gen, f.err
}

func setup(t *testing.T, svc *fakeService) (*chi.Mux, domain.Case) {
	t.Helper()

	c := domain.Case{
		ID:                 id.CaseID(uuid.New()),
		Virkningstidspunkt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Parties: []domain.Party{
			{Role: domain.RoleRecipient, Ident: "01018512345", Name: "Mor Eksempel"},
		},
	}
	cases := registry.NewMemory()
	cases.SetCase(c)

	r := chi.NewRouter()
	New(svc, cases, nil).Register(r)
	return r, c
}

func buildResult() *service.BuildResult {
	return &service.BuildResult{
		BuildID: id.NewBuildID(),
		Grounds: domain.GroundsSet{
			{
				Reference: "person_bidragsmottaker_01018512345",
				Category:  domain.CategoryPersonRecipient,
				Source:    domain.SourceOfficial,
				Payload:   []byte(`{"ident":"01018512345"}`),
			},
		},
	}
}

func buildPath(c domain.Case) string {
	return "/cases/" + c.ID.String() + "/grounds/build"
}

func TestHandleBuild_Full(t *testing.T) {
	svc := &fakeService{result: buildResult()}
	router, c := setup(t, svc)

	req := testutil.NewJSONRequest(t, http.MethodPost, buildPath(c), BuildRequest{Mode: ModeFull})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, ModeFull, svc.lastMode)

	body := testutil.UnmarshalResponse[BuildResponse](t, rr)
	assert.Equal(t, 1, body.NodeCount)
	require.Len(t, body.Grounds, 1)
	assert.Equal(t, "person_bidragsmottaker_01018512345", body.Grounds[0].Reference)
}

func TestHandleBuild_ChildScoped(t *testing.T) {
	svc := &fakeService{result: buildResult()}
	router, c := setup(t, svc)

	req := testutil.NewJSONRequest(t, http.MethodPost, buildPath(c), BuildRequest{
		Mode:        ModeChild,
		Child:       "03031012345",
		Calculation: "FORSKUDD",
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, ModeChild, svc.lastMode)
	assert.Equal(t, id.Ident("03031012345"), svc.lastChild)
	assert.Equal(t, assemble.CalcForskudd, svc.lastCalc)
}

func TestHandleBuild_ValidationErrors(t *testing.T) {
	svc := &fakeService{result: buildResult()}
	router, c := setup(t, svc)

	cases := map[string]struct {
		body string
		code string
	}{
		"unknown mode":             {`{"modus":"DELVIS"}`, string(dErrors.CodeValidation)},
		"scoped without child":     {`{"modus":"SAMVÆR"}`, string(dErrors.CodeValidation)},
		"malformed ident":          {`{"modus":"SØKNADSBARN","søknadsbarn":"123"}`, string(dErrors.CodeInvalidInput)},
		"calculation on full mode": {`{"modus":"FULLT","beregningstype":"BIDRAG"}`, string(dErrors.CodeValidation)},
		"malformed JSON":           {`{"modus"`, string(dErrors.CodeBadRequest)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := testutil.NewRequestWithBody(t, http.MethodPost, buildPath(c), tc.body)
			rr := testutil.DoRequest(router, req)
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, tc.code)
		})
	}
}

func TestHandleBuild_UnknownCase(t *testing.T) {
	svc := &fakeService{result: buildResult()}
	router, _ := setup(t, svc)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/cases/"+uuid.NewString()+"/grounds/build", `{}`)
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func TestHandleBuild_DataErrorMapsTo422(t *testing.T) {
	svc := &fakeService{err: dErrors.New(dErrors.CodeBrokenProvenance, "official fact without raw source")}
	router, c := setup(t, svc)

	req := testutil.NewRequestWithBody(t, http.MethodPost, buildPath(c), `{}`)
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeBrokenProvenance))
}

func TestHandleValidation(t *testing.T) {
	svc := &fakeService{entries: []service.ValidationEntry{
		{OwnerReference: "person_bidragsmottaker_01018512345", Category: domain.CategoryIncomePeriod},
	}}
	router, c := setup(t, svc)

	req := testutil.NewRequest(t, http.MethodGet, "/cases/"+c.ID.String()+"/grounds/validation")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[ValidationResponse](t, rr)
	assert.True(t, body.HasError)
	assert.Len(t, body.Entries, 1)
}

func TestHandleValidation_CleanTimeline(t *testing.T) {
	router, c := setup(t, &fakeService{})

	req := testutil.NewRequest(t, http.MethodGet, "/cases/"+c.ID.String()+"/grounds/validation")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[ValidationResponse](t, rr)
	assert.False(t, body.HasError)
	assert.NotNil(t, body.Entries)
}

func TestHandleDiff(t *testing.T) {
	svc := &fakeService{report: domain.ChangeReport{Entries: []domain.ChangeEntry{
		{Category: domain.CategoryRawIncome, OwnerReference: "person_bidragsmottaker_01018512345", HasChange: true},
	}}}
	router, c := setup(t, svc)

	req := testutil.NewRequest(t, http.MethodGet, "/cases/"+c.ID.String()+"/grounds/diff")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[DiffResponse](t, rr)
	assert.True(t, body.HasChanges)
}

func TestHandleActivate(t *testing.T) {
	svc := &fakeService{gen: &store.Generation{
		Number:      3,
		ActivatedAt: time.Date(2022, 6, 1, 10, 0, 0, 0, time.UTC),
		ActivatedBy: "Z990123",
		Grounds:     buildResult().Grounds,
	}}
	router, c := setup(t, svc)

	req := testutil.NewRequest(t, http.MethodPost, "/cases/"+c.ID.String()+"/grounds/activate")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)
	body := testutil.UnmarshalResponse[ActivateResponse](t, rr)
	assert.Equal(t, int64(3), body.Generation)
	assert.Equal(t, "Z990123", body.ActivatedBy)
	assert.Equal(t, 1, body.NodeCount)
}
