package handler

import (
	"time"

	"bidrag/internal/domain"
	"bidrag/internal/grounds/service"
	"bidrag/internal/grounds/store"
)

// BuildResponse is the HTTP response for POST /cases/{caseID}/grounds/build.
type BuildResponse struct {
	BuildID   string        `json:"byggId"`
	NodeCount int           `json:"antallGrunnlag"`
	Grounds   []domain.Node `json:"grunnlagListe"`
}

// FromBuildResult converts a build result to an HTTP response.
func FromBuildResult(result *service.BuildResult) *BuildResponse {
	return &BuildResponse{
		BuildID:   result.BuildID.String(),
		NodeCount: len(result.Grounds),
		Grounds:   result.Grounds,
	}
}

// ValidationResponse is the HTTP response for GET /cases/{caseID}/grounds/validation.
type ValidationResponse struct {
	HasError bool                      `json:"harFeil"`
	Entries  []service.ValidationEntry `json:"funn"`
}

func FromValidationEntries(entries []service.ValidationEntry) *ValidationResponse {
	if entries == nil {
		entries = []service.ValidationEntry{}
	}
	return &ValidationResponse{HasError: len(entries) > 0, Entries: entries}
}

// DiffResponse is the HTTP response for GET /cases/{caseID}/grounds/diff.
type DiffResponse struct {
	HasChanges bool                 `json:"harEndringer"`
	Entries    []domain.ChangeEntry `json:"endringer"`
}

func FromChangeReport(report domain.ChangeReport) *DiffResponse {
	entries := report.Entries
	if entries == nil {
		entries = []domain.ChangeEntry{}
	}
	return &DiffResponse{HasChanges: !report.IsEmpty(), Entries: entries}
}

// ActivateResponse is the HTTP response for POST /cases/{caseID}/grounds/activate.
type ActivateResponse struct {
	Generation  int64     `json:"generasjon"`
	ActivatedAt time.Time `json:"aktivertTidspunkt"`
	ActivatedBy string    `json:"aktivertAv,omitempty"`
	NodeCount   int       `json:"antallGrunnlag"`
}

func FromGeneration(gen *store.Generation) *ActivateResponse {
	return &ActivateResponse{
		Generation:  gen.Number,
		ActivatedAt: gen.ActivatedAt,
		ActivatedBy: gen.ActivatedBy,
		NodeCount:   len(gen.Grounds),
	}
}
