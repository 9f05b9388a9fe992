// Package handler exposes grounds processing over HTTP. Authentication and
// actor resolution happen in upstream middleware; handlers trust the request
// context.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bidrag/internal/domain"
	"bidrag/internal/grounds/assemble"
	"bidrag/internal/grounds/service"
	"bidrag/internal/grounds/store"
	"bidrag/internal/registry"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/httputil"
	"bidrag/pkg/requestcontext"
)

// Service defines the grounds operations the handler exposes.
type Service interface {
	BuildFull(ctx context.Context, c domain.Case) (*service.BuildResult, error)
	BuildForChild(ctx context.Context, c domain.Case, child id.Ident, calc assemble.CalculationType) (*service.BuildResult, error)
	BuildVisitation(ctx context.Context, c domain.Case, child id.Ident) (*service.BuildResult, error)
	Validate(ctx context.Context, c domain.Case) ([]service.ValidationEntry, error)
	Reconcile(ctx context.Context, c domain.Case) (domain.ChangeReport, error)
	Activate(ctx context.Context, c domain.Case) (*store.Generation, error)
}

// Handler wires grounds endpoints to the grounds service.
type Handler struct {
	service Service
	cases   registry.CaseSource
	logger  *slog.Logger
}

// New constructs a grounds handler with its dependencies.
func New(svc Service, cases registry.CaseSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: svc, cases: cases, logger: logger}
}

// Register mounts grounds endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/cases/{caseID}/grounds", func(r chi.Router) {
		r.Post("/build", h.HandleBuild)
		r.Get("/validation", h.HandleValidation)
		r.Get("/diff", h.HandleDiff)
		r.Post("/activate", h.HandleActivate)
	})
}

// HandleBuild handles POST /cases/{caseID}/grounds/build.
func (h *Handler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	c, ok := h.resolveCase(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[BuildRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var result *service.BuildResult
	var err error
	switch req.Mode {
	case ModeChild:
		result, err = h.service.BuildForChild(ctx, c, req.ParsedChild(), req.ParsedCalculation())
	case ModeVisitation:
		result, err = h.service.BuildVisitation(ctx, c, req.ParsedChild())
	default:
		result, err = h.service.BuildFull(ctx, c)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "grounds build failed",
			"request_id", requestID,
			"case_id", c.ID.String(),
			"mode", req.Mode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "grounds built",
		"request_id", requestID,
		"case_id", c.ID.String(),
		"mode", req.Mode,
		"nodes", len(result.Grounds),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromBuildResult(result))
}

// HandleValidation handles GET /cases/{caseID}/grounds/validation.
func (h *Handler) HandleValidation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	c, ok := h.resolveCase(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Validate(ctx, c)
	if err != nil {
		h.logger.ErrorContext(ctx, "period validation failed",
			"request_id", requestID,
			"case_id", c.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromValidationEntries(entries))
}

// HandleDiff handles GET /cases/{caseID}/grounds/diff.
func (h *Handler) HandleDiff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	c, ok := h.resolveCase(w, r)
	if !ok {
		return
	}

	report, err := h.service.Reconcile(ctx, c)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconciliation failed",
			"request_id", requestID,
			"case_id", c.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromChangeReport(report))
}

// HandleActivate handles POST /cases/{caseID}/grounds/activate.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	c, ok := h.resolveCase(w, r)
	if !ok {
		return
	}

	gen, err := h.service.Activate(ctx, c)
	if err != nil {
		h.logger.ErrorContext(ctx, "activation failed",
			"request_id", requestID,
			"case_id", c.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "generation activated",
		"request_id", requestID,
		"case_id", c.ID.String(),
		"generation", gen.Number,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromGeneration(gen))
}

// resolveCase parses the path id and loads case master data. Failures are
// written to the response; callers just return on !ok.
func (h *Handler) resolveCase(w http.ResponseWriter, r *http.Request) (domain.Case, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.Case{}, false
	}
	c, err := h.cases.Case(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return domain.Case{}, false
	}
	return c, true
}
