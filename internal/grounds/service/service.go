// Package service orchestrates grounds processing for a case: fetch raw
// facts, build the graph, validate period coverage, reconcile against the
// active generation, and activate. The fetch is one sequential call chain and
// failures propagate; retry and backoff live with the collaborators.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"bidrag/internal/audit"
	"bidrag/internal/domain"
	"bidrag/internal/grounds/assemble"
	"bidrag/internal/grounds/diff"
	"bidrag/internal/grounds/periodcheck"
	"bidrag/internal/grounds/store"
	"bidrag/internal/registry"
	"bidrag/internal/visitation"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
	"bidrag/pkg/requestcontext"
)

// BuildResult is one build run: the graph plus the run id audit events refer
// to.
type BuildResult struct {
	BuildID id.BuildID
	Grounds domain.GroundsSet
}

// ValidationEntry is the coverage findings for one owner+category timeline.
// Only timelines with findings are reported.
type ValidationEntry struct {
	OwnerReference string             `json:"gjelderReferanse"`
	Category       domain.Category    `json:"type"`
	Result         periodcheck.Result `json:"resultat"`
}

// Service wires the grounds pipeline to its collaborators.
type Service struct {
	assembler  *assemble.Assembler
	facts      registry.FactSource
	thresholds registry.ThresholdTables
	calc       registry.CalculationEngine
	store      store.ActiveStore
	audit      *audit.Publisher
	metrics    *Metrics
	logger     *slog.Logger
}

func New(assembler *assemble.Assembler, facts registry.FactSource, thresholds registry.ThresholdTables, calc registry.CalculationEngine, activeStore store.ActiveStore, auditor *audit.Publisher, metrics *Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		assembler:  assembler,
		facts:      facts,
		thresholds: thresholds,
		calc:       calc,
		store:      activeStore,
		audit:      auditor,
		metrics:    metrics,
		logger:     logger,
	}
}

// BuildFull builds the complete, unscoped case graph.
func (s *Service) BuildFull(ctx context.Context, c domain.Case) (*BuildResult, error) {
	return s.build(ctx, "full", c, func(ctx context.Context, facts *registry.FactSet) (domain.GroundsSet, error) {
		return s.assembler.BuildFull(ctx, c, facts)
	})
}

// BuildForChild builds the calculation-scoped graph for one child and hands
// it to the calculation engine when one is wired; result nodes are unioned
// back into the graph.
func (s *Service) BuildForChild(ctx context.Context, c domain.Case, child id.Ident, calc assemble.CalculationType) (*BuildResult, error) {
	return s.build(ctx, "child", c, func(ctx context.Context, facts *registry.FactSet) (domain.GroundsSet, error) {
		set, err := s.assembler.BuildForChild(ctx, c, facts, child, calc)
		if err != nil {
			return nil, err
		}
		if s.calc == nil {
			return set, nil
		}
		results, err := s.calc.Calculate(ctx, set)
		if err != nil {
			return nil, err
		}
		return assemble.MergeResults(set, results)
	})
}

// BuildVisitation builds the narrow visitation sub-graph for one child,
// including a snapshot of the threshold table the classification used.
func (s *Service) BuildVisitation(ctx context.Context, c domain.Case, child id.Ident) (*BuildResult, error) {
	return s.build(ctx, "visitation", c, func(ctx context.Context, facts *registry.FactSet) (domain.GroundsSet, error) {
		table, err := s.loadTable(ctx)
		if err != nil {
			return nil, err
		}
		return s.assembler.BuildVisitationSub(ctx, c, facts, child, table.Brackets())
	})
}

// Validate builds the full graph and checks period coverage per
// owner+category timeline from the case's virkningstidspunkt. Only timelines
// with findings are returned; an empty slice means full coverage.
func (s *Service) Validate(ctx context.Context, c domain.Case) ([]ValidationEntry, error) {
	result, err := s.BuildFull(ctx, c)
	if err != nil {
		return nil, err
	}

	entries, err := s.validateSet(ctx, c, result.Grounds)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		CaseID:      c.ID,
		BuildID:     result.BuildID,
		Action:      audit.ActionValidate,
		NodeCount:   len(result.Grounds),
		ChangeCount: len(entries),
	})
	return entries, nil
}

// Reconcile builds a fresh generation and diffs it against the active one.
// A case that has never been activated compares against an empty set, so
// every official fact group shows up as new.
func (s *Service) Reconcile(ctx context.Context, c domain.Case) (domain.ChangeReport, error) {
	result, err := s.BuildFull(ctx, c)
	if err != nil {
		return domain.ChangeReport{}, err
	}

	var active domain.GroundsSet
	gen, err := s.store.Active(ctx, c.ID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// first reconciliation for the case
	case err != nil:
		return domain.ChangeReport{}, err
	default:
		active = gen.Grounds
	}

	report, err := diff.Reconcile(active, result.Grounds)
	if err != nil {
		return domain.ChangeReport{}, err
	}

	s.metrics.ObserveDiffEntries(len(report.Entries))
	s.emit(ctx, audit.Event{
		CaseID:      c.ID,
		BuildID:     result.BuildID,
		Action:      audit.ActionDiff,
		NodeCount:   len(result.Grounds),
		ChangeCount: len(report.Entries),
	})
	return report, nil
}

// Activate builds a fresh full generation and persists it as the new active
// set. Concurrent activations of the same case conflict at the store.
func (s *Service) Activate(ctx context.Context, c domain.Case) (*store.Generation, error) {
	result, err := s.BuildFull(ctx, c)
	if err != nil {
		return nil, err
	}

	actor := requestcontext.Actor(ctx)
	gen, err := s.store.Activate(ctx, c.ID, result.Grounds, actor, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		CaseID:    c.ID,
		BuildID:   result.BuildID,
		Actor:     actor,
		Action:    audit.ActionActivate,
		NodeCount: len(result.Grounds),
		Detail:    "generasjon " + strconv.FormatInt(gen.Number, 10),
	})
	s.logger.Info("grounds generation activated",
		"case_id", c.ID.String(),
		"generation", gen.Number,
		"nodes", len(result.Grounds))
	return gen, nil
}

func (s *Service) build(ctx context.Context, mode string, c domain.Case, assembleFn func(context.Context, *registry.FactSet) (domain.GroundsSet, error)) (*BuildResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBuild(mode, time.Since(start)) }()

	facts, err := s.facts.Facts(ctx, c)
	if err != nil {
		s.metrics.IncrementBuild(mode, "fetch_failed")
		return nil, err
	}

	facts, err = s.classifyVisitation(ctx, facts)
	if err != nil {
		s.metrics.IncrementBuild(mode, "classify_failed")
		return nil, err
	}

	set, err := assembleFn(ctx, facts)
	if err != nil {
		s.metrics.IncrementBuild(mode, "assemble_failed")
		return nil, err
	}
	s.metrics.IncrementBuild(mode, "ok")

	result := &BuildResult{BuildID: id.NewBuildID(), Grounds: set}
	s.emit(ctx, audit.Event{
		CaseID:    c.ID,
		BuildID:   result.BuildID,
		Actor:     requestcontext.Actor(ctx),
		Action:    audit.ActionBuild,
		NodeCount: len(set),
		Detail:    mode,
	})
	return result, nil
}

// classifyVisitation fills in the samværsklasse for records entered as a
// structured calendar. The threshold table is only fetched when an
// unclassified calendar is actually present. The fetched records are never
// written to: the class lands on a fresh slice, so every build re-resolves
// the table instead of reusing a class a previous build computed.
func (s *Service) classifyVisitation(ctx context.Context, facts *registry.FactSet) (*registry.FactSet, error) {
	needed := false
	for _, rec := range facts.Visitation {
		if rec.Calendar != nil && rec.Class == "" {
			needed = true
			break
		}
	}
	if !needed {
		return facts, nil
	}

	table, err := s.loadTable(ctx)
	if err != nil {
		return nil, err
	}

	classified := *facts
	classified.Visitation = make([]registry.VisitationRecord, len(facts.Visitation))
	copy(classified.Visitation, facts.Visitation)
	for i, rec := range classified.Visitation {
		if rec.Calendar == nil || rec.Class != "" {
			continue
		}
		class, err := visitation.Classify(*rec.Calendar, table)
		if err != nil {
			return nil, err
		}
		classified.Visitation[i].Class = class
	}
	return &classified, nil
}

func (s *Service) loadTable(ctx context.Context) (*visitation.Table, error) {
	rows, err := s.thresholds.VisitationClasses(ctx)
	if err != nil {
		return nil, err
	}
	return visitation.NewTable(rows, requestcontext.Now(ctx))
}

// validateSet groups the derived period nodes by owner+category and runs the
// coverage validator over each timeline.
func (s *Service) validateSet(ctx context.Context, c domain.Case, set domain.GroundsSet) ([]ValidationEntry, error) {
	type key struct {
		owner    string
		category domain.Category
	}
	timelines := make(map[key][]periodcheck.TimelinePeriod)
	var order []key

	for _, n := range set {
		if !validatedCategory(n.Category) {
			continue
		}
		tp, ok, err := timelineOf(n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		k := key{owner: n.OwnerReference, category: n.Category}
		if _, seen := timelines[k]; !seen {
			order = append(order, k)
		}
		timelines[k] = append(timelines[k], tp)
	}

	today := requestcontext.Now(ctx)
	var entries []ValidationEntry
	for _, k := range order {
		result := periodcheck.Validate(timelines[k], c.Virkningstidspunkt, today)
		if !result.HasError() {
			continue
		}
		s.countFindings(result)
		entries = append(entries, ValidationEntry{
			OwnerReference: k.owner,
			Category:       k.category,
			Result:         result,
		})
	}
	return entries, nil
}

// validatedCategory selects the derived period timelines coverage rules apply
// to. Employment and raw source rows tolerate gaps and overlaps by nature.
func validatedCategory(c domain.Category) bool {
	switch c {
	case domain.CategoryIncomePeriod, domain.CategoryCohabitationPeriod, domain.CategoryCivilStatusPeriod:
		return true
	}
	return false
}

func timelineOf(n domain.Node) (periodcheck.TimelinePeriod, bool, error) {
	pv, ok, err := domain.PeriodValueOf(n)
	if err != nil || !ok {
		return periodcheck.TimelinePeriod{}, false, err
	}
	tp := periodcheck.TimelinePeriod{Period: pv.Period, Value: pv.Value}
	if n.Category == domain.CategoryIncomePeriod {
		decoded, err := domain.DecodePayload(n.Category, n.Payload)
		if err != nil {
			return periodcheck.TimelinePeriod{}, false, err
		}
		if income, ok := decoded.(*domain.IncomePeriodPayload); ok {
			tp.GapExempt = income.GapExempt
		}
	}
	return tp, true, nil
}

func (s *Service) countFindings(result periodcheck.Result) {
	for range result.Gaps {
		s.metrics.IncrementFinding("gap")
	}
	for range result.Overlaps {
		s.metrics.IncrementFinding("overlap")
	}
	if result.NoCurrentPeriod {
		s.metrics.IncrementFinding("no_current_period")
	}
	if result.FutureStart {
		s.metrics.IncrementFinding("future_start")
	}
	if result.NoPeriods {
		s.metrics.IncrementFinding("no_periods")
	}
}

// emit records an audit event; audit unavailability is logged, never
// propagated into the request.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Actor(ctx)
	}
	event.Timestamp = requestcontext.Now(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "case_id", event.CaseID.String(), "action", string(event.Action), "error", err)
	}
}
