// Package analytics serves the funnel summary and the Lead Master table.
//
// A request resolves the caller's territory, fetches the four record lists
// concurrently and reduces them with the pure funnel aggregator. A failing
// fetch degrades to an empty list so the view still renders.
package analytics

import (
	"context"
	"errors"
	"time"

	"hoareca_growth_hub/internal/funnel"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/territory"
	"hoareca_growth_hub/platform/apperr"
	"hoareca_growth_hub/platform/logger"
	"hoareca_growth_hub/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Views sequenced per user.
const (
	ViewFunnel     = "funnel"
	ViewLeadMaster = "lead_master"
)

// ErrSuperseded is returned when a newer request for the same view replaced
// this one before it finished.
var ErrSuperseded = apperr.Conflict("request superseded by a newer one")

// Source lists pipeline records.
type Source interface {
	ListProspects(ctx context.Context, params repository.ListParams) ([]domain.Prospect, error)
	ListLeads(ctx context.Context, params repository.ListParams) ([]domain.Lead, error)
	ListOrders(ctx context.Context, params repository.ListParams) ([]domain.SampleOrder, error)
	ListAgreements(ctx context.Context, params repository.ListParams) ([]domain.Agreement, error)
}

// ScopeResolver resolves a user's territory.
type ScopeResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) territory.Scope
}

// Query selects the records one view covers. From and To are calendar days;
// zero leaves that side open. Pincode "" or "all" covers the whole territory.
type Query struct {
	UserID  uuid.UUID
	From    time.Time
	To      time.Time
	Pincode string
}

// Window echoes the filter a view was computed for.
type Window struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Pincode string `json:"pincode"`
}

// FunnelResult is the funnel summary with the filter it was computed for.
type FunnelResult struct {
	Filter Window       `json:"filter"`
	Stats  funnel.Stats `json:"stats"`
}

func (q Query) window() Window {
	w := Window{Pincode: q.Pincode}
	if w.Pincode == "" {
		w.Pincode = funnel.AllPincodes
	}
	if !q.From.IsZero() {
		w.From = q.From.Format(time.DateOnly)
	}
	if !q.To.IsZero() {
		w.To = q.To.Format(time.DateOnly)
	}
	return w
}

// Service computes analytics views.
type Service struct {
	src     Source
	scopes  ScopeResolver
	seq     *Sequencer
	loc     *time.Location
	log     *logger.Logger
	metrics *metrics.Metrics
}

func New(src Source, scopes ScopeResolver, loc *time.Location, log *logger.Logger, m *metrics.Metrics) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{src: src, scopes: scopes, seq: NewSequencer(), loc: loc, log: log, metrics: m}
}

// Funnel computes the conversion summary for q.
func (s *Service) Funnel(ctx context.Context, q Query) (FunnelResult, error) {
	ctx, gen := s.seq.Begin(ctx, q.UserID, ViewFunnel)
	defer gen.Done()

	filter := funnel.DayFilter(q.From, q.To, q.Pincode, s.loc)
	snap, err := s.snapshot(ctx, q, filter)
	if err != nil {
		return FunnelResult{}, s.finish(gen, err)
	}
	stats := funnel.Compute(snap, filter)
	if err := s.finish(gen, nil); err != nil {
		return FunnelResult{}, err
	}
	return FunnelResult{Filter: q.window(), Stats: stats}, nil
}

// LeadMaster builds the per-prospect table for q.
func (s *Service) LeadMaster(ctx context.Context, q Query) ([]funnel.LeadMasterRow, error) {
	ctx, gen := s.seq.Begin(ctx, q.UserID, ViewLeadMaster)
	defer gen.Done()

	filter := funnel.DayFilter(q.From, q.To, q.Pincode, s.loc)
	snap, err := s.snapshot(ctx, q, filter)
	if err != nil {
		return nil, s.finish(gen, err)
	}
	rows := funnel.LeadMaster(snap, filter)
	if err := s.finish(gen, nil); err != nil {
		return nil, err
	}
	return rows, nil
}

// finish turns a superseded generation into ErrSuperseded and records the
// outcome.
func (s *Service) finish(gen *Generation, err error) error {
	switch {
	case !gen.Current():
		s.metrics.RecordFunnelCompute("superseded")
		return ErrSuperseded
	case err != nil:
		s.metrics.RecordFunnelCompute("error")
		return err
	default:
		s.metrics.RecordFunnelCompute("ok")
		return nil
	}
}

// snapshot fetches the records visible to the caller. Prospects are limited
// to the window in the database; descendants are fetched unbounded because
// the Lead Master joins them regardless of their own dates.
func (s *Service) snapshot(ctx context.Context, q Query, f funnel.Filter) (funnel.Snapshot, error) {
	pincode := q.Pincode
	if pincode == funnel.AllPincodes {
		pincode = ""
	}
	scope := s.scopes.Resolve(ctx, q.UserID)
	pincodes := scope.Narrow(pincode)
	if pincodes != nil && len(pincodes) == 0 {
		return funnel.Snapshot{}, nil
	}

	prospectParams := repository.ListParams{Pincodes: pincodes}
	if !f.From.IsZero() {
		prospectParams.From = &f.From
	}
	if !f.To.IsZero() {
		prospectParams.To = &f.To
	}
	params := repository.ListParams{Pincodes: pincodes}

	var snap funnel.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.src.ListProspects(gctx, prospectParams)
		snap.Prospects = degrade(gctx, s, "prospects", items, err)
		return gctx.Err()
	})
	g.Go(func() error {
		items, err := s.src.ListLeads(gctx, params)
		snap.Leads = degrade(gctx, s, "leads", items, err)
		return gctx.Err()
	})
	g.Go(func() error {
		items, err := s.src.ListOrders(gctx, params)
		snap.Orders = degrade(gctx, s, "sample_orders", items, err)
		return gctx.Err()
	})
	g.Go(func() error {
		items, err := s.src.ListAgreements(gctx, params)
		snap.Agreements = degrade(gctx, s, "agreements", items, err)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return funnel.Snapshot{}, err
		}
		return funnel.Snapshot{}, apperr.Internal("failed to load analytics", err)
	}
	return snap, nil
}

// degrade logs and counts a failed fetch and replaces it with an empty list.
func degrade[T any](ctx context.Context, s *Service, entity string, items []T, err error) []T {
	if err == nil {
		return items
	}
	if ctx.Err() == nil {
		s.log.WithContext(ctx).FetchDegraded(entity, err)
		s.metrics.RecordFetchDegraded(entity)
	}
	return []T{}
}
