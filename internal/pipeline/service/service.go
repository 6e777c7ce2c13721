// Package service implements the stage-advancing pipeline operations.
//
// Every operation checks the actor's territory, validates the status change
// against the entity's transition table, and applies the lead counter side
// effect: calls and visits logged anywhere downstream increment the
// originating lead's counters.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"hoareca_growth_hub/internal/adapters/storage"
	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/territory"
	"hoareca_growth_hub/platform/apperr"
	"hoareca_growth_hub/platform/config"
	"hoareca_growth_hub/platform/logger"
	"hoareca_growth_hub/platform/metrics"

	"github.com/google/uuid"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID    uuid.UUID
	Email string
}

// ScopeResolver resolves an actor's territory.
type ScopeResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) territory.Scope
}

// Service implements pipeline operations.
type Service struct {
	repo    repository.Store
	scopes  ScopeResolver
	bus     events.Bus
	photos  storage.PhotoStore
	cfg     config.PipelineConfig
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a pipeline service. photos may be nil when object storage is
// not configured; photo-based geofencing is then unavailable.
func New(repo repository.Store, scopes ScopeResolver, bus events.Bus, photos storage.PhotoStore, cfg config.PipelineConfig, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		scopes:  scopes,
		bus:     bus,
		photos:  photos,
		cfg:     cfg,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// authorize fails with Forbidden when pincode lies outside the actor's scope.
func (s *Service) authorize(ctx context.Context, actor Actor, pincode string) error {
	if !s.scopes.Resolve(ctx, actor.ID).Allows(pincode) {
		return apperr.Forbidden("record is outside your territory")
	}
	return nil
}

func (s *Service) scopeFilter(ctx context.Context, actor Actor) []string {
	return s.scopes.Resolve(ctx, actor.ID).Filter()
}

func transition(table domain.TransitionTable, entity, from, to string) error {
	if !table.Allows(from, to) {
		return apperr.Conflict(fmt.Sprintf("%s cannot move from %s to %s", entity, from, to)).
			WithDetails(map[string]string{"from": from, "to": to})
	}
	return nil
}

// storeErr maps repository errors to domain errors.
func (s *Service) storeErr(ctx context.Context, op, entity string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(entity + " not found")
	}
	s.log.WithContext(ctx).DatabaseError(op, err)
	return apperr.Internal("failed to "+op, err).WithOp(op)
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, evt)
}

// loadLead loads a lead and checks the actor may see it.
func (s *Service) loadLead(ctx context.Context, actor Actor, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return domain.Lead{}, s.storeErr(ctx, "load lead", "lead", err)
	}
	if err := s.authorize(ctx, actor, lead.Pincode); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// loadOrder loads an order with its owning lead.
func (s *Service) loadOrder(ctx context.Context, actor Actor, id uuid.UUID) (domain.SampleOrder, domain.Lead, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.SampleOrder{}, domain.Lead{}, s.storeErr(ctx, "load sample order", "sample order", err)
	}
	lead, err := s.loadLead(ctx, actor, order.LeadID)
	if err != nil {
		return domain.SampleOrder{}, domain.Lead{}, err
	}
	return order, lead, nil
}

// loadAgreement loads an agreement with its order and originating lead.
func (s *Service) loadAgreement(ctx context.Context, actor Actor, id uuid.UUID) (domain.Agreement, domain.SampleOrder, domain.Lead, error) {
	agreement, err := s.repo.GetAgreement(ctx, id)
	if err != nil {
		return domain.Agreement{}, domain.SampleOrder{}, domain.Lead{}, s.storeErr(ctx, "load agreement", "agreement", err)
	}
	order, lead, err := s.loadOrder(ctx, actor, agreement.SampleOrderID)
	if err != nil {
		return domain.Agreement{}, domain.SampleOrder{}, domain.Lead{}, err
	}
	return agreement, order, lead, nil
}

// assignee returns the email reminders for a lead should go to.
func (s *Service) assignee(ctx context.Context, lead domain.Lead, actor Actor) string {
	if lead.ProspectID != nil {
		if p, err := s.repo.GetProspect(ctx, *lead.ProspectID); err == nil && p.MappedTo != "" {
			return p.MappedTo
		}
	}
	return actor.Email
}

func (s *Service) downloadPhoto(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.photos == nil {
		return nil, apperr.Validation("photo storage is not configured")
	}
	return s.photos.DownloadFile(ctx, s.cfg.GetMinioBucketDeliveryPhotos(), key)
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperr.Validation("reason is required")
	}
	return reason, nil
}
