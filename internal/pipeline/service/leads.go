package service

import (
	"context"
	"strings"
	"time"

	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/remarks"
	"hoareca_growth_hub/platform/apperr"
	"hoareca_growth_hub/platform/sanitize"
	"hoareca_growth_hub/platform/validator"

	"github.com/google/uuid"
)

// Visit outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeRevisit   = "revisit"
	OutcomeDrop      = "drop"
)

// VisitInput records a field visit. RevisitAt is required for the revisit
// outcome and Reason for the drop outcome.
type VisitInput struct {
	Outcome   string
	RevisitAt *time.Time
	Reason    string
	Notes     string
}

func (in VisitInput) validate() error {
	switch in.Outcome {
	case OutcomeCompleted:
	case OutcomeRevisit:
		if in.RevisitAt == nil || in.RevisitAt.IsZero() {
			return apperr.Validation("revisitAt is required for a revisit")
		}
	case OutcomeDrop:
		if strings.TrimSpace(in.Reason) == "" {
			return apperr.Validation("reason is required to drop")
		}
	default:
		return apperr.Validation("outcome must be completed, revisit or drop")
	}
	return nil
}

// CallInput records a phone call on a lead.
type CallInput struct {
	Notes      string
	FollowUpAt *time.Time
}

// CreateLeadInput describes a lead added without a prospect.
type CreateLeadInput struct {
	ClientName string
	Pincode    string
	Remarks    string
}

// ListLeads returns leads in the caller's territory.
func (s *Service) ListLeads(ctx context.Context, actor Actor, f ListFilter) ([]domain.Lead, error) {
	items, err := s.repo.ListLeads(ctx, s.listParams(ctx, actor, f))
	if err != nil {
		return nil, s.storeErr(ctx, "list leads", "lead", err)
	}
	return items, nil
}

// CreateLead adds an orphan lead. Orphan leads never appear in the funnel
// because they have no prospect ancestry.
func (s *Service) CreateLead(ctx context.Context, actor Actor, in CreateLeadInput) (domain.Lead, error) {
	name := sanitize.StripHTML(in.ClientName)
	if name == "" {
		return domain.Lead{}, apperr.Validation("client name is required")
	}
	pincode := strings.TrimSpace(in.Pincode)
	if !validator.IsPincode(pincode) {
		return domain.Lead{}, apperr.Validation("pincode must be 6 digits")
	}
	if err := s.authorize(ctx, actor, pincode); err != nil {
		return domain.Lead{}, err
	}

	actorID := actor.ID
	lead, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		ClientName: name,
		Pincode:    pincode,
		Status:     domain.LeadNew,
		Remarks:    sanitize.Note(in.Remarks),
		CreatedBy:  &actorID,
	})
	if err != nil {
		return domain.Lead{}, s.storeErr(ctx, "create lead", "lead", err)
	}
	s.metrics.RecordTransition("lead", lead.Status)
	return lead, nil
}

// LogCall counts a call on the lead and optionally books a follow-up.
func (s *Service) LogCall(ctx context.Context, actor Actor, id uuid.UUID, in CallInput) (domain.Lead, error) {
	lead, err := s.loadLead(ctx, actor, id)
	if err != nil {
		return domain.Lead{}, err
	}
	next := activeLeadStatus(lead.Status)
	if err := leadStep(lead.Status, next); err != nil {
		return domain.Lead{}, err
	}

	text := remarks.Append(lead.Remarks, sanitize.Note(in.Notes))
	meta := lead.Metadata
	if in.FollowUpAt != nil && !in.FollowUpAt.IsZero() {
		text = remarks.Append(text, remarks.FollowUpTag(*in.FollowUpAt))
		meta = meta.WithFollowUp(*in.FollowUpAt)
	}

	err = s.repo.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.IncrementLeadCounters(ctx, id, 1, 0); err != nil {
			return err
		}
		lead, err = tx.UpdateLead(ctx, id, repository.LeadUpdate{Status: next, Remarks: text, Metadata: meta})
		return err
	})
	if err != nil {
		return domain.Lead{}, s.storeErr(ctx, "log call", "lead", err)
	}
	s.metrics.RecordTransition("lead", lead.Status)
	return lead, nil
}

// LogLeadVisit counts a visit on the lead and applies its outcome.
func (s *Service) LogLeadVisit(ctx context.Context, actor Actor, id uuid.UUID, in VisitInput) (domain.Lead, error) {
	if err := in.validate(); err != nil {
		return domain.Lead{}, err
	}
	lead, err := s.loadLead(ctx, actor, id)
	if err != nil {
		return domain.Lead{}, err
	}

	next := activeLeadStatus(lead.Status)
	if in.Outcome == OutcomeDrop {
		next = domain.LeadDropped
	}
	if err := leadStep(lead.Status, next); err != nil {
		return domain.Lead{}, err
	}

	text := remarks.Append(lead.Remarks, sanitize.Note(in.Notes))
	meta := lead.Metadata
	switch in.Outcome {
	case OutcomeCompleted:
		meta = meta.WithRevisitDone()
	case OutcomeRevisit:
		text = remarks.Append(text, remarks.RevisitTag(*in.RevisitAt))
		meta = meta.WithRevisit(*in.RevisitAt)
	case OutcomeDrop:
		reason := sanitize.Note(in.Reason)
		text = remarks.Append(text, remarks.DroppedTag(reason, lead.VisitCount+1))
		meta = meta.WithDrop(reason, lead.VisitCount+1)
	}

	err = s.repo.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.IncrementLeadCounters(ctx, id, 0, 1); err != nil {
			return err
		}
		lead, err = tx.UpdateLead(ctx, id, repository.LeadUpdate{Status: next, Remarks: text, Metadata: meta})
		return err
	})
	if err != nil {
		return domain.Lead{}, s.storeErr(ctx, "log lead visit", "lead", err)
	}

	s.metrics.RecordTransition("lead", lead.Status)
	if in.Outcome == OutcomeRevisit {
		s.publish(ctx, events.RevisitScheduled{
			BaseEvent:  events.NewBaseEvent(),
			Entity:     "lead",
			EntityID:   lead.ID,
			LeadID:     lead.ID,
			ClientName: lead.ClientName,
			Pincode:    lead.Pincode,
			Assignee:   s.assignee(ctx, lead, actor),
			RevisitAt:  *in.RevisitAt,
		})
	}
	return lead, nil
}

// BookSampleInput describes a sample order placed during a visit.
type BookSampleInput struct {
	SKU   string
	Notes string
}

// BookSample creates a sample order for the lead. Booking happens on a visit
// so the lead's visit count goes up and the lead becomes converted.
func (s *Service) BookSample(ctx context.Context, actor Actor, id uuid.UUID, in BookSampleInput) (domain.SampleOrder, error) {
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		return domain.SampleOrder{}, apperr.Validation("sku is required")
	}
	lead, err := s.loadLead(ctx, actor, id)
	if err != nil {
		return domain.SampleOrder{}, err
	}
	if err := leadStep(lead.Status, domain.LeadConverted); err != nil {
		return domain.SampleOrder{}, err
	}

	var order domain.SampleOrder
	err = s.repo.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.IncrementLeadCounters(ctx, id, 0, 1); err != nil {
			return err
		}
		if _, err := tx.UpdateLead(ctx, id, repository.LeadUpdate{
			Status:   domain.LeadConverted,
			Remarks:  lead.Remarks,
			Metadata: lead.Metadata,
		}); err != nil {
			return err
		}
		order, err = tx.CreateOrder(ctx, repository.CreateOrderParams{
			LeadID:  id,
			SKU:     sku,
			Status:  domain.OrderSampleOrdered,
			Remarks: sanitize.Note(in.Notes),
		})
		return err
	})
	if err != nil {
		return domain.SampleOrder{}, s.storeErr(ctx, "book sample", "lead", err)
	}

	s.metrics.RecordTransition("lead", domain.LeadConverted)
	s.metrics.RecordTransition("sample_order", order.Status)
	return order, nil
}

// DropLead marks a lead dropped with a reason.
func (s *Service) DropLead(ctx context.Context, actor Actor, id uuid.UUID, reason string) (domain.Lead, error) {
	reason, err := requireReason(sanitize.Note(reason))
	if err != nil {
		return domain.Lead{}, err
	}
	lead, err := s.loadLead(ctx, actor, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if err := leadStep(lead.Status, domain.LeadDropped); err != nil {
		return domain.Lead{}, err
	}

	lead, err = s.repo.UpdateLead(ctx, id, repository.LeadUpdate{
		Status:   domain.LeadDropped,
		Remarks:  remarks.Append(lead.Remarks, remarks.DroppedTag(reason, lead.VisitCount)),
		Metadata: lead.Metadata.WithDrop(reason, lead.VisitCount),
	})
	if err != nil {
		return domain.Lead{}, s.storeErr(ctx, "drop lead", "lead", err)
	}
	s.metrics.RecordTransition("lead", lead.Status)
	return lead, nil
}

// activeLeadStatus is the status a lead moves to when it is worked on. New
// leads become in progress; later statuses are kept.
func activeLeadStatus(current string) string {
	if current == domain.LeadNew {
		return domain.LeadInProgress
	}
	return current
}

// leadStep validates a lead status change. Staying in a non-terminal status
// is always allowed.
func leadStep(from, to string) error {
	return step(domain.LeadTransitions, "lead", from, to)
}

func step(table domain.TransitionTable, entity, from, to string) error {
	if from == to && len(table[from]) > 0 {
		return nil
	}
	return transition(table, entity, from, to)
}
