package service

import (
	"context"

	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/remarks"
	"hoareca_growth_hub/platform/apperr"
	"hoareca_growth_hub/platform/sanitize"

	"github.com/google/uuid"
)

// FeedbackInput records the outlet's verdict on the delivered sample.
type FeedbackInput struct {
	Positive bool
	Notes    string
}

// ListAgreements returns agreements whose lead lies in the caller's territory.
func (s *Service) ListAgreements(ctx context.Context, actor Actor, f ListFilter, orderID *uuid.UUID) ([]domain.Agreement, error) {
	params := s.listParams(ctx, actor, f)
	params.SampleOrderID = orderID
	items, err := s.repo.ListAgreements(ctx, params)
	if err != nil {
		return nil, s.storeErr(ctx, "list agreements", "agreement", err)
	}
	return items, nil
}

// CreateAgreement opens an agreement for a delivered sample.
func (s *Service) CreateAgreement(ctx context.Context, actor Actor, orderID uuid.UUID, notes string) (domain.Agreement, error) {
	order, _, err := s.loadOrder(ctx, actor, orderID)
	if err != nil {
		return domain.Agreement{}, err
	}
	if order.Status != domain.OrderSampleDelivered {
		return domain.Agreement{}, apperr.Conflict("agreement requires a delivered sample").
			WithDetails(map[string]string{"status": order.Status})
	}

	agreement, err := s.repo.CreateAgreement(ctx, repository.CreateAgreementParams{
		SampleOrderID: orderID,
		Status:        domain.AgreementPendingFeedback,
		EsignStatus:   domain.EsignNotSent,
		Remarks:       sanitize.Note(notes),
	})
	if err != nil {
		return domain.Agreement{}, s.storeErr(ctx, "create agreement", "agreement", err)
	}
	s.metrics.RecordTransition("agreement", agreement.Status)
	return agreement, nil
}

// LogAgreementVisit counts a visit against the originating lead and applies
// its outcome to the agreement.
func (s *Service) LogAgreementVisit(ctx context.Context, actor Actor, id uuid.UUID, in VisitInput) (domain.Agreement, error) {
	if err := in.validate(); err != nil {
		return domain.Agreement{}, err
	}
	agreement, _, lead, err := s.loadAgreement(ctx, actor, id)
	if err != nil {
		return domain.Agreement{}, err
	}

	next := agreement.Status
	switch in.Outcome {
	case OutcomeRevisit:
		next = domain.AgreementRevisitNeeded
	case OutcomeDrop:
		next = domain.AgreementDropped
	}
	if err := step(domain.AgreementTransitions, "agreement", agreement.Status, next); err != nil {
		return domain.Agreement{}, err
	}

	text := remarks.Append(agreement.Remarks, sanitize.Note(in.Notes))
	meta := agreement.Metadata
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
		if _, err := tx.IncrementLeadCounters(ctx, lead.ID, 0, 1); err != nil {
			return err
		}
		agreement, err = tx.UpdateAgreement(ctx, id, repository.AgreementUpdate{
			Status:          next,
			EsignStatus:     agreement.EsignStatus,
			QualityFeedback: agreement.QualityFeedback,
			Remarks:         text,
			Metadata:        meta,
		})
		return err
	})
	if err != nil {
		return domain.Agreement{}, s.storeErr(ctx, "log agreement visit", "agreement", err)
	}

	s.metrics.RecordTransition("agreement", agreement.Status)
	if in.Outcome == OutcomeRevisit {
		s.publish(ctx, events.RevisitScheduled{
			BaseEvent:  events.NewBaseEvent(),
			Entity:     "agreement",
			EntityID:   agreement.ID,
			LeadID:     lead.ID,
			ClientName: lead.ClientName,
			Pincode:    lead.Pincode,
			Assignee:   s.assignee(ctx, lead, actor),
			RevisitAt:  *in.RevisitAt,
		})
	}
	return agreement, nil
}

// RecordFeedback stores the quality verdict. Positive feedback sends the
// agreement for e-signature; negative feedback asks for a revisit.
func (s *Service) RecordFeedback(ctx context.Context, actor Actor, id uuid.UUID, in FeedbackInput) (domain.Agreement, error) {
	agreement, _, _, err := s.loadAgreement(ctx, actor, id)
	if err != nil {
		return domain.Agreement{}, err
	}

	next, esign := domain.AgreementRevisitNeeded, agreement.EsignStatus
	if in.Positive {
		next, esign = domain.AgreementSent, domain.EsignSent
	}
	if err := step(domain.AgreementTransitions, "agreement", agreement.Status, next); err != nil {
		return domain.Agreement{}, err
	}

	notes := sanitize.Note(in.Notes)
	meta := agreement.Metadata
	if notes != "" {
		meta.Feedback = notes
	}
	positive := in.Positive
	agreement, err = s.repo.UpdateAgreement(ctx, id, repository.AgreementUpdate{
		Status:          next,
		EsignStatus:     esign,
		QualityFeedback: &positive,
		Remarks:         remarks.Append(agreement.Remarks, notes),
		Metadata:        meta,
	})
	if err != nil {
		return domain.Agreement{}, s.storeErr(ctx, "record feedback", "agreement", err)
	}
	s.metrics.RecordTransition("agreement", agreement.Status)
	return agreement, nil
}

// MarkSigned closes an agreement as signed.
func (s *Service) MarkSigned(ctx context.Context, actor Actor, id uuid.UUID) (domain.Agreement, error) {
	agreement, order, lead, err := s.loadAgreement(ctx, actor, id)
	if err != nil {
		return domain.Agreement{}, err
	}
	if err := transition(domain.AgreementTransitions, "agreement", agreement.Status, domain.AgreementSigned); err != nil {
		return domain.Agreement{}, err
	}

	agreement, err = s.repo.UpdateAgreement(ctx, id, repository.AgreementUpdate{
		Status:          domain.AgreementSigned,
		EsignStatus:     domain.EsignSigned,
		QualityFeedback: agreement.QualityFeedback,
		Remarks:         agreement.Remarks,
		Metadata:        agreement.Metadata,
	})
	if err != nil {
		return domain.Agreement{}, s.storeErr(ctx, "mark agreement signed", "agreement", err)
	}

	s.metrics.RecordTransition("agreement", agreement.Status)
	s.publish(ctx, events.AgreementSigned{
		BaseEvent:     events.NewBaseEvent(),
		AgreementID:   agreement.ID,
		SampleOrderID: order.ID,
		LeadID:        lead.ID,
		Pincode:       lead.Pincode,
		ActorID:       actor.ID,
	})
	return agreement, nil
}

// MarkLost closes an agreement as lost with a reason.
func (s *Service) MarkLost(ctx context.Context, actor Actor, id uuid.UUID, reason string) (domain.Agreement, error) {
	reason, err := requireReason(sanitize.Note(reason))
	if err != nil {
		return domain.Agreement{}, err
	}
	agreement, _, _, err := s.loadAgreement(ctx, actor, id)
	if err != nil {
		return domain.Agreement{}, err
	}
	if err := transition(domain.AgreementTransitions, "agreement", agreement.Status, domain.AgreementLost); err != nil {
		return domain.Agreement{}, err
	}

	agreement, err = s.repo.UpdateAgreement(ctx, id, repository.AgreementUpdate{
		Status:          domain.AgreementLost,
		EsignStatus:     agreement.EsignStatus,
		QualityFeedback: agreement.QualityFeedback,
		Remarks:         remarks.Append(agreement.Remarks, "[Lost]", remarks.ReasonFragment(reason)),
		Metadata:        agreement.Metadata.WithReason(reason),
	})
	if err != nil {
		return domain.Agreement{}, s.storeErr(ctx, "mark agreement lost", "agreement", err)
	}
	s.metrics.RecordTransition("agreement", agreement.Status)
	return agreement, nil
}
