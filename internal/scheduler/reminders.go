package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hoareca_growth_hub/internal/email"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/platform/logger"

	"github.com/google/uuid"
)

// RecordReader loads the records a reminder can point at.
type RecordReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	GetOrder(ctx context.Context, id uuid.UUID) (domain.SampleOrder, error)
	GetAgreement(ctx context.Context, id uuid.UUID) (domain.Agreement, error)
}

// Reminders delivers due revisit reminders. A reminder whose record has
// reached a terminal status, or no longer exists, is dropped.
type Reminders struct {
	records RecordReader
	sender  email.Sender
	baseURL string
	log     *logger.Logger
}

func NewReminders(records RecordReader, sender email.Sender, baseURL string, log *logger.Logger) *Reminders {
	return &Reminders{
		records: records,
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (r *Reminders) Deliver(ctx context.Context, payload RevisitReminderPayload) error {
	id, err := uuid.Parse(payload.EntityID)
	if err != nil {
		return fmt.Errorf("revisit reminder entity id: %w", err)
	}

	due, err := r.stillDue(ctx, payload.Entity, id)
	if errors.Is(err, repository.ErrNotFound) {
		r.log.WithContext(ctx).Info("revisit reminder dropped: record missing", "entity", payload.Entity, "entity_id", id)
		return nil
	}
	if err != nil {
		return err
	}
	if !due {
		r.log.WithContext(ctx).Info("revisit reminder dropped: record closed", "entity", payload.Entity, "entity_id", id)
		return nil
	}

	return r.sender.SendRevisitReminder(ctx, payload.Assignee, email.RevisitReminder{
		ClientName: payload.ClientName,
		Pincode:    payload.Pincode,
		Entity:     payload.Entity,
		RevisitAt:  payload.RevisitAt,
		Link:       r.link(payload.Entity, id),
	})
}

func (r *Reminders) stillDue(ctx context.Context, entity string, id uuid.UUID) (bool, error) {
	switch entity {
	case "lead":
		lead, err := r.records.GetLead(ctx, id)
		if err != nil {
			return false, err
		}
		return !domain.LeadTransitions.Terminal(lead.Status), nil
	case "sample_order":
		order, err := r.records.GetOrder(ctx, id)
		if err != nil {
			return false, err
		}
		return !domain.OrderTransitions.Terminal(order.Status), nil
	case "agreement":
		agreement, err := r.records.GetAgreement(ctx, id)
		if err != nil {
			return false, err
		}
		return !domain.AgreementTransitions.Terminal(agreement.Status), nil
	default:
		return false, fmt.Errorf("revisit reminder: unknown entity %q", entity)
	}
}

var linkPaths = map[string]string{
	"lead":         "/leads/",
	"sample_order": "/sample-orders/",
	"agreement":    "/agreements/",
}

func (r *Reminders) link(entity string, id uuid.UUID) string {
	path, ok := linkPaths[entity]
	if !ok || r.baseURL == "" {
		return ""
	}
	return r.baseURL + path + id.String()
}
