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
	"hoareca_growth_hub/platform/phone"
	"hoareca_growth_hub/platform/sanitize"
	"hoareca_growth_hub/platform/validator"

	"github.com/google/uuid"
)

// ListFilter narrows list reads. Pincode must lie inside the caller's
// territory to match anything.
type ListFilter struct {
	Pincode string
	Status  string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

func (s *Service) listParams(ctx context.Context, actor Actor, f ListFilter) repository.ListParams {
	return repository.ListParams{
		Pincodes: s.scopes.Resolve(ctx, actor.ID).Narrow(f.Pincode),
		From:     f.From,
		To:       f.To,
		Status:   f.Status,
		Limit:    f.Limit,
		Offset:   f.Offset,
	}
}

// CreateProspectInput describes a new outlet.
type CreateProspectInput struct {
	RestaurantName string
	Pincode        string
	Locality       string
	ContactNumber  string
	Latitude       *float64
	Longitude      *float64
	Remarks        string
}

// ListProspects returns prospects in the caller's territory.
func (s *Service) ListProspects(ctx context.Context, actor Actor, f ListFilter) ([]domain.Prospect, error) {
	items, err := s.repo.ListProspects(ctx, s.listParams(ctx, actor, f))
	if err != nil {
		return nil, s.storeErr(ctx, "list prospects", "prospect", err)
	}
	return items, nil
}

// CreateProspect inserts an available prospect tagged New.
func (s *Service) CreateProspect(ctx context.Context, actor Actor, in CreateProspectInput) (domain.Prospect, error) {
	name := sanitize.StripHTML(in.RestaurantName)
	if name == "" {
		return domain.Prospect{}, apperr.Validation("restaurant name is required")
	}
	pincode := strings.TrimSpace(in.Pincode)
	if !validator.IsPincode(pincode) {
		return domain.Prospect{}, apperr.Validation("pincode must be 6 digits")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return domain.Prospect{}, apperr.Validation("latitude and longitude must be given together")
	}
	contact := strings.TrimSpace(in.ContactNumber)
	if contact != "" {
		if !phone.IsValid(contact) {
			return domain.Prospect{}, apperr.Validation("contact number is not a valid phone number")
		}
		contact = phone.NormalizeE164(contact)
	}
	if err := s.authorize(ctx, actor, pincode); err != nil {
		return domain.Prospect{}, err
	}

	p, err := s.repo.CreateProspect(ctx, repository.CreateProspectParams{
		RestaurantName: name,
		Pincode:        pincode,
		Locality:       sanitize.StripHTML(in.Locality),
		ContactNumber:  contact,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		Status:         domain.ProspectAvailable,
		Tag:            domain.TagNew,
		Remarks:        sanitize.Note(in.Remarks),
	})
	if err != nil {
		return domain.Prospect{}, s.storeErr(ctx, "create prospect", "prospect", err)
	}
	s.metrics.RecordTransition("prospect", p.Status)
	return p, nil
}

func (s *Service) loadProspect(ctx context.Context, actor Actor, id uuid.UUID) (domain.Prospect, error) {
	p, err := s.repo.GetProspect(ctx, id)
	if err != nil {
		return domain.Prospect{}, s.storeErr(ctx, "load prospect", "prospect", err)
	}
	if err := s.authorize(ctx, actor, p.Pincode); err != nil {
		return domain.Prospect{}, err
	}
	return p, nil
}

// AssignProspect maps a prospect to a field agent.
func (s *Service) AssignProspect(ctx context.Context, actor Actor, id uuid.UUID, assignee string) (domain.Prospect, error) {
	assignee = strings.ToLower(strings.TrimSpace(assignee))
	if assignee == "" {
		return domain.Prospect{}, apperr.Validation("assignee is required")
	}
	p, err := s.loadProspect(ctx, actor, id)
	if err != nil {
		return domain.Prospect{}, err
	}
	if err := transition(domain.ProspectTransitions, "prospect", p.Status, domain.ProspectAssigned); err != nil {
		return domain.Prospect{}, err
	}

	updated, err := s.repo.UpdateProspect(ctx, id, repository.ProspectUpdate{
		Status:   domain.ProspectAssigned,
		Tag:      domain.TagInProgress,
		MappedTo: &assignee,
		Remarks:  p.Remarks,
		Metadata: p.Metadata,
	})
	if err != nil {
		return domain.Prospect{}, s.storeErr(ctx, "assign prospect", "prospect", err)
	}
	s.metrics.RecordTransition("prospect", updated.Status)
	return updated, nil
}

// DropProspect marks a prospect dropped with a reason.
func (s *Service) DropProspect(ctx context.Context, actor Actor, id uuid.UUID, reason string) (domain.Prospect, error) {
	reason, err := requireReason(sanitize.Note(reason))
	if err != nil {
		return domain.Prospect{}, err
	}
	p, err := s.loadProspect(ctx, actor, id)
	if err != nil {
		return domain.Prospect{}, err
	}
	if err := transition(domain.ProspectTransitions, "prospect", p.Status, domain.ProspectDropped); err != nil {
		return domain.Prospect{}, err
	}

	meta := p.Metadata.WithReason(reason)
	meta.Dropped = true
	updated, err := s.repo.UpdateProspect(ctx, id, repository.ProspectUpdate{
		Status:   domain.ProspectDropped,
		Tag:      domain.TagDropped,
		Remarks:  remarks.Append(p.Remarks, "["+remarks.TagDropped+"]", remarks.ReasonFragment(reason)),
		Metadata: meta,
	})
	if err != nil {
		return domain.Prospect{}, s.storeErr(ctx, "drop prospect", "prospect", err)
	}
	s.metrics.RecordTransition("prospect", updated.Status)
	return updated, nil
}

// Qualification channels for ConvertProspect.
const (
	ViaCall  = "call"
	ViaVisit = "visit"
)

// ConvertInput describes the qualifying contact that turned a prospect into
// a lead.
type ConvertInput struct {
	ClientName string
	Via        string
	Notes      string
}

// ConvertProspect creates a lead linked to the prospect and marks the
// prospect converted. The qualifying call or visit is counted on the lead.
func (s *Service) ConvertProspect(ctx context.Context, actor Actor, id uuid.UUID, in ConvertInput) (domain.Lead, error) {
	var calls, visits int
	switch in.Via {
	case ViaCall:
		calls = 1
	case ViaVisit, "":
		visits = 1
	default:
		return domain.Lead{}, apperr.Validation("via must be call or visit")
	}

	p, err := s.loadProspect(ctx, actor, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if err := transition(domain.ProspectTransitions, "prospect", p.Status, domain.ProspectConverted); err != nil {
		return domain.Lead{}, err
	}

	name := sanitize.StripHTML(in.ClientName)
	if name == "" {
		name = p.RestaurantName
	}
	actorID := actor.ID

	var lead domain.Lead
	err = s.repo.InTx(ctx, func(tx repository.Store) error {
		created, err := tx.CreateLead(ctx, repository.CreateLeadParams{
			ClientName: name,
			Pincode:    p.Pincode,
			ProspectID: &p.ID,
			Status:     domain.LeadNew,
			Remarks:    sanitize.Note(in.Notes),
			CreatedBy:  &actorID,
		})
		if err != nil {
			return err
		}
		if lead, err = tx.IncrementLeadCounters(ctx, created.ID, calls, visits); err != nil {
			return err
		}
		_, err = tx.UpdateProspect(ctx, p.ID, repository.ProspectUpdate{
			Status:   domain.ProspectConverted,
			Tag:      domain.TagQualified,
			Remarks:  p.Remarks,
			Metadata: p.Metadata,
		})
		return err
	})
	if err != nil {
		return domain.Lead{}, s.storeErr(ctx, "convert prospect", "prospect", err)
	}

	s.metrics.RecordTransition("prospect", domain.ProspectConverted)
	s.metrics.RecordTransition("lead", lead.Status)
	s.publish(ctx, events.ProspectConverted{
		BaseEvent:  events.NewBaseEvent(),
		ProspectID: p.ID,
		LeadID:     lead.ID,
		Pincode:    p.Pincode,
		ActorID:    actor.ID,
	})
	return lead, nil
}
