package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"hoareca_growth_hub/internal/adapters/storage"
	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/remarks"
	"hoareca_growth_hub/platform/apperr"
	"hoareca_growth_hub/platform/sanitize"

	"github.com/google/uuid"
)

// DeliverInput records a sample delivery. The agent's position comes from
// Latitude/Longitude when given, otherwise from the GPS block of the uploaded
// delivery photo.
type DeliverInput struct {
	Latitude    *float64
	Longitude   *float64
	PhotoKey    string
	DeliveredAt *time.Time
	Notes       string
}

// PhotoUploadInput describes a delivery photo about to be uploaded.
type PhotoUploadInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
}

// GeofenceDetails is attached to a rejected delivery.
type GeofenceDetails struct {
	DistanceMeters float64 `json:"distanceMeters"`
	RadiusMeters   float64 `json:"radiusMeters"`
}

// ListOrders returns sample orders whose lead lies in the caller's territory.
func (s *Service) ListOrders(ctx context.Context, actor Actor, f ListFilter, leadID *uuid.UUID) ([]domain.SampleOrder, error) {
	params := s.listParams(ctx, actor, f)
	params.LeadID = leadID
	items, err := s.repo.ListOrders(ctx, params)
	if err != nil {
		return nil, s.storeErr(ctx, "list sample orders", "sample order", err)
	}
	return items, nil
}

// LogOrderVisit counts a visit against the order's lead and applies its
// outcome to the order.
func (s *Service) LogOrderVisit(ctx context.Context, actor Actor, id uuid.UUID, in VisitInput) (domain.SampleOrder, error) {
	if err := in.validate(); err != nil {
		return domain.SampleOrder{}, err
	}
	order, lead, err := s.loadOrder(ctx, actor, id)
	if err != nil {
		return domain.SampleOrder{}, err
	}

	next := order.Status
	switch in.Outcome {
	case OutcomeCompleted:
		if order.Status == domain.OrderPendingVisit || order.Status == domain.OrderRevisitNeeded {
			next = domain.OrderVisited
		}
	case OutcomeRevisit:
		next = domain.OrderRevisitNeeded
	case OutcomeDrop:
		next = domain.OrderDropped
	}
	if err := step(domain.OrderTransitions, "sample order", order.Status, next); err != nil {
		return domain.SampleOrder{}, err
	}

	text := remarks.Append(order.Remarks, sanitize.Note(in.Notes))
	meta := order.Metadata
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
		order, err = tx.UpdateOrder(ctx, id, repository.OrderUpdate{Status: next, Remarks: text, Metadata: meta})
		return err
	})
	if err != nil {
		return domain.SampleOrder{}, s.storeErr(ctx, "log sample order visit", "sample order", err)
	}

	s.metrics.RecordTransition("sample_order", order.Status)
	if in.Outcome == OutcomeRevisit {
		s.publish(ctx, events.RevisitScheduled{
			BaseEvent:  events.NewBaseEvent(),
			Entity:     "sample_order",
			EntityID:   order.ID,
			LeadID:     lead.ID,
			ClientName: lead.ClientName,
			Pincode:    lead.Pincode,
			Assignee:   s.assignee(ctx, lead, actor),
			RevisitAt:  *in.RevisitAt,
		})
	}
	return order, nil
}

// MarkDelivered records the delivery of a sample after checking that the
// agent stood within the geofence around the outlet.
func (s *Service) MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID, in DeliverInput) (domain.SampleOrder, error) {
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return domain.SampleOrder{}, apperr.Validation("latitude and longitude must be given together")
	}
	order, lead, err := s.loadOrder(ctx, actor, id)
	if err != nil {
		return domain.SampleOrder{}, err
	}
	if err := transition(domain.OrderTransitions, "sample order", order.Status, domain.OrderSampleDelivered); err != nil {
		return domain.SampleOrder{}, err
	}
	photoKey := strings.TrimSpace(in.PhotoKey)
	if photoKey != "" && !strings.HasPrefix(photoKey, photoFolder(order.ID)+"/") {
		return domain.SampleOrder{}, apperr.Validation("photo does not belong to this sample order")
	}
	if err := s.checkGeofence(ctx, lead, in.Latitude, in.Longitude, photoKey); err != nil {
		return domain.SampleOrder{}, err
	}

	deliveredAt := s.now()
	if in.DeliveredAt != nil && !in.DeliveredAt.IsZero() {
		deliveredAt = *in.DeliveredAt
	}
	update := repository.OrderUpdate{
		Status:       domain.OrderSampleDelivered,
		Remarks:      remarks.Append(order.Remarks, sanitize.Note(in.Notes)),
		Metadata:     order.Metadata,
		DeliveryDate: &deliveredAt,
	}
	if photoKey != "" {
		update.DeliveryPhotoKey = &photoKey
	}

	order, err = s.repo.UpdateOrder(ctx, id, update)
	if err != nil {
		return domain.SampleOrder{}, s.storeErr(ctx, "mark sample delivered", "sample order", err)
	}
	s.metrics.RecordTransition("sample_order", order.Status)
	return order, nil
}

// checkGeofence compares the agent's position with the outlet's. Orphan
// leads and prospects without coordinates have no reference point and pass.
func (s *Service) checkGeofence(ctx context.Context, lead domain.Lead, lat, lon *float64, photoKey string) error {
	log := s.log.WithContext(ctx)
	if lead.ProspectID == nil {
		log.Info("geofence skipped", slog.String("leadId", lead.ID.String()), slog.String("reason", "no prospect"))
		return nil
	}
	p, err := s.repo.GetProspect(ctx, *lead.ProspectID)
	if err != nil {
		return s.storeErr(ctx, "load prospect", "prospect", err)
	}
	if p.Latitude == nil || p.Longitude == nil {
		log.Info("geofence skipped", slog.String("leadId", lead.ID.String()), slog.String("reason", "prospect has no coordinates"))
		return nil
	}

	var agentLat, agentLon float64
	switch {
	case lat != nil && lon != nil:
		agentLat, agentLon = *lat, *lon
	case photoKey != "":
		agentLat, agentLon, err = s.photoPosition(ctx, photoKey)
		if err != nil {
			return err
		}
	default:
		return apperr.Validation("agent location or a delivery photo is required")
	}

	radius := s.cfg.GetGeofenceRadiusMeters()
	if !domain.WithinRadius(agentLat, agentLon, *p.Latitude, *p.Longitude, radius) {
		distance := domain.DistanceMeters(agentLat, agentLon, *p.Latitude, *p.Longitude)
		return apperr.Validation("delivery location is outside the outlet geofence").
			WithDetails(GeofenceDetails{DistanceMeters: math.Round(distance), RadiusMeters: radius})
	}
	return nil
}

func (s *Service) photoPosition(ctx context.Context, key string) (float64, float64, error) {
	rc, err := s.downloadPhoto(ctx, key)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return 0, 0, err
		}
		return 0, 0, apperr.Internal("failed to read delivery photo", err)
	}
	defer func() { _ = rc.Close() }()

	lat, lon, err := storage.ReadGPS(rc)
	if err != nil {
		return 0, 0, apperr.Validation("delivery photo has no GPS position")
	}
	return lat, lon, nil
}

// DropOrder marks a sample order dropped with a reason.
func (s *Service) DropOrder(ctx context.Context, actor Actor, id uuid.UUID, reason string) (domain.SampleOrder, error) {
	reason, err := requireReason(sanitize.Note(reason))
	if err != nil {
		return domain.SampleOrder{}, err
	}
	order, lead, err := s.loadOrder(ctx, actor, id)
	if err != nil {
		return domain.SampleOrder{}, err
	}
	if err := transition(domain.OrderTransitions, "sample order", order.Status, domain.OrderDropped); err != nil {
		return domain.SampleOrder{}, err
	}

	order, err = s.repo.UpdateOrder(ctx, id, repository.OrderUpdate{
		Status:   domain.OrderDropped,
		Remarks:  remarks.Append(order.Remarks, remarks.DroppedTag(reason, lead.VisitCount)),
		Metadata: order.Metadata.WithDrop(reason, lead.VisitCount),
	})
	if err != nil {
		return domain.SampleOrder{}, s.storeErr(ctx, "drop sample order", "sample order", err)
	}
	s.metrics.RecordTransition("sample_order", order.Status)
	return order, nil
}

// PhotoUploadURL issues a presigned URL for a delivery photo of the order.
func (s *Service) PhotoUploadURL(ctx context.Context, actor Actor, id uuid.UUID, in PhotoUploadInput) (*storage.PresignedURL, error) {
	if s.photos == nil {
		return nil, apperr.Validation("photo storage is not configured")
	}
	if err := storage.ValidateContentType(in.ContentType); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	order, _, err := s.loadOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	url, err := s.photos.GenerateUploadURL(ctx, s.cfg.GetMinioBucketDeliveryPhotos(), photoFolder(order.ID), in.FileName, in.ContentType, in.SizeBytes)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidUpload) {
			return nil, apperr.Validation(err.Error())
		}
		return nil, apperr.Internal("failed to create upload url", err)
	}
	return url, nil
}

// PhotoDownloadURL issues a presigned URL for the order's delivery photo.
func (s *Service) PhotoDownloadURL(ctx context.Context, actor Actor, id uuid.UUID) (*storage.PresignedURL, error) {
	if s.photos == nil {
		return nil, apperr.Validation("photo storage is not configured")
	}
	order, _, err := s.loadOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.DeliveryPhotoKey == "" {
		return nil, apperr.NotFound("sample order has no delivery photo")
	}

	url, err := s.photos.GenerateDownloadURL(ctx, s.cfg.GetMinioBucketDeliveryPhotos(), order.DeliveryPhotoKey)
	if err != nil {
		return nil, apperr.Internal("failed to create download url", err)
	}
	return url, nil
}

func photoFolder(orderID uuid.UUID) string {
	return "orders/" + orderID.String()
}
