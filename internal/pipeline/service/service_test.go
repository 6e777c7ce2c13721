package service

import (
	"context"
	"testing"
	"time"

	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/remarks"
	"hoareca_growth_hub/internal/territory"
	"hoareca_growth_hub/platform/apperr"
	"hoareca_growth_hub/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mumbai    = "400001"
	bengaluru = "560001"
)

var agent = Actor{ID: uuid.New(), Email: "agent@growthhub.test"}

func newTestService(scope territory.Scope) (*Service, *memStore, *recordingBus) {
	store := newMemStore()
	bus := &recordingBus{}
	photos := photoBytes{"orders/not-exif.jpg": []byte("plain bytes")}
	svc := New(store, staticScopes(scope), bus, photos, pipelineConfig{radius: 200}, logger.Discard(), nil)
	return svc, store, bus
}

func ptr[T any](v T) *T { return &v }

func seedProspect(t *testing.T, store *memStore, pincode string, lat, lon *float64) domain.Prospect {
	t.Helper()
	p, err := store.CreateProspect(context.Background(), repository.CreateProspectParams{
		RestaurantName: "Cafe Mocha",
		Pincode:        pincode,
		Latitude:       lat,
		Longitude:      lon,
		Status:         domain.ProspectAssigned,
		Tag:            domain.TagInProgress,
		MappedTo:       "field.rep@growthhub.test",
	})
	require.NoError(t, err)
	return p
}

// seedOrder converts a prospect at the given coordinates and books a sample.
func seedOrder(t *testing.T, svc *Service, store *memStore, lat, lon *float64) (domain.Lead, domain.SampleOrder) {
	t.Helper()
	ctx := context.Background()
	p := seedProspect(t, store, mumbai, lat, lon)
	lead, err := svc.ConvertProspect(ctx, agent, p.ID, ConvertInput{Via: ViaVisit})
	require.NoError(t, err)
	order, err := svc.BookSample(ctx, agent, lead.ID, BookSampleInput{SKU: "SKU-PANEER-1KG"})
	require.NoError(t, err)
	return store.leads[lead.ID], order
}

func TestCreateProspect(t *testing.T) {
	svc, _, _ := newTestService(territory.Restricted(mumbai))
	ctx := context.Background()

	p, err := svc.CreateProspect(ctx, agent, CreateProspectInput{
		RestaurantName: "<b>Cafe Mocha</b>",
		Pincode:        mumbai,
		ContactNumber:  "98765 43210",
	})
	require.NoError(t, err)
	assert.Equal(t, "Cafe Mocha", p.RestaurantName)
	assert.Equal(t, "+919876543210", p.ContactNumber)
	assert.Equal(t, domain.ProspectAvailable, p.Status)
	assert.Equal(t, domain.TagNew, p.Tag)

	_, err = svc.CreateProspect(ctx, agent, CreateProspectInput{RestaurantName: "X", Pincode: "40001"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CreateProspect(ctx, agent, CreateProspectInput{RestaurantName: "X", Pincode: mumbai, ContactNumber: "12"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CreateProspect(ctx, agent, CreateProspectInput{RestaurantName: "X", Pincode: bengaluru})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestAssignAndDropProspect(t *testing.T) {
	svc, store, _ := newTestService(territory.Restricted(mumbai))
	ctx := context.Background()
	p := seedProspect(t, store, mumbai, nil, nil)

	assigned, err := svc.AssignProspect(ctx, agent, p.ID, " New.Rep@GrowthHub.test ")
	require.NoError(t, err)
	assert.Equal(t, "new.rep@growthhub.test", assigned.MappedTo)
	assert.Equal(t, domain.TagInProgress, assigned.Tag)

	dropped, err := svc.DropProspect(ctx, agent, p.ID, "Owner not interested")
	require.NoError(t, err)
	assert.Equal(t, domain.ProspectDropped, dropped.Status)
	assert.Equal(t, domain.TagDropped, dropped.Tag)
	reason, ok := remarks.ExtractTag(dropped.Remarks, remarks.TagReason)
	require.True(t, ok)
	assert.Equal(t, "Owner not interested", reason)
	assert.True(t, dropped.Metadata.Dropped)

	_, err = svc.AssignProspect(ctx, agent, p.ID, "someone@growthhub.test")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestConvertProspect(t *testing.T) {
	svc, store, bus := newTestService(territory.Restricted(mumbai))
	ctx := context.Background()
	p := seedProspect(t, store, mumbai, nil, nil)

	lead, err := svc.ConvertProspect(ctx, agent, p.ID, ConvertInput{Via: ViaCall})
	require.NoError(t, err)
	require.NotNil(t, lead.ProspectID)
	assert.Equal(t, p.ID, *lead.ProspectID)
	assert.Equal(t, "Cafe Mocha", lead.ClientName)
	assert.Equal(t, mumbai, lead.Pincode)
	assert.Equal(t, 1, lead.CallCount)
	assert.Equal(t, 0, lead.VisitCount)
	assert.Equal(t, domain.ProspectConverted, store.prospects[p.ID].Status)
	assert.Equal(t, domain.TagQualified, store.prospects[p.ID].Tag)
	assert.Equal(t, []string{"pipeline.prospect.converted"}, bus.names())

	_, err = svc.ConvertProspect(ctx, agent, p.ID, ConvertInput{Via: ViaCall})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.ConvertProspect(ctx, agent, p.ID, ConvertInput{Via: "email"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestOperationsOutsideTerritoryAreForbidden(t *testing.T) {
	svc, store, bus := newTestService(territory.Restricted(bengaluru))
	ctx := context.Background()
	p := seedProspect(t, store, mumbai, nil, nil)

	_, err := svc.ConvertProspect(ctx, agent, p.ID, ConvertInput{})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Empty(t, store.leads)
	assert.Empty(t, bus.names())

	_, err = svc.DropProspect(ctx, agent, p.ID, "closed")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.LogCall(ctx, agent, uuid.New(), CallInput{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeniedScopeSeesNothing(t *testing.T) {
	svc, store, _ := newTestService(territory.Denied())
	ctx := context.Background()
	seedProspect(t, store, mumbai, nil, nil)

	items, err := svc.ListProspects(ctx, agent, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []string{}, store.lastList.Pincodes)
}

func TestListProspectsNarrowsToTerritory(t *testing.T) {
	svc, store, _ := newTestService(territory.Restricted(mumbai))
	ctx := context.Background()
	seedProspect(t, store, mumbai, nil, nil)
	seedProspect(t, store, bengaluru, nil, nil)

	items, err := svc.ListProspects(ctx, agent, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = svc.ListProspects(ctx, agent, ListFilter{Pincode: bengaluru})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []string{}, store.lastList.Pincodes)
}

func TestLogCall(t *testing.T) {
	svc, store, _ := newTestService(territory.Unrestricted())
	ctx := context.Background()
	lead, err := svc.CreateLead(ctx, agent, CreateLeadInput{ClientName: "Spice Route", Pincode: mumbai})
	require.NoError(t, err)
	assert.Nil(t, lead.ProspectID)

	followUp := time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)
	lead, err = svc.LogCall(ctx, agent, lead.ID, CallInput{Notes: "Asked for [price] list", FollowUpAt: &followUp})
	require.NoError(t, err)
	assert.Equal(t, 1, lead.CallCount)
	assert.Equal(t, domain.LeadInProgress, lead.Status)
	assert.Contains(t, lead.Remarks, "Asked for (price) list")

	date, ok := remarks.ExtractTag(lead.Remarks, remarks.TagFollowUp)
	require.True(t, ok)
	assert.Equal(t, "17 Feb 2026", date)
	assert.Equal(t, "17 Feb 2026", store.leads[lead.ID].Metadata.FollowUpDate)
}

func TestBookSampleCountsVisitAndConvertsLead(t *testing.T) {
	svc, store, _ := newTestService(territory.Restricted(mumbai))
	lead, order := seedOrder(t, svc, store, nil, nil)

	assert.Equal(t, 2, lead.VisitCount)
	assert.Equal(t, domain.LeadConverted, lead.Status)
	assert.Equal(t, domain.OrderSampleOrdered, order.Status)
	assert.Equal(t, lead.ID, order.LeadID)

	_, err := svc.BookSample(context.Background(), agent, lead.ID, BookSampleInput{SKU: "SKU-BUTTER-500G"})
	require.NoError(t, err)
	assert.Equal(t, 3, store.leads[lead.ID].VisitCount)
}

func TestOrderVisitRevisitSchedulesReminder(t *testing.T) {
	svc, store, bus := newTestService(territory.Restricted(mumbai))
	lead, order := seedOrder(t, svc, store, nil, nil)
	at := time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)

	order, err := svc.LogOrderVisit(context.Background(), agent, order.ID, VisitInput{Outcome: OutcomeRevisit, RevisitAt: &at})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRevisitNeeded, order.Status)
	assert.Equal(t, 3, store.leads[lead.ID].VisitCount)

	date, ok := remarks.ExtractTag(order.Remarks, remarks.TagRevisit)
	require.True(t, ok)
	assert.Equal(t, "17 Feb 2026", date)

	require.Len(t, bus.events, 2)
	evt, ok := bus.events[1].(events.RevisitScheduled)
	require.True(t, ok)
	assert.Equal(t, "sample_order", evt.Entity)
	assert.Equal(t, order.ID, evt.EntityID)
	assert.Equal(t, lead.ID, evt.LeadID)
	assert.Equal(t, "field.rep@growthhub.test", evt.Assignee)
	assert.Equal(t, at, evt.RevisitAt)

	_, err = svc.LogOrderVisit(context.Background(), agent, order.ID, VisitInput{Outcome: OutcomeRevisit})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLeadVisitDrop(t *testing.T) {
	svc, store, _ := newTestService(territory.Unrestricted())
	ctx := context.Background()
	lead, err := svc.CreateLead(ctx, agent, CreateLeadInput{ClientName: "Spice Route", Pincode: mumbai})
	require.NoError(t, err)

	lead, err = svc.LogLeadVisit(ctx, agent, lead.ID, VisitInput{Outcome: OutcomeDrop, Reason: "Shut down. Permanently"})
	require.NoError(t, err)
	assert.Equal(t, domain.LeadDropped, lead.Status)
	assert.Equal(t, 1, store.leads[lead.ID].VisitCount)

	visits, ok := remarks.ExtractTag(lead.Remarks, remarks.TagTotalVisits)
	require.True(t, ok)
	assert.Equal(t, "1", visits)
	require.NotNil(t, lead.Metadata.TotalVisits)
	assert.Equal(t, 1, *lead.Metadata.TotalVisits)

	_, err = svc.LogLeadVisit(ctx, agent, lead.ID, VisitInput{Outcome: OutcomeCompleted})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestDropLead(t *testing.T) {
	svc, _, _ := newTestService(territory.Unrestricted())
	ctx := context.Background()
	lead, err := svc.CreateLead(ctx, agent, CreateLeadInput{ClientName: "Spice Route", Pincode: mumbai})
	require.NoError(t, err)

	_, err = svc.DropLead(ctx, agent, lead.ID, "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	lead, err = svc.DropLead(ctx, agent, lead.ID, "Price too high")
	require.NoError(t, err)
	reason, ok := remarks.ExtractTag(lead.Remarks, remarks.TagReason)
	require.True(t, ok)
	assert.Equal(t, "Price too high", reason)
	assert.Equal(t, "Price too high", lead.Metadata.DropReason)

	_, err = svc.DropLead(ctx, agent, lead.ID, "again")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestMarkDeliveredGeofence(t *testing.T) {
	outletLat, outletLon := 19.0760, 72.8777
	ctx := context.Background()

	t.Run("inside radius", func(t *testing.T) {
		svc, store, _ := newTestService(territory.Restricted(mumbai))
		_, order := seedOrder(t, svc, store, ptr(outletLat), ptr(outletLon))

		delivered, err := svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{Latitude: ptr(19.0765), Longitude: ptr(72.8780)})
		require.NoError(t, err)
		assert.Equal(t, domain.OrderSampleDelivered, delivered.Status)
		assert.NotNil(t, delivered.DeliveryDate)
	})

	t.Run("outside radius", func(t *testing.T) {
		svc, store, _ := newTestService(territory.Restricted(mumbai))
		_, order := seedOrder(t, svc, store, ptr(outletLat), ptr(outletLon))

		_, err := svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{Latitude: ptr(19.0860), Longitude: ptr(72.8777)})
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		details, ok := appErr.Details.(GeofenceDetails)
		require.True(t, ok)
		assert.InDelta(t, 1112, details.DistanceMeters, 5)
		assert.Equal(t, 200.0, details.RadiusMeters)
		assert.Equal(t, domain.OrderSampleOrdered, store.orders[order.ID].Status)
	})

	t.Run("location required", func(t *testing.T) {
		svc, store, _ := newTestService(territory.Restricted(mumbai))
		_, order := seedOrder(t, svc, store, ptr(outletLat), ptr(outletLon))

		_, err := svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{Latitude: ptr(19.0)})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("photo without gps", func(t *testing.T) {
		svc, store, _ := newTestService(territory.Restricted(mumbai))
		_, order := seedOrder(t, svc, store, ptr(outletLat), ptr(outletLon))
		key := photoFolder(order.ID) + "/front.jpg"
		svc.photos = photoBytes{key: []byte("no exif here")}

		_, err := svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{PhotoKey: key})
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "delivery photo has no GPS position", appErr.Message)
	})

	t.Run("photo from another order", func(t *testing.T) {
		svc, store, _ := newTestService(territory.Restricted(mumbai))
		_, order := seedOrder(t, svc, store, ptr(outletLat), ptr(outletLon))

		_, err := svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{PhotoKey: "orders/not-exif.jpg"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("outlet without coordinates skips the check", func(t *testing.T) {
		svc, store, _ := newTestService(territory.Restricted(mumbai))
		_, order := seedOrder(t, svc, store, nil, nil)

		delivered, err := svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{})
		require.NoError(t, err)
		assert.Equal(t, domain.OrderSampleDelivered, delivered.Status)
	})
}

func TestPhotoUploadURL(t *testing.T) {
	svc, store, _ := newTestService(territory.Restricted(mumbai))
	_, order := seedOrder(t, svc, store, nil, nil)
	ctx := context.Background()

	url, err := svc.PhotoUploadURL(ctx, agent, order.ID, PhotoUploadInput{FileName: "front.jpg", ContentType: "image/jpeg", SizeBytes: 1024})
	require.NoError(t, err)
	assert.Equal(t, photoFolder(order.ID)+"/front.jpg", url.FileKey)

	_, err = svc.PhotoUploadURL(ctx, agent, order.ID, PhotoUploadInput{FileName: "a.pdf", ContentType: "application/pdf", SizeBytes: 1024})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCompletedVisitClearsPendingRevisit(t *testing.T) {
	svc, store, _ := newTestService(territory.Restricted(mumbai))
	_, order := seedOrder(t, svc, store, nil, nil)
	ctx := context.Background()
	at := time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)

	order, err := svc.LogOrderVisit(ctx, agent, order.ID, VisitInput{Outcome: OutcomeRevisit, RevisitAt: &at})
	require.NoError(t, err)
	assert.Equal(t, "17 Feb 2026", order.Metadata.RevisitDate)

	order, err = svc.LogOrderVisit(ctx, agent, order.ID, VisitInput{Outcome: OutcomeCompleted, Notes: "tasting done"})
	require.NoError(t, err)
	assert.Empty(t, order.Metadata.RevisitDate)
	assert.True(t, order.Metadata.RevisitDone)

	notes := remarks.Resolve(order.Remarks, order.Metadata)
	assert.Empty(t, notes.RevisitDate)
}

func TestPhotoDownloadURL(t *testing.T) {
	svc, store, _ := newTestService(territory.Restricted(mumbai))
	_, order := seedOrder(t, svc, store, nil, nil)
	ctx := context.Background()

	_, err := svc.PhotoDownloadURL(ctx, agent, order.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	stored := store.orders[order.ID]
	stored.DeliveryPhotoKey = photoFolder(order.ID) + "/front.jpg"
	store.orders[order.ID] = stored

	url, err := svc.PhotoDownloadURL(ctx, agent, order.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.DeliveryPhotoKey, url.FileKey)
	assert.Contains(t, url.URL, stored.DeliveryPhotoKey)
}

func TestAgreementLifecycle(t *testing.T) {
	svc, store, bus := newTestService(territory.Restricted(mumbai))
	ctx := context.Background()
	_, order := seedOrder(t, svc, store, nil, nil)

	_, err := svc.CreateAgreement(ctx, agent, order.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{})
	require.NoError(t, err)

	agreement, err := svc.CreateAgreement(ctx, agent, order.ID, "terms shared")
	require.NoError(t, err)
	assert.Equal(t, domain.AgreementPendingFeedback, agreement.Status)
	assert.Equal(t, domain.EsignNotSent, agreement.EsignStatus)

	agreement, err = svc.RecordFeedback(ctx, agent, agreement.ID, FeedbackInput{Positive: false, Notes: "too salty"})
	require.NoError(t, err)
	assert.Equal(t, domain.AgreementRevisitNeeded, agreement.Status)
	require.NotNil(t, agreement.QualityFeedback)
	assert.False(t, *agreement.QualityFeedback)
	assert.Equal(t, "too salty", agreement.Metadata.Feedback)

	agreement, err = svc.RecordFeedback(ctx, agent, agreement.ID, FeedbackInput{Positive: true})
	require.NoError(t, err)
	assert.Equal(t, domain.AgreementSent, agreement.Status)
	assert.Equal(t, domain.EsignSent, agreement.EsignStatus)

	agreement, err = svc.MarkSigned(ctx, agent, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AgreementSigned, agreement.Status)
	assert.Equal(t, domain.EsignSigned, agreement.EsignStatus)
	assert.Contains(t, bus.names(), "pipeline.agreement.signed")

	_, err = svc.MarkLost(ctx, agent, agreement.ID, "competitor")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestMarkLostAndAgreementVisit(t *testing.T) {
	svc, store, _ := newTestService(territory.Restricted(mumbai))
	ctx := context.Background()
	lead, order := seedOrder(t, svc, store, nil, nil)
	_, err := svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{})
	require.NoError(t, err)
	agreement, err := svc.CreateAgreement(ctx, agent, order.ID, "")
	require.NoError(t, err)

	agreement, err = svc.LogAgreementVisit(ctx, agent, agreement.ID, VisitInput{Outcome: OutcomeCompleted, Notes: "met owner"})
	require.NoError(t, err)
	assert.Equal(t, domain.AgreementPendingFeedback, agreement.Status)
	assert.Equal(t, 3, store.leads[lead.ID].VisitCount)

	agreement, err = svc.MarkLost(ctx, agent, agreement.ID, "Chose a competitor")
	require.NoError(t, err)
	assert.Equal(t, domain.AgreementLost, agreement.Status)
	assert.Equal(t, "Chose a competitor", agreement.Metadata.DropReason)
	assert.Equal(t, domain.StageSampleOrder, domain.Classify(domain.Prospect{}, &lead, &order, &agreement))
}

func TestDropOrder(t *testing.T) {
	svc, store, _ := newTestService(territory.Restricted(mumbai))
	ctx := context.Background()
	_, order := seedOrder(t, svc, store, nil, nil)

	order, err := svc.DropOrder(ctx, agent, order.ID, "Not needed")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDropped, order.Status)
	assert.True(t, order.Metadata.Dropped)

	_, err = svc.MarkDelivered(ctx, agent, order.ID, DeliverInput{})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
