package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"hoareca_growth_hub/internal/adapters/storage"
	"hoareca_growth_hub/internal/events"
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/territory"

	"github.com/google/uuid"
)

// memStore is an in-memory repository.Store.
type memStore struct {
	prospects  map[uuid.UUID]domain.Prospect
	leads      map[uuid.UUID]domain.Lead
	orders     map[uuid.UUID]domain.SampleOrder
	agreements map[uuid.UUID]domain.Agreement
	lastList   repository.ListParams
}

func newMemStore() *memStore {
	return &memStore{
		prospects:  map[uuid.UUID]domain.Prospect{},
		leads:      map[uuid.UUID]domain.Lead{},
		orders:     map[uuid.UUID]domain.SampleOrder{},
		agreements: map[uuid.UUID]domain.Agreement{},
	}
}

func inScope(pincodes []string, pincode string) bool {
	if pincodes == nil {
		return true
	}
	for _, p := range pincodes {
		if p == pincode {
			return true
		}
	}
	return false
}

func (m *memStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

func (m *memStore) ListProspects(_ context.Context, params repository.ListParams) ([]domain.Prospect, error) {
	m.lastList = params
	var out []domain.Prospect
	for _, p := range m.prospects {
		if inScope(params.Pincodes, p.Pincode) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetProspect(_ context.Context, id uuid.UUID) (domain.Prospect, error) {
	p, ok := m.prospects[id]
	if !ok {
		return domain.Prospect{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memStore) CreateProspect(_ context.Context, params repository.CreateProspectParams) (domain.Prospect, error) {
	p := domain.Prospect{
		ID:             uuid.New(),
		RestaurantName: params.RestaurantName,
		Pincode:        params.Pincode,
		Locality:       params.Locality,
		ContactNumber:  params.ContactNumber,
		Latitude:       params.Latitude,
		Longitude:      params.Longitude,
		Status:         params.Status,
		Tag:            params.Tag,
		MappedTo:       params.MappedTo,
		Remarks:        params.Remarks,
		CreatedAt:      time.Now(),
	}
	m.prospects[p.ID] = p
	return p, nil
}

func (m *memStore) UpdateProspect(_ context.Context, id uuid.UUID, params repository.ProspectUpdate) (domain.Prospect, error) {
	p, ok := m.prospects[id]
	if !ok {
		return domain.Prospect{}, repository.ErrNotFound
	}
	p.Status, p.Tag, p.Remarks, p.Metadata = params.Status, params.Tag, params.Remarks, params.Metadata
	if params.MappedTo != nil {
		p.MappedTo = *params.MappedTo
	}
	m.prospects[id] = p
	return p, nil
}

func (m *memStore) ListLeads(_ context.Context, params repository.ListParams) ([]domain.Lead, error) {
	m.lastList = params
	var out []domain.Lead
	for _, l := range m.leads {
		if inScope(params.Pincodes, l.Pincode) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

func (m *memStore) CreateLead(_ context.Context, params repository.CreateLeadParams) (domain.Lead, error) {
	l := domain.Lead{
		ID:         uuid.New(),
		ClientName: params.ClientName,
		Pincode:    params.Pincode,
		Status:     params.Status,
		ProspectID: params.ProspectID,
		Remarks:    params.Remarks,
		Metadata:   params.Metadata,
		CreatedBy:  params.CreatedBy,
		CreatedAt:  time.Now(),
	}
	m.leads[l.ID] = l
	return l, nil
}

func (m *memStore) UpdateLead(_ context.Context, id uuid.UUID, params repository.LeadUpdate) (domain.Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	l.Status, l.Remarks, l.Metadata = params.Status, params.Remarks, params.Metadata
	m.leads[id] = l
	return l, nil
}

func (m *memStore) IncrementLeadCounters(_ context.Context, id uuid.UUID, calls, visits int) (domain.Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	l.CallCount += calls
	l.VisitCount += visits
	m.leads[id] = l
	return l, nil
}

func (m *memStore) ListOrders(_ context.Context, params repository.ListParams) ([]domain.SampleOrder, error) {
	m.lastList = params
	var out []domain.SampleOrder
	for _, o := range m.orders {
		if inScope(params.Pincodes, m.leads[o.LeadID].Pincode) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) GetOrder(_ context.Context, id uuid.UUID) (domain.SampleOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return domain.SampleOrder{}, repository.ErrNotFound
	}
	return o, nil
}

func (m *memStore) CreateOrder(_ context.Context, params repository.CreateOrderParams) (domain.SampleOrder, error) {
	o := domain.SampleOrder{
		ID:        uuid.New(),
		LeadID:    params.LeadID,
		SKU:       params.SKU,
		Status:    params.Status,
		Remarks:   params.Remarks,
		Metadata:  params.Metadata,
		CreatedAt: time.Now(),
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) UpdateOrder(_ context.Context, id uuid.UUID, params repository.OrderUpdate) (domain.SampleOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return domain.SampleOrder{}, repository.ErrNotFound
	}
	o.Status, o.Remarks, o.Metadata = params.Status, params.Remarks, params.Metadata
	if params.DeliveryDate != nil {
		o.DeliveryDate = params.DeliveryDate
	}
	if params.DeliveryPhotoKey != nil {
		o.DeliveryPhotoKey = *params.DeliveryPhotoKey
	}
	m.orders[id] = o
	return o, nil
}

func (m *memStore) ListAgreements(_ context.Context, params repository.ListParams) ([]domain.Agreement, error) {
	m.lastList = params
	var out []domain.Agreement
	for _, a := range m.agreements {
		lead := m.leads[m.orders[a.SampleOrderID].LeadID]
		if inScope(params.Pincodes, lead.Pincode) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetAgreement(_ context.Context, id uuid.UUID) (domain.Agreement, error) {
	a, ok := m.agreements[id]
	if !ok {
		return domain.Agreement{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memStore) CreateAgreement(_ context.Context, params repository.CreateAgreementParams) (domain.Agreement, error) {
	a := domain.Agreement{
		ID:            uuid.New(),
		SampleOrderID: params.SampleOrderID,
		Status:        params.Status,
		EsignStatus:   params.EsignStatus,
		Remarks:       params.Remarks,
		Metadata:      params.Metadata,
		CreatedAt:     time.Now(),
	}
	m.agreements[a.ID] = a
	return a, nil
}

func (m *memStore) UpdateAgreement(_ context.Context, id uuid.UUID, params repository.AgreementUpdate) (domain.Agreement, error) {
	a, ok := m.agreements[id]
	if !ok {
		return domain.Agreement{}, repository.ErrNotFound
	}
	a.Status, a.EsignStatus, a.QualityFeedback = params.Status, params.EsignStatus, params.QualityFeedback
	a.Remarks, a.Metadata = params.Remarks, params.Metadata
	m.agreements[id] = a
	return a, nil
}

// staticScopes resolves every user to the same scope.
type staticScopes territory.Scope

func (s staticScopes) Resolve(context.Context, uuid.UUID) territory.Scope {
	return territory.Scope(s)
}

// recordingBus collects published events.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, evt events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
}

func (b *recordingBus) PublishSync(ctx context.Context, evt events.Event) error {
	b.Publish(ctx, evt)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

// photoBytes serves fixed object contents.
type photoBytes map[string][]byte

func (p photoBytes) GenerateUploadURL(_ context.Context, bucket, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://minio.local/" + bucket + "/" + folder + "/" + fileName, FileKey: folder + "/" + fileName}, nil
}

func (p photoBytes) GenerateDownloadURL(_ context.Context, _, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://minio.local/" + key, FileKey: key}, nil
}

func (p photoBytes) DownloadFile(_ context.Context, _, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(p[key])), nil
}

func (p photoBytes) EnsureBucketExists(context.Context, string) error { return nil }

type pipelineConfig struct{ radius float64 }

func (c pipelineConfig) GetGeofenceRadiusMeters() float64     { return c.radius }
func (c pipelineConfig) GetMinioBucketDeliveryPhotos() string { return "delivery-photos" }
