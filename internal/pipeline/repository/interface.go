package repository

import (
	"context"

	"hoareca_growth_hub/internal/pipeline/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces
// =====================================

// ProspectStore reads and writes prospects.
type ProspectStore interface {
	ListProspects(ctx context.Context, params ListParams) ([]domain.Prospect, error)
	GetProspect(ctx context.Context, id uuid.UUID) (domain.Prospect, error)
	CreateProspect(ctx context.Context, params CreateProspectParams) (domain.Prospect, error)
	UpdateProspect(ctx context.Context, id uuid.UUID, params ProspectUpdate) (domain.Prospect, error)
}

// LeadStore reads and writes leads. Counter changes go through
// IncrementLeadCounters only.
type LeadStore interface {
	ListLeads(ctx context.Context, params ListParams) ([]domain.Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error)
	UpdateLead(ctx context.Context, id uuid.UUID, params LeadUpdate) (domain.Lead, error)
	IncrementLeadCounters(ctx context.Context, id uuid.UUID, calls, visits int) (domain.Lead, error)
}

// OrderStore reads and writes sample orders.
type OrderStore interface {
	ListOrders(ctx context.Context, params ListParams) ([]domain.SampleOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (domain.SampleOrder, error)
	CreateOrder(ctx context.Context, params CreateOrderParams) (domain.SampleOrder, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, params OrderUpdate) (domain.SampleOrder, error)
}

// AgreementStore reads and writes agreements.
type AgreementStore interface {
	ListAgreements(ctx context.Context, params ListParams) ([]domain.Agreement, error)
	GetAgreement(ctx context.Context, id uuid.UUID) (domain.Agreement, error)
	CreateAgreement(ctx context.Context, params CreateAgreementParams) (domain.Agreement, error)
	UpdateAgreement(ctx context.Context, id uuid.UUID, params AgreementUpdate) (domain.Agreement, error)
}

// Store is the full pipeline repository.
type Store interface {
	ProspectStore
	LeadStore
	OrderStore
	AgreementStore
	// InTx runs fn against a transaction-bound store. The transaction commits
	// when fn returns nil.
	InTx(ctx context.Context, fn func(Store) error) error
}

var _ Store = (*Repository)(nil)
