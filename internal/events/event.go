// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"hoareca_growth_hub/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// ProspectConverted is published when a prospect becomes a lead.
type ProspectConverted struct {
	BaseEvent
	ProspectID uuid.UUID `json:"prospectId"`
	LeadID     uuid.UUID `json:"leadId"`
	Pincode    string    `json:"pincode"`
	ActorID    uuid.UUID `json:"actorId"`
}

func (e ProspectConverted) EventName() string { return "pipeline.prospect.converted" }

// RevisitScheduled is published when a logged visit asks for a follow-up
// visit at a specific time.
type RevisitScheduled struct {
	BaseEvent
	Entity     string    `json:"entity"` // lead, sample_order, agreement
	EntityID   uuid.UUID `json:"entityId"`
	LeadID     uuid.UUID `json:"leadId"`
	ClientName string    `json:"clientName"`
	Pincode    string    `json:"pincode"`
	Assignee   string    `json:"assignee"` // email
	RevisitAt  time.Time `json:"revisitAt"`
}

func (e RevisitScheduled) EventName() string { return "pipeline.revisit.scheduled" }

// AgreementSigned is published when an agreement reaches signed.
type AgreementSigned struct {
	BaseEvent
	AgreementID   uuid.UUID `json:"agreementId"`
	SampleOrderID uuid.UUID `json:"sampleOrderId"`
	LeadID        uuid.UUID `json:"leadId"`
	Pincode       string    `json:"pincode"`
	ActorID       uuid.UUID `json:"actorId"`
}

func (e AgreementSigned) EventName() string { return "pipeline.agreement.signed" }
