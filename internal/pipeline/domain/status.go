package domain

// Prospect statuses and tags.
const (
	ProspectAvailable = "available"
	ProspectAssigned  = "assigned"
	ProspectConverted = "converted"
	ProspectDropped   = "dropped"

	TagNew         = "New"
	TagInProgress  = "In Progress"
	TagQualified   = "Qualified"
	TagRescheduled = "Rescheduled"
	TagDropped     = "Dropped"
)

// Lead statuses.
const (
	LeadNew        = "new"
	LeadInProgress = "in_progress"
	LeadQualified  = "qualified"
	LeadConverted  = "converted"
	LeadDropped    = "dropped"
)

// Sample order statuses.
const (
	OrderPendingVisit    = "pending_visit"
	OrderVisited         = "visited"
	OrderSampleOrdered   = "sample_ordered"
	OrderSampleDelivered = "sample_delivered"
	OrderRevisitNeeded   = "revisit_needed"
	OrderDropped         = "dropped"
	OrderCancelled       = "cancelled"
)

// Agreement statuses.
const (
	AgreementPendingFeedback = "pending_feedback"
	AgreementRevisitNeeded   = "revisit_needed"
	AgreementSent            = "agreement_sent"
	AgreementSigned          = "signed"
	AgreementLost            = "lost"
	AgreementDropped         = "dropped"
	AgreementRejected        = "rejected"

	EsignNotSent = "not_sent"
	EsignSent    = "sent"
	EsignSigned  = "signed"
)

// TransitionTable maps a current status to the statuses it may move to.
type TransitionTable map[string]map[string]bool

// Allows reports whether from → to is permitted. Unknown current statuses
// permit nothing.
func (t TransitionTable) Allows(from, to string) bool {
	nexts, ok := t[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// Terminal reports whether status permits no further transitions. Unknown
// statuses are terminal.
func (t TransitionTable) Terminal(status string) bool {
	return len(t[status]) == 0
}

// Known reports whether status is part of the table's vocabulary.
func (t TransitionTable) Known(status string) bool {
	_, ok := t[status]
	return ok
}

var ProspectTransitions = TransitionTable{
	ProspectAvailable: {ProspectAssigned: true, ProspectConverted: true, ProspectDropped: true},
	ProspectAssigned:  {ProspectAssigned: true, ProspectConverted: true, ProspectDropped: true},
	ProspectConverted: {},
	ProspectDropped:   {},
}

// A converted lead may book further samples, so converted → converted is allowed.
var LeadTransitions = TransitionTable{
	LeadNew:        {LeadInProgress: true, LeadQualified: true, LeadConverted: true, LeadDropped: true},
	LeadInProgress: {LeadInProgress: true, LeadQualified: true, LeadConverted: true, LeadDropped: true},
	LeadQualified:  {LeadInProgress: true, LeadConverted: true, LeadDropped: true},
	LeadConverted:  {LeadConverted: true},
	LeadDropped:    {},
}

var OrderTransitions = TransitionTable{
	OrderPendingVisit:    {OrderVisited: true, OrderSampleOrdered: true, OrderRevisitNeeded: true, OrderDropped: true, OrderCancelled: true},
	OrderVisited:         {OrderSampleOrdered: true, OrderRevisitNeeded: true, OrderDropped: true, OrderCancelled: true},
	OrderSampleOrdered:   {OrderSampleDelivered: true, OrderRevisitNeeded: true, OrderDropped: true, OrderCancelled: true},
	OrderRevisitNeeded:   {OrderVisited: true, OrderSampleOrdered: true, OrderSampleDelivered: true, OrderRevisitNeeded: true, OrderDropped: true, OrderCancelled: true},
	OrderSampleDelivered: {OrderRevisitNeeded: true, OrderDropped: true},
	OrderDropped:         {},
	OrderCancelled:       {},
}

var AgreementTransitions = TransitionTable{
	AgreementPendingFeedback: {AgreementSent: true, AgreementRevisitNeeded: true, AgreementLost: true, AgreementDropped: true, AgreementRejected: true},
	AgreementRevisitNeeded:   {AgreementSent: true, AgreementRevisitNeeded: true, AgreementLost: true, AgreementDropped: true, AgreementRejected: true},
	AgreementSent:            {AgreementSigned: true, AgreementRevisitNeeded: true, AgreementLost: true, AgreementDropped: true, AgreementRejected: true},
	AgreementSigned:          {},
	AgreementLost:            {},
	AgreementDropped:         {},
	AgreementRejected:        {},
}

// IsLeadDropOff reports whether a lead counts as a funnel drop-off.
func IsLeadDropOff(status string) bool {
	return status == LeadDropped
}

// IsOrderDropOff reports whether a sample order counts as a funnel drop-off.
func IsOrderDropOff(status string) bool {
	return status == OrderDropped || status == OrderCancelled
}

// IsAgreementDropOff reports whether an agreement counts as a funnel
// drop-off. Lost agreements are reported separately and are not included.
func IsAgreementDropOff(status string) bool {
	return status == AgreementDropped || status == AgreementRejected
}
