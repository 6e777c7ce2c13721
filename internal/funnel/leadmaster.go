package funnel

import (
	"sort"
	"time"

	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/remarks"

	"github.com/google/uuid"
)

// LeadMasterRow is one prospect with its furthest descendant chain.
type LeadMasterRow struct {
	ProspectID     uuid.UUID    `json:"prospectId"`
	RestaurantName string       `json:"restaurantName"`
	Pincode        string       `json:"pincode"`
	Locality       string       `json:"locality"`
	MappedTo       string       `json:"mappedTo,omitempty"`
	ProspectStatus string       `json:"prospectStatus"`
	ProspectTag    string       `json:"prospectTag"`
	Stage          domain.Stage `json:"stage"`

	LeadID          *uuid.UUID `json:"leadId,omitempty"`
	LeadStatus      string     `json:"leadStatus,omitempty"`
	CallCount       int        `json:"callCount"`
	VisitCount      int        `json:"visitCount"`
	OrderID         *uuid.UUID `json:"orderId,omitempty"`
	OrderStatus     string     `json:"orderStatus,omitempty"`
	SKU             string     `json:"sku,omitempty"`
	AgreementID     *uuid.UUID `json:"agreementId,omitempty"`
	AgreementStatus string     `json:"agreementStatus,omitempty"`
	EsignStatus     string     `json:"esignStatus,omitempty"`

	ProspectCreatedAt  time.Time  `json:"prospectCreatedAt"`
	LeadCreatedAt      *time.Time `json:"leadCreatedAt,omitempty"`
	OrderCreatedAt     *time.Time `json:"orderCreatedAt,omitempty"`
	AgreementCreatedAt *time.Time `json:"agreementCreatedAt,omitempty"`

	DaysToLead      *int `json:"daysToLead,omitempty"`
	DaysToOrder     *int `json:"daysToOrder,omitempty"`
	DaysToAgreement *int `json:"daysToAgreement,omitempty"`

	NextRevisit string `json:"nextRevisit,omitempty"`
	FollowUp    string `json:"followUp,omitempty"`
	DropReason  string `json:"dropReason,omitempty"`
}

type candidate struct {
	lead      *domain.Lead
	order     *domain.SampleOrder
	agreement *domain.Agreement
	stage     domain.Stage
	latest    time.Time
}

// LeadMaster returns one row per prospect in the filter's window and pincode,
// newest first. Descendants are joined without a date restriction because the
// row shows the prospect's current position. When a prospect has several
// chains the one reaching the highest stage wins, ties going to the most
// recently created record.
func LeadMaster(s Snapshot, f Filter) []LeadMasterRow {
	leadsByProspect := make(map[uuid.UUID][]*domain.Lead)
	for i := range s.Leads {
		l := &s.Leads[i]
		if l.ProspectID != nil {
			leadsByProspect[*l.ProspectID] = append(leadsByProspect[*l.ProspectID], l)
		}
	}
	ordersByLead := make(map[uuid.UUID][]*domain.SampleOrder)
	for i := range s.Orders {
		o := &s.Orders[i]
		ordersByLead[o.LeadID] = append(ordersByLead[o.LeadID], o)
	}
	agreementsByOrder := make(map[uuid.UUID][]*domain.Agreement)
	for i := range s.Agreements {
		a := &s.Agreements[i]
		agreementsByOrder[a.SampleOrderID] = append(agreementsByOrder[a.SampleOrderID], a)
	}

	rows := make([]LeadMasterRow, 0)
	for _, p := range s.Prospects {
		if !f.inWindow(p.CreatedAt) || !f.matchesPincode(p.Pincode) {
			continue
		}

		best := candidate{stage: domain.Classify(p, nil, nil, nil), latest: p.CreatedAt}
		consider := func(c candidate) {
			c.stage = domain.Classify(p, c.lead, c.order, c.agreement)
			if c.stage > best.stage || (c.stage == best.stage && c.latest.After(best.latest)) {
				best = c
			}
		}
		for _, l := range leadsByProspect[p.ID] {
			consider(candidate{lead: l, latest: l.CreatedAt})
			for _, o := range ordersByLead[l.ID] {
				consider(candidate{lead: l, order: o, latest: o.CreatedAt})
				for _, a := range agreementsByOrder[o.ID] {
					consider(candidate{lead: l, order: o, agreement: a, latest: a.CreatedAt})
				}
			}
		}

		rows = append(rows, buildRow(p, best))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ProspectCreatedAt.After(rows[j].ProspectCreatedAt)
	})
	return rows
}

func buildRow(p domain.Prospect, c candidate) LeadMasterRow {
	row := LeadMasterRow{
		ProspectID:        p.ID,
		RestaurantName:    p.RestaurantName,
		Pincode:           p.Pincode,
		Locality:          p.Locality,
		MappedTo:          p.MappedTo,
		ProspectStatus:    p.Status,
		ProspectTag:       p.Tag,
		Stage:             c.stage,
		ProspectCreatedAt: p.CreatedAt,
	}

	notes := remarks.Resolve(p.Remarks, p.Metadata)

	if l := c.lead; l != nil {
		row.LeadID = &l.ID
		row.LeadStatus = l.Status
		row.CallCount = l.CallCount
		row.VisitCount = l.VisitCount
		row.LeadCreatedAt = &l.CreatedAt
		row.DaysToLead = daysPtr(l.CreatedAt, p.CreatedAt)
		notes = remarks.Resolve(l.Remarks, l.Metadata)
	}
	if o := c.order; o != nil {
		row.OrderID = &o.ID
		row.OrderStatus = o.Status
		row.SKU = o.SKU
		row.OrderCreatedAt = &o.CreatedAt
		if c.lead != nil {
			row.DaysToOrder = daysPtr(o.CreatedAt, c.lead.CreatedAt)
		}
		notes = remarks.Resolve(o.Remarks, o.Metadata)
	}
	if a := c.agreement; a != nil {
		row.AgreementID = &a.ID
		row.AgreementStatus = a.Status
		row.EsignStatus = a.EsignStatus
		row.AgreementCreatedAt = &a.CreatedAt
		if c.order != nil {
			row.DaysToAgreement = daysPtr(a.CreatedAt, c.order.CreatedAt)
		}
		notes = remarks.Resolve(a.Remarks, a.Metadata)
	}

	if notes.RevisitDate != "" {
		row.NextRevisit = joinDateTime(notes.RevisitDate, notes.RevisitTime)
	}
	if notes.FollowUpDate != "" {
		row.FollowUp = joinDateTime(notes.FollowUpDate, notes.FollowUpTime)
	}
	row.DropReason = notes.DropReason

	return row
}

func daysPtr(child, parent time.Time) *int {
	days, ok := DaysBetween(child, parent)
	if !ok {
		return nil
	}
	return &days
}

func joinDateTime(date, clock string) string {
	if clock == "" {
		return date
	}
	return date + " at " + clock
}
