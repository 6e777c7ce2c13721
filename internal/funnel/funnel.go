// Package funnel reduces a snapshot of pipeline records into conversion
// statistics and the per-prospect Lead Master table. Everything here is pure
// and synchronous; callers fetch the snapshot.
package funnel

import (
	"fmt"
	"math"
	"strings"
	"time"

	"hoareca_growth_hub/internal/pipeline/domain"

	"github.com/google/uuid"
)

// AllPincodes disables the pincode filter.
const AllPincodes = "all"

// NoData is rendered for an average with no samples.
const NoData = "—"

// Snapshot is the materialised input of one computation.
type Snapshot struct {
	Prospects  []domain.Prospect
	Leads      []domain.Lead
	Orders     []domain.SampleOrder
	Agreements []domain.Agreement
}

// Filter bounds a computation. From and To are inclusive instants; a zero
// value leaves that side open. An empty Pincode or AllPincodes disables the
// pincode filter.
type Filter struct {
	From    time.Time
	To      time.Time
	Pincode string
}

// DayFilter builds a Filter covering whole calendar days in loc.
func DayFilter(from, to time.Time, pincode string, loc *time.Location) Filter {
	if loc == nil {
		loc = time.UTC
	}
	f := Filter{Pincode: pincode}
	if !from.IsZero() {
		y, m, d := from.In(loc).Date()
		f.From = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	if !to.IsZero() {
		y, m, d := to.In(loc).Date()
		f.To = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return f
}

func (f Filter) inWindow(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.After(f.To) {
		return false
	}
	return true
}

func (f Filter) matchesPincode(pincode string) bool {
	p := strings.TrimSpace(f.Pincode)
	if p == "" || strings.EqualFold(p, AllPincodes) {
		return true
	}
	return strings.TrimSpace(pincode) == p
}

// Percent is a conversion rate in [0, 100]. It renders with one decimal.
type Percent float64

func (p Percent) String() string {
	return fmt.Sprintf("%.1f", float64(p))
}

// MarshalJSON renders the percentage as a one-decimal string.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Days is an average elapsed-day figure that may have no samples.
type Days struct {
	Value   float64
	Samples int
}

// Valid reports whether at least one sample contributed.
func (d Days) Valid() bool {
	return d.Samples > 0
}

func (d Days) String() string {
	if !d.Valid() {
		return NoData
	}
	return fmt.Sprintf("%.1f", d.Value)
}

// MarshalJSON renders the average, or the no-data sentinel.
func (d Days) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// DropOffs counts records that left the funnel at each stage. Lost
// agreements are not drop-offs and are reported separately.
type DropOffs struct {
	Leads          int `json:"leads"`
	Orders         int `json:"orders"`
	Agreements     int `json:"agreements"`
	LostAgreements int `json:"lostAgreements"`
}

// Stats is the funnel summary for one filter.
type Stats struct {
	TotalProspects        int `json:"totalProspects"`
	TotalLeads            int `json:"totalLeads"`
	TotalOrders           int `json:"totalOrders"`
	TotalSignedAgreements int `json:"totalSignedAgreements"`

	ProspectToLead    Percent `json:"prospectToLead"`
	LeadToSample      Percent `json:"leadToSample"`
	SampleToAgreement Percent `json:"sampleToAgreement"`
	EndToEnd          Percent `json:"endToEnd"`

	AvgDaysProspectToLead   Days `json:"avgDaysProspectToLead"`
	AvgDaysLeadToOrder      Days `json:"avgDaysLeadToOrder"`
	AvgDaysOrderToAgreement Days `json:"avgDaysOrderToAgreement"`

	DropOffs DropOffs `json:"dropOffs"`
}

// filtered is the ancestry and date restricted view of a snapshot.
type filtered struct {
	prospects  map[uuid.UUID]domain.Prospect
	leads      map[uuid.UUID]domain.Lead
	orders     map[uuid.UUID]domain.SampleOrder
	agreements []domain.Agreement
}

// apply keeps prospects in the window and pincode, then each child whose
// parent survived and whose own created_at is in the window. Orphan leads
// have no surviving parent and are dropped.
func apply(s Snapshot, f Filter) filtered {
	out := filtered{
		prospects: make(map[uuid.UUID]domain.Prospect),
		leads:     make(map[uuid.UUID]domain.Lead),
		orders:    make(map[uuid.UUID]domain.SampleOrder),
	}

	for _, p := range s.Prospects {
		if f.inWindow(p.CreatedAt) && f.matchesPincode(p.Pincode) {
			out.prospects[p.ID] = p
		}
	}
	for _, l := range s.Leads {
		if l.ProspectID == nil {
			continue
		}
		if _, ok := out.prospects[*l.ProspectID]; ok && f.inWindow(l.CreatedAt) {
			out.leads[l.ID] = l
		}
	}
	for _, o := range s.Orders {
		if _, ok := out.leads[o.LeadID]; ok && f.inWindow(o.CreatedAt) {
			out.orders[o.ID] = o
		}
	}
	for _, a := range s.Agreements {
		if _, ok := out.orders[a.SampleOrderID]; ok && f.inWindow(a.CreatedAt) {
			out.agreements = append(out.agreements, a)
		}
	}
	return out
}

// Compute builds the funnel summary. It never fails; empty input yields
// zero counts, 0.0 rates and no-data averages.
func Compute(s Snapshot, f Filter) Stats {
	view := apply(s, f)

	var stats Stats
	stats.TotalProspects = len(view.prospects)
	stats.TotalLeads = len(view.leads)
	stats.TotalOrders = len(view.orders)

	var toLead, toOrder, toAgreement averager

	for _, l := range view.leads {
		if domain.IsLeadDropOff(l.Status) {
			stats.DropOffs.Leads++
		}
		if p, ok := view.prospects[*l.ProspectID]; ok {
			toLead.add(l.CreatedAt, p.CreatedAt)
		}
	}
	for _, o := range view.orders {
		if domain.IsOrderDropOff(o.Status) {
			stats.DropOffs.Orders++
		}
		if l, ok := view.leads[o.LeadID]; ok {
			toOrder.add(o.CreatedAt, l.CreatedAt)
		}
	}
	for _, a := range view.agreements {
		if a.Status == domain.AgreementSigned {
			stats.TotalSignedAgreements++
		}
		if domain.IsAgreementDropOff(a.Status) {
			stats.DropOffs.Agreements++
		}
		if a.Status == domain.AgreementLost {
			stats.DropOffs.LostAgreements++
		}
		if o, ok := view.orders[a.SampleOrderID]; ok {
			toAgreement.add(a.CreatedAt, o.CreatedAt)
		}
	}

	stats.ProspectToLead = rate(stats.TotalLeads, stats.TotalProspects)
	stats.LeadToSample = rate(stats.TotalOrders, stats.TotalLeads)
	stats.SampleToAgreement = rate(stats.TotalSignedAgreements, stats.TotalOrders)
	stats.EndToEnd = rate(stats.TotalSignedAgreements, stats.TotalProspects)

	stats.AvgDaysProspectToLead = toLead.result()
	stats.AvgDaysLeadToOrder = toOrder.result()
	stats.AvgDaysOrderToAgreement = toAgreement.result()

	return stats
}

// rate clamps the numerator to the denominator because date filtering does
// not guarantee the numerator set is a subset of the denominator set.
func rate(num, den int) Percent {
	if den <= 0 {
		return 0
	}
	if num > den {
		num = den
	}
	if num < 0 {
		num = 0
	}
	return Percent(float64(num) / float64(den) * 100)
}

// DaysBetween returns the whole days from parent to child, or false when the
// child predates the parent.
func DaysBetween(child, parent time.Time) (int, bool) {
	delta := child.Sub(parent)
	if delta < 0 {
		return 0, false
	}
	return int(math.Floor(delta.Hours() / 24)), true
}

type averager struct {
	sum   int
	count int
}

func (a *averager) add(child, parent time.Time) {
	days, ok := DaysBetween(child, parent)
	if !ok {
		return
	}
	a.sum += days
	a.count++
}

func (a averager) result() Days {
	if a.count == 0 {
		return Days{}
	}
	return Days{Value: float64(a.sum) / float64(a.count), Samples: a.count}
}
