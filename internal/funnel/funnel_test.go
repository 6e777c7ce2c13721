package funnel

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"hoareca_growth_hub/internal/pipeline/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

type builder struct {
	s Snapshot
}

func (b *builder) prospect(pincode string, at time.Time) domain.Prospect {
	p := domain.Prospect{ID: uuid.New(), RestaurantName: "Outlet", Pincode: pincode, Status: domain.ProspectAvailable, Tag: domain.TagNew, CreatedAt: at}
	b.s.Prospects = append(b.s.Prospects, p)
	return p
}

func (b *builder) lead(p domain.Prospect, at time.Time) domain.Lead {
	id := p.ID
	l := domain.Lead{ID: uuid.New(), ProspectID: &id, Pincode: p.Pincode, Status: domain.LeadNew, CreatedAt: at}
	b.s.Leads = append(b.s.Leads, l)
	return l
}

func (b *builder) order(l domain.Lead, status string, at time.Time) domain.SampleOrder {
	o := domain.SampleOrder{ID: uuid.New(), LeadID: l.ID, Status: status, CreatedAt: at}
	b.s.Orders = append(b.s.Orders, o)
	return o
}

func (b *builder) agreement(o domain.SampleOrder, status string, at time.Time) domain.Agreement {
	a := domain.Agreement{ID: uuid.New(), SampleOrderID: o.ID, Status: status, EsignStatus: domain.EsignNotSent, CreatedAt: at}
	b.s.Agreements = append(b.s.Agreements, a)
	return a
}

func januaryFilter() Filter {
	return DayFilter(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), AllPincodes, time.UTC)
}

func TestComputeEndToEndScenario(t *testing.T) {
	var b builder
	var prospects []domain.Prospect
	for i := 0; i < 10; i++ {
		prospects = append(prospects, b.prospect("560001", day0))
	}
	var leads []domain.Lead
	for i := 0; i < 4; i++ {
		leads = append(leads, b.lead(prospects[i], day0.AddDate(0, 0, 2)))
	}
	o1 := b.order(leads[0], domain.OrderSampleDelivered, day0.AddDate(0, 0, 5))
	o2 := b.order(leads[1], domain.OrderSampleDelivered, day0.AddDate(0, 0, 7))
	b.agreement(o1, domain.AgreementSigned, day0.AddDate(0, 0, 10))
	b.agreement(o2, domain.AgreementLost, day0.AddDate(0, 0, 12))

	stats := Compute(b.s, januaryFilter())

	assert.Equal(t, 10, stats.TotalProspects)
	assert.Equal(t, 4, stats.TotalLeads)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 1, stats.TotalSignedAgreements)
	assert.Equal(t, "40.0", stats.ProspectToLead.String())
	assert.Equal(t, "50.0", stats.LeadToSample.String())
	assert.Equal(t, "50.0", stats.SampleToAgreement.String())
	assert.Equal(t, "10.0", stats.EndToEnd.String())

	assert.Equal(t, "2.0", stats.AvgDaysProspectToLead.String())
	assert.Equal(t, "4.0", stats.AvgDaysLeadToOrder.String())
	assert.Equal(t, "5.0", stats.AvgDaysOrderToAgreement.String())

	assert.Equal(t, 0, stats.DropOffs.Agreements)
	assert.Equal(t, 1, stats.DropOffs.LostAgreements)
}

func TestComputeEmptyRange(t *testing.T) {
	var b builder
	p := b.prospect("560001", day0)
	l := b.lead(p, day0)
	b.order(l, domain.OrderSampleOrdered, day0)

	far := DayFilter(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), "", time.UTC)
	stats := Compute(b.s, far)

	assert.Zero(t, stats.TotalProspects)
	assert.Zero(t, stats.TotalLeads)
	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.TotalSignedAgreements)
	for _, r := range []Percent{stats.ProspectToLead, stats.LeadToSample, stats.SampleToAgreement, stats.EndToEnd} {
		assert.Equal(t, "0.0", r.String())
	}
	for _, d := range []Days{stats.AvgDaysProspectToLead, stats.AvgDaysLeadToOrder, stats.AvgDaysOrderToAgreement} {
		assert.Equal(t, NoData, d.String())
	}
}

func TestComputeClampLaw(t *testing.T) {
	// Enumerate small shapes, including several leads per prospect so the
	// numerator exceeds the denominator before clamping.
	for prospects := 1; prospects <= 3; prospects++ {
		for leadsPer := 0; leadsPer <= 3; leadsPer++ {
			for ordersPer := 0; ordersPer <= 2; ordersPer++ {
				t.Run(fmt.Sprintf("p%d_l%d_o%d", prospects, leadsPer, ordersPer), func(t *testing.T) {
					var b builder
					for i := 0; i < prospects; i++ {
						p := b.prospect("560001", day0)
						for j := 0; j < leadsPer; j++ {
							l := b.lead(p, day0)
							for k := 0; k < ordersPer; k++ {
								o := b.order(l, domain.OrderSampleDelivered, day0)
								b.agreement(o, domain.AgreementSigned, day0)
								b.agreement(o, domain.AgreementSigned, day0)
							}
						}
					}

					stats := Compute(b.s, januaryFilter())
					for _, r := range []Percent{stats.ProspectToLead, stats.LeadToSample, stats.SampleToAgreement, stats.EndToEnd} {
						assert.GreaterOrEqual(t, float64(r), 0.0)
						assert.LessOrEqual(t, float64(r), 100.0)
					}
				})
			}
		}
	}
}

func TestComputeExcludesNegativeDeltas(t *testing.T) {
	var b builder
	p1 := b.prospect("560001", day0.AddDate(0, 0, 3))
	p2 := b.prospect("560001", day0)
	b.lead(p1, day0.AddDate(0, 0, 1)) // created before its prospect
	b.lead(p2, day0.AddDate(0, 0, 6))

	stats := Compute(b.s, januaryFilter())

	assert.Equal(t, 2, stats.TotalLeads)
	assert.Equal(t, 1, stats.AvgDaysProspectToLead.Samples)
	assert.Equal(t, "6.0", stats.AvgDaysProspectToLead.String())
}

func TestComputeDoubleFilter(t *testing.T) {
	var b builder
	inRange := b.prospect("560001", day0)
	outOfRange := b.prospect("560001", time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC))
	otherPincode := b.prospect("560002", day0)

	b.lead(inRange, day0.AddDate(0, 0, 1))
	b.lead(inRange, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)) // own date outside window
	b.lead(outOfRange, day0)                                     // parent outside window
	b.lead(otherPincode, day0)
	b.s.Leads = append(b.s.Leads, domain.Lead{ID: uuid.New(), Status: domain.LeadNew, CreatedAt: day0}) // orphan

	f := januaryFilter()
	f.Pincode = "560001"
	stats := Compute(b.s, f)

	assert.Equal(t, 1, stats.TotalProspects)
	assert.Equal(t, 1, stats.TotalLeads)
	assert.Equal(t, "100.0", stats.ProspectToLead.String())
}

func TestComputeDropOffs(t *testing.T) {
	var b builder
	p := b.prospect("560001", day0)
	l1 := b.lead(p, day0)
	l2 := b.lead(p, day0)
	l2.Status = domain.LeadDropped
	b.s.Leads[1] = l2

	b.order(l1, domain.OrderDropped, day0)
	b.order(l1, domain.OrderCancelled, day0)
	o := b.order(l1, domain.OrderSampleDelivered, day0)
	b.agreement(o, domain.AgreementDropped, day0)
	b.agreement(o, domain.AgreementRejected, day0)
	b.agreement(o, domain.AgreementLost, day0)
	b.agreement(o, domain.AgreementRevisitNeeded, day0)

	stats := Compute(b.s, januaryFilter())

	assert.Equal(t, DropOffs{Leads: 1, Orders: 2, Agreements: 2, LostAgreements: 1}, stats.DropOffs)
}

func TestDayFilterIsInclusive(t *testing.T) {
	f := DayFilter(day0, day0, "", time.UTC)

	assert.True(t, f.inWindow(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, f.inWindow(time.Date(2026, 1, 5, 23, 59, 59, 0, time.UTC)))
	assert.False(t, f.inWindow(time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)))
	assert.True(t, Filter{}.inWindow(time.Time{}))
}

func TestDaysBetween(t *testing.T) {
	d, ok := DaysBetween(day0.Add(47*time.Hour), day0)
	require.True(t, ok)
	assert.Equal(t, 1, d)

	_, ok = DaysBetween(day0.Add(-time.Minute), day0)
	assert.False(t, ok)
}

func TestStatsJSON(t *testing.T) {
	raw, err := json.Marshal(Compute(Snapshot{}, Filter{}))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "0.0", decoded["endToEnd"])
	assert.Equal(t, NoData, decoded["avgDaysLeadToOrder"])
}
