package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/territory"
	"hoareca_growth_hub/platform/httpkit"
	"hoareca_growth_hub/platform/logger"
	"hoareca_growth_hub/platform/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	prospects  []domain.Prospect
	leads      []domain.Lead
	orders     []domain.SampleOrder
	agreements []domain.Agreement
	leadErr    error

	// blockFirst parks the first prospect fetch until its context ends.
	blockFirst bool
	started    chan struct{}
	calls      atomic.Int32

	mu             sync.Mutex
	prospectParams repository.ListParams
}

func (f *fakeSource) ListProspects(ctx context.Context, params repository.ListParams) ([]domain.Prospect, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.prospectParams = params
	f.mu.Unlock()
	if f.blockFirst && n == 1 {
		f.started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.prospects, nil
}

func (f *fakeSource) ListLeads(context.Context, repository.ListParams) ([]domain.Lead, error) {
	if f.leadErr != nil {
		return nil, f.leadErr
	}
	return f.leads, nil
}

func (f *fakeSource) ListOrders(context.Context, repository.ListParams) ([]domain.SampleOrder, error) {
	return f.orders, nil
}

func (f *fakeSource) ListAgreements(context.Context, repository.ListParams) ([]domain.Agreement, error) {
	return f.agreements, nil
}

type scopeOf territory.Scope

func (s scopeOf) Resolve(context.Context, uuid.UUID) territory.Scope { return territory.Scope(s) }

// scenario builds 10 prospects, 4 leads, 2 delivered orders, one signed and
// one lost agreement.
func scenario() *fakeSource {
	f := &fakeSource{}
	for i := 0; i < 10; i++ {
		f.prospects = append(f.prospects, domain.Prospect{ID: uuid.New(), RestaurantName: "Outlet", Pincode: "560001", Status: domain.ProspectAvailable, CreatedAt: day0})
	}
	for i := 0; i < 4; i++ {
		pid := f.prospects[i].ID
		f.leads = append(f.leads, domain.Lead{ID: uuid.New(), ProspectID: &pid, Pincode: "560001", Status: domain.LeadNew, CreatedAt: day0.AddDate(0, 0, 2)})
	}
	for i, days := range []int{5, 7} {
		f.orders = append(f.orders, domain.SampleOrder{ID: uuid.New(), LeadID: f.leads[i].ID, Status: domain.OrderSampleDelivered, CreatedAt: day0.AddDate(0, 0, days)})
	}
	f.agreements = []domain.Agreement{
		{ID: uuid.New(), SampleOrderID: f.orders[0].ID, Status: domain.AgreementSigned, CreatedAt: day0.AddDate(0, 0, 10)},
		{ID: uuid.New(), SampleOrderID: f.orders[1].ID, Status: domain.AgreementLost, CreatedAt: day0.AddDate(0, 0, 12)},
	}
	return f
}

func january(user uuid.UUID) Query {
	return Query{
		UserID:  user,
		From:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Pincode: "all",
	}
}

func TestFunnelEndToEnd(t *testing.T) {
	m := metrics.New()
	svc := New(scenario(), scopeOf(territory.Restricted("560001")), time.UTC, logger.Discard(), m)

	res, err := svc.Funnel(context.Background(), january(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Stats.TotalProspects)
	assert.Equal(t, "40.0", res.Stats.ProspectToLead.String())
	assert.Equal(t, "50.0", res.Stats.LeadToSample.String())
	assert.Equal(t, "50.0", res.Stats.SampleToAgreement.String())
	assert.Equal(t, "10.0", res.Stats.EndToEnd.String())
	assert.Equal(t, Window{From: "2026-01-01", To: "2026-01-31", Pincode: "all"}, res.Filter)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FunnelComputes.WithLabelValues("ok")))
}

func TestFunnelPushesWindowAndTerritoryToProspectFetch(t *testing.T) {
	src := scenario()
	svc := New(src, scopeOf(territory.Restricted("560001", "400001")), time.UTC, logger.Discard(), nil)

	q := january(uuid.New())
	q.Pincode = "560001"
	_, err := svc.Funnel(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, []string{"560001"}, src.prospectParams.Pincodes)
	require.NotNil(t, src.prospectParams.From)
	require.NotNil(t, src.prospectParams.To)
	assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), *src.prospectParams.To)
}

func TestFunnelFailClosedScopeSeesNothing(t *testing.T) {
	src := scenario()
	svc := New(src, scopeOf(territory.Denied()), time.UTC, logger.Discard(), nil)

	res, err := svc.Funnel(context.Background(), january(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.TotalProspects)
	assert.Equal(t, "0.0", res.Stats.EndToEnd.String())
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestFunnelPincodeOutsideScopeSeesNothing(t *testing.T) {
	src := scenario()
	svc := New(src, scopeOf(territory.Restricted("400001")), time.UTC, logger.Discard(), nil)

	q := january(uuid.New())
	q.Pincode = "560001"
	res, err := svc.Funnel(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.TotalProspects)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestFetchFailureDegradesToEmpty(t *testing.T) {
	src := scenario()
	src.leadErr = errors.New("connection reset")
	m := metrics.New()
	svc := New(src, scopeOf(territory.Unrestricted()), time.UTC, logger.Discard(), m)

	res, err := svc.Funnel(context.Background(), january(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Stats.TotalProspects)
	assert.Equal(t, 0, res.Stats.TotalLeads)
	assert.Equal(t, "0.0", res.Stats.ProspectToLead.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchDegraded.WithLabelValues("leads")))
}

func TestSupersededRequestIsDiscarded(t *testing.T) {
	src := scenario()
	src.blockFirst = true
	src.started = make(chan struct{}, 1)
	m := metrics.New()
	svc := New(src, scopeOf(territory.Unrestricted()), time.UTC, logger.Discard(), m)
	user := uuid.New()

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Funnel(context.Background(), january(user))
		firstErr <- err
	}()
	<-src.started

	res, err := svc.Funnel(context.Background(), january(user))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Stats.TotalProspects)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request did not finish")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FunnelComputes.WithLabelValues("superseded")))
}

func TestLeadMaster(t *testing.T) {
	svc := New(scenario(), scopeOf(territory.Unrestricted()), time.UTC, logger.Discard(), nil)

	rows, err := svc.LeadMaster(context.Background(), january(uuid.New()))
	require.NoError(t, err)
	require.Len(t, rows, 10)

	stages := map[domain.Stage]int{}
	for _, r := range rows {
		stages[r.Stage]++
	}
	assert.Equal(t, 1, stages[domain.StageCustomer])
	assert.Equal(t, 1, stages[domain.StageSampleOrder])
	assert.Equal(t, 2, stages[domain.StageLead])
	assert.Equal(t, 6, stages[domain.StageProspect])
}

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	g := engine.Group("/api/v1")
	g.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Next()
	})
	h := NewHandler(svc)
	g.GET("/analytics/funnel", h.Funnel)
	g.GET("/analytics/lead-master", h.LeadMaster)
	return engine
}

func TestHandlers(t *testing.T) {
	svc := New(scenario(), scopeOf(territory.Unrestricted()), time.UTC, logger.Discard(), nil)
	engine := newRouter(svc)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"funnel", "/api/v1/analytics/funnel?from=2026-01-01&to=2026-01-31&pincode=ALL", http.StatusOK},
		{"open window", "/api/v1/analytics/funnel", http.StatusOK},
		{"lead master", "/api/v1/analytics/lead-master?from=2026-01-01&to=2026-01-31", http.StatusOK},
		{"bad pincode", "/api/v1/analytics/funnel?pincode=56", http.StatusBadRequest},
		{"bad date", "/api/v1/analytics/funnel?from=2026/01/01", http.StatusBadRequest},
		{"inverted range", "/api/v1/analytics/lead-master?from=2026-02-01&to=2026-01-01", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestFunnelHandlerBody(t *testing.T) {
	svc := New(scenario(), scopeOf(territory.Unrestricted()), time.UTC, logger.Discard(), nil)
	engine := newRouter(svc)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/funnel?from=2026-01-01&to=2026-01-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Filter Window `json:"filter"`
		Stats  struct {
			EndToEnd              string `json:"endToEnd"`
			AvgDaysProspectToLead string `json:"avgDaysProspectToLead"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "all", body.Filter.Pincode)
	assert.Equal(t, "10.0", body.Stats.EndToEnd)
	assert.Equal(t, "2.0", body.Stats.AvgDaysProspectToLead)
}
