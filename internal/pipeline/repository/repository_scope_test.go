package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errQueryCaptured = errors.New("query captured")

// recordingDB captures the last query and fails it so no rows are scanned.
type recordingDB struct {
	sql  string
	args []any
}

func (d *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.sql, d.args = sql, args
	return pgconn.CommandTag{}, errQueryCaptured
}

func (d *recordingDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.sql, d.args = sql, args
	return nil, errQueryCaptured
}

func (d *recordingDB) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("unexpected QueryRow")
}

func normalizeSQL(sql string) string {
	return strings.ToLower(strings.Join(strings.Fields(sql), " "))
}

func TestListsWithEmptyTerritoryNeverQuery(t *testing.T) {
	repo := &Repository{}
	ctx := context.Background()
	params := ListParams{Pincodes: []string{}}

	prospects, err := repo.ListProspects(ctx, params)
	require.NoError(t, err)
	assert.NotNil(t, prospects)
	assert.Empty(t, prospects)

	leads, err := repo.ListLeads(ctx, params)
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)

	orders, err := repo.ListOrders(ctx, params)
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	agreements, err := repo.ListAgreements(ctx, params)
	require.NoError(t, err)
	assert.NotNil(t, agreements)
	assert.Empty(t, agreements)
}

func TestNilTerritoryAddsNoPincodeFilter(t *testing.T) {
	var w whereBuilder
	w.common(ListParams{}, "l", "l.pincode")

	assert.Equal(t, "TRUE", w.sql())
	assert.Empty(t, w.args)
	assert.Empty(t, w.page(ListParams{}))
}

func TestWhereBuilderNumbersCombinedFilters(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	leadID := uuid.New()
	params := ListParams{
		Pincodes: []string{"400001", "560001"},
		From:     &from,
		To:       &to,
		Status:   "new",
		LeadID:   &leadID,
		Limit:    50,
		Offset:   100,
	}

	var w whereBuilder
	w.common(params, "o", "l.pincode")
	w.add("o.lead_id = $%d", *params.LeadID)
	where := w.sql()
	page := w.page(params)

	assert.Equal(t,
		"l.pincode = ANY($1) AND o.created_at >= $2 AND o.created_at <= $3 AND o.status = $4 AND o.lead_id = $5",
		where)
	assert.Equal(t, " LIMIT $6 OFFSET $7", page)
	assert.Equal(t, []interface{}{params.Pincodes, from, to, "new", leadID, 50, 100}, w.args)
}

func TestListQueriesAreTerritoryScoped(t *testing.T) {
	ctx := context.Background()
	params := ListParams{Pincodes: []string{"400001"}, Limit: 10}

	tests := []struct {
		name      string
		list      func(r *Repository) error
		fragments []string
	}{
		{
			name:      "prospects",
			list:      func(r *Repository) error { _, err := r.ListProspects(ctx, params); return err },
			fragments: []string{"from prospects p", "where p.pincode = any($1)", "limit $2 offset $3"},
		},
		{
			name:      "leads",
			list:      func(r *Repository) error { _, err := r.ListLeads(ctx, params); return err },
			fragments: []string{"from leads l", "where l.pincode = any($1)", "limit $2 offset $3"},
		},
		{
			name:      "orders",
			list:      func(r *Repository) error { _, err := r.ListOrders(ctx, params); return err },
			fragments: []string{
				"from sample_orders o",
				"join leads l on l.id = o.lead_id",
				"where l.pincode = any($1)",
			},
		},
		{
			name:      "agreements",
			list:      func(r *Repository) error { _, err := r.ListAgreements(ctx, params); return err },
			fragments: []string{
				"from agreements a",
				"join sample_orders o on o.id = a.sample_order_id",
				"join leads l on l.id = o.lead_id",
				"where l.pincode = any($1)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &recordingDB{}
			err := tt.list(&Repository{db: db})
			require.ErrorIs(t, err, errQueryCaptured)

			query := normalizeSQL(db.sql)
			for _, fragment := range tt.fragments {
				assert.Contains(t, query, fragment)
			}
			require.NotEmpty(t, db.args)
			assert.Equal(t, params.Pincodes, db.args[0])
		})
	}
}
