package lookups

import (
	"context"

	"hoareca_growth_hub/internal/territory"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads lookup tables from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) DropReasons(ctx context.Context, stage string) ([]DropReason, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stage, reason
		FROM drop_reasons
		WHERE is_active AND ($1 = '' OR lower(stage) = $1)
		ORDER BY stage, reason
	`, stage)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.CollectableRow) (DropReason, error) {
		var d DropReason
		err := row.Scan(&d.ID, &d.Stage, &d.Reason)
		return d, err
	})
}

func (r *Repository) SKUs(ctx context.Context) ([]SKU, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sku, product_name
		FROM sku_mapping
		WHERE is_active
		ORDER BY product_name
	`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.CollectableRow) (SKU, error) {
		var s SKU
		err := row.Scan(&s.ID, &s.SKU, &s.ProductName)
		return s, err
	})
}

func (r *Repository) Stages(ctx context.Context) ([]StageName, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT stage, display_name, sort_order
		FROM stage_mapping
		ORDER BY sort_order, stage
	`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.CollectableRow) (StageName, error) {
		var s StageName
		err := row.Scan(&s.Stage, &s.DisplayName, &s.SortOrder)
		return s, err
	})
}

func (r *Repository) AllMappings(ctx context.Context) ([]territory.Mapping, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, pincode, email, role, created_at
		FROM pincode_persona_map
		ORDER BY pincode, email
	`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.CollectableRow) (territory.Mapping, error) {
		var m territory.Mapping
		err := row.Scan(&m.ID, &m.Pincode, &m.Email, &m.Role, &m.CreatedAt)
		return m, err
	})
}

// collect never returns a nil slice so empty tables encode as [].
func collect[T any](rows pgx.Rows, fn pgx.RowToFunc[T]) ([]T, error) {
	items, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

var _ Store = (*Repository)(nil)
