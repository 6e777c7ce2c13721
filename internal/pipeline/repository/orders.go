package repository

import (
	"context"
	"fmt"

	"hoareca_growth_hub/internal/pipeline/domain"

	"github.com/google/uuid"
)

const orderColumns = `o.id, o.lead_id, o.sku, o.status, o.remarks, o.metadata, o.delivery_date,
	COALESCE(o.delivery_photo_key, ''), o.created_at, o.updated_at`

func scanOrder(row scanner) (domain.SampleOrder, error) {
	var o domain.SampleOrder
	err := row.Scan(
		&o.ID,
		&o.LeadID,
		&o.SKU,
		&o.Status,
		&o.Remarks,
		&o.Metadata,
		&o.DeliveryDate,
		&o.DeliveryPhotoKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

// ListOrders filters territory through the owning lead's pincode.
func (r *Repository) ListOrders(ctx context.Context, params ListParams) ([]domain.SampleOrder, error) {
	if params.matchesNothing() {
		return []domain.SampleOrder{}, nil
	}

	var w whereBuilder
	w.common(params, "o", "l.pincode")
	if params.LeadID != nil {
		w.add("o.lead_id = $%d", *params.LeadID)
	}
	where := w.sql()
	page := w.page(params)

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM sample_orders o
		JOIN leads l ON l.id = o.lead_id
		WHERE %s
		ORDER BY o.created_at DESC%s
	`, orderColumns, where, page), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SampleOrder, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (domain.SampleOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM sample_orders o WHERE o.id = $1`, id))
	return o, notFound(err)
}

func (r *Repository) CreateOrder(ctx context.Context, params CreateOrderParams) (domain.SampleOrder, error) {
	return scanOrder(r.db.QueryRow(ctx, `
		INSERT INTO sample_orders AS o (lead_id, sku, status, remarks, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns,
		params.LeadID, params.SKU, params.Status, params.Remarks, params.Metadata,
	))
}

func (r *Repository) UpdateOrder(ctx context.Context, id uuid.UUID, params OrderUpdate) (domain.SampleOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `
		UPDATE sample_orders AS o
		SET status = $2,
			remarks = $3,
			metadata = $4,
			delivery_date = COALESCE($5, o.delivery_date),
			delivery_photo_key = COALESCE($6, o.delivery_photo_key),
			updated_at = now()
		WHERE o.id = $1
		RETURNING `+orderColumns,
		id,
		params.Status,
		params.Remarks,
		params.Metadata,
		params.DeliveryDate,
		params.DeliveryPhotoKey,
	))
	return o, notFound(err)
}
