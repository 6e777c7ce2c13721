package repository

import (
	"context"
	"fmt"

	"hoareca_growth_hub/internal/pipeline/domain"

	"github.com/google/uuid"
)

const prospectColumns = `p.id, p.restaurant_name, p.pincode, p.locality, COALESCE(p.contact_number, ''),
	p.latitude, p.longitude, p.status, p.tag, COALESCE(p.mapped_to, ''), p.remarks, p.metadata,
	p.created_at, p.updated_at`

func scanProspect(row scanner) (domain.Prospect, error) {
	var p domain.Prospect
	err := row.Scan(
		&p.ID,
		&p.RestaurantName,
		&p.Pincode,
		&p.Locality,
		&p.ContactNumber,
		&p.Latitude,
		&p.Longitude,
		&p.Status,
		&p.Tag,
		&p.MappedTo,
		&p.Remarks,
		&p.Metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *Repository) ListProspects(ctx context.Context, params ListParams) ([]domain.Prospect, error) {
	if params.matchesNothing() {
		return []domain.Prospect{}, nil
	}

	var w whereBuilder
	w.common(params, "p", "p.pincode")
	if params.MappedTo != "" {
		w.add("lower(p.mapped_to) = lower($%d)", params.MappedTo)
	}
	where := w.sql()
	page := w.page(params)

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM prospects p
		WHERE %s
		ORDER BY p.created_at DESC%s
	`, prospectColumns, where, page), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Prospect, 0)
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *Repository) GetProspect(ctx context.Context, id uuid.UUID) (domain.Prospect, error) {
	p, err := scanProspect(r.db.QueryRow(ctx, `SELECT `+prospectColumns+` FROM prospects p WHERE p.id = $1`, id))
	return p, notFound(err)
}

func (r *Repository) CreateProspect(ctx context.Context, params CreateProspectParams) (domain.Prospect, error) {
	p, err := scanProspect(r.db.QueryRow(ctx, `
		INSERT INTO prospects AS p (restaurant_name, pincode, locality, contact_number, latitude, longitude,
			status, tag, mapped_to, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), $10, COALESCE($11, now()), now())
		RETURNING `+prospectColumns,
		params.RestaurantName,
		params.Pincode,
		params.Locality,
		params.ContactNumber,
		params.Latitude,
		params.Longitude,
		params.Status,
		params.Tag,
		params.MappedTo,
		params.Remarks,
		params.CreatedAt,
	))
	return p, err
}

func (r *Repository) UpdateProspect(ctx context.Context, id uuid.UUID, params ProspectUpdate) (domain.Prospect, error) {
	p, err := scanProspect(r.db.QueryRow(ctx, `
		UPDATE prospects AS p
		SET status = $2,
			tag = $3,
			mapped_to = COALESCE($4, p.mapped_to),
			remarks = $5,
			metadata = $6,
			updated_at = now()
		WHERE p.id = $1
		RETURNING `+prospectColumns,
		id,
		params.Status,
		params.Tag,
		params.MappedTo,
		params.Remarks,
		params.Metadata,
	))
	return p, notFound(err)
}
