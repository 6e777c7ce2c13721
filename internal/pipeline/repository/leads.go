package repository

import (
	"context"
	"fmt"

	"hoareca_growth_hub/internal/pipeline/domain"

	"github.com/google/uuid"
)

const leadColumns = `l.id, l.client_name, l.pincode, l.status, l.prospect_id, l.call_count, l.visit_count,
	l.remarks, l.metadata, l.created_by, l.created_at, l.updated_at`

func scanLead(row scanner) (domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(
		&l.ID,
		&l.ClientName,
		&l.Pincode,
		&l.Status,
		&l.ProspectID,
		&l.CallCount,
		&l.VisitCount,
		&l.Remarks,
		&l.Metadata,
		&l.CreatedBy,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

func (r *Repository) ListLeads(ctx context.Context, params ListParams) ([]domain.Lead, error) {
	if params.matchesNothing() {
		return []domain.Lead{}, nil
	}

	var w whereBuilder
	w.common(params, "l", "l.pincode")
	if params.ProspectID != nil {
		w.add("l.prospect_id = $%d", *params.ProspectID)
	}
	where := w.sql()
	page := w.page(params)

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM leads l
		WHERE %s
		ORDER BY l.created_at DESC%s
	`, leadColumns, where, page), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	l, err := scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads l WHERE l.id = $1`, id))
	return l, notFound(err)
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `
		INSERT INTO leads AS l (client_name, pincode, prospect_id, status, remarks, metadata, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+leadColumns,
		params.ClientName,
		params.Pincode,
		params.ProspectID,
		params.Status,
		params.Remarks,
		params.Metadata,
		params.CreatedBy,
	))
}

func (r *Repository) UpdateLead(ctx context.Context, id uuid.UUID, params LeadUpdate) (domain.Lead, error) {
	l, err := scanLead(r.db.QueryRow(ctx, `
		UPDATE leads AS l
		SET status = $2, remarks = $3, metadata = $4, updated_at = now()
		WHERE l.id = $1
		RETURNING `+leadColumns,
		id, params.Status, params.Remarks, params.Metadata,
	))
	return l, notFound(err)
}

// IncrementLeadCounters adds to the call and visit counters in place so
// concurrent interactions never lose an increment.
func (r *Repository) IncrementLeadCounters(ctx context.Context, id uuid.UUID, calls, visits int) (domain.Lead, error) {
	if calls < 0 || visits < 0 {
		return domain.Lead{}, fmt.Errorf("lead counters are non-decreasing")
	}
	l, err := scanLead(r.db.QueryRow(ctx, `
		UPDATE leads AS l
		SET call_count = l.call_count + $2,
			visit_count = l.visit_count + $3,
			updated_at = now()
		WHERE l.id = $1
		RETURNING `+leadColumns,
		id, calls, visits,
	))
	return l, notFound(err)
}
