package repository

import (
	"context"
	"fmt"

	"hoareca_growth_hub/internal/pipeline/domain"

	"github.com/google/uuid"
)

const agreementColumns = `a.id, a.sample_order_id, a.status, a.esign_status, a.quality_feedback, a.remarks,
	a.metadata, a.created_at, a.updated_at`

func scanAgreement(row scanner) (domain.Agreement, error) {
	var a domain.Agreement
	err := row.Scan(
		&a.ID,
		&a.SampleOrderID,
		&a.Status,
		&a.EsignStatus,
		&a.QualityFeedback,
		&a.Remarks,
		&a.Metadata,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// ListAgreements filters territory through the order's lead pincode.
func (r *Repository) ListAgreements(ctx context.Context, params ListParams) ([]domain.Agreement, error) {
	if params.matchesNothing() {
		return []domain.Agreement{}, nil
	}

	var w whereBuilder
	w.common(params, "a", "l.pincode")
	if params.SampleOrderID != nil {
		w.add("a.sample_order_id = $%d", *params.SampleOrderID)
	}
	where := w.sql()
	page := w.page(params)

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM agreements a
		JOIN sample_orders o ON o.id = a.sample_order_id
		JOIN leads l ON l.id = o.lead_id
		WHERE %s
		ORDER BY a.created_at DESC%s
	`, agreementColumns, where, page), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Agreement, 0)
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *Repository) GetAgreement(ctx context.Context, id uuid.UUID) (domain.Agreement, error) {
	a, err := scanAgreement(r.db.QueryRow(ctx, `SELECT `+agreementColumns+` FROM agreements a WHERE a.id = $1`, id))
	return a, notFound(err)
}

func (r *Repository) CreateAgreement(ctx context.Context, params CreateAgreementParams) (domain.Agreement, error) {
	return scanAgreement(r.db.QueryRow(ctx, `
		INSERT INTO agreements AS a (sample_order_id, status, esign_status, remarks, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+agreementColumns,
		params.SampleOrderID, params.Status, params.EsignStatus, params.Remarks, params.Metadata,
	))
}

func (r *Repository) UpdateAgreement(ctx context.Context, id uuid.UUID, params AgreementUpdate) (domain.Agreement, error) {
	a, err := scanAgreement(r.db.QueryRow(ctx, `
		UPDATE agreements AS a
		SET status = $2,
			esign_status = $3,
			quality_feedback = COALESCE($4, a.quality_feedback),
			remarks = $5,
			metadata = $6,
			updated_at = now()
		WHERE a.id = $1
		RETURNING `+agreementColumns,
		id,
		params.Status,
		params.EsignStatus,
		params.QualityFeedback,
		params.Remarks,
		params.Metadata,
	))
	return a, notFound(err)
}
