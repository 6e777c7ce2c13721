// Package repository provides PostgreSQL access for pipeline records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hoareca_growth_hub/internal/remarks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
	db   querier
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// InTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (r *Repository) InTx(ctx context.Context, fn func(Store) error) (err error) {
	if _, nested := r.db.(pgx.Tx); nested || r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&Repository{pool: r.pool, db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListParams filters list reads. A nil Pincodes slice means no territory
// filter; a non-nil empty slice matches nothing. From and To bound
// created_at inclusively. Limit 0 means no limit.
type ListParams struct {
	Pincodes      []string
	From          *time.Time
	To            *time.Time
	Status        string
	MappedTo      string
	ProspectID    *uuid.UUID
	LeadID        *uuid.UUID
	SampleOrderID *uuid.UUID
	Limit         int
	Offset        int
}

// matchesNothing reports whether the territory filter excludes every row.
func (p ListParams) matchesNothing() bool {
	return p.Pincodes != nil && len(p.Pincodes) == 0
}

type CreateProspectParams struct {
	RestaurantName string
	Pincode        string
	Locality       string
	ContactNumber  string
	Latitude       *float64
	Longitude      *float64
	Status         string
	Tag            string
	MappedTo       string
	Remarks        string
	CreatedAt      *time.Time
}

type ProspectUpdate struct {
	Status   string
	Tag      string
	MappedTo *string
	Remarks  string
	Metadata remarks.Annotations
}

type CreateLeadParams struct {
	ClientName string
	Pincode    string
	ProspectID *uuid.UUID
	Status     string
	Remarks    string
	Metadata   remarks.Annotations
	CreatedBy  *uuid.UUID
}

type LeadUpdate struct {
	Status   string
	Remarks  string
	Metadata remarks.Annotations
}

type CreateOrderParams struct {
	LeadID   uuid.UUID
	SKU      string
	Status   string
	Remarks  string
	Metadata remarks.Annotations
}

type OrderUpdate struct {
	Status           string
	Remarks          string
	Metadata         remarks.Annotations
	DeliveryDate     *time.Time
	DeliveryPhotoKey *string
}

type CreateAgreementParams struct {
	SampleOrderID uuid.UUID
	Status        string
	EsignStatus   string
	Remarks       string
	Metadata      remarks.Annotations
}

type AgreementUpdate struct {
	Status          string
	EsignStatus     string
	QualityFeedback *bool
	Remarks         string
	Metadata        remarks.Annotations
}

type scanner interface {
	Scan(dest ...any) error
}

// whereBuilder accumulates positional filters.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(w.clauses, " AND ")
}

// common adds the territory, window and status filters. pincodeCol and
// alias name the columns of the queried table or its join.
func (w *whereBuilder) common(p ListParams, alias, pincodeCol string) {
	if p.Pincodes != nil {
		w.add(pincodeCol+" = ANY($%d)", p.Pincodes)
	}
	if p.From != nil {
		w.add(alias+".created_at >= $%d", *p.From)
	}
	if p.To != nil {
		w.add(alias+".created_at <= $%d", *p.To)
	}
	if p.Status != "" {
		w.add(alias+".status = $%d", p.Status)
	}
}

func (w *whereBuilder) page(p ListParams) string {
	if p.Limit <= 0 {
		return ""
	}
	w.args = append(w.args, p.Limit, p.Offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
