package territory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides data access for users and pincode mappings.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) UserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, full_name, role
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.FullName, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *Repository) MappingsByEmail(ctx context.Context, email string) ([]Mapping, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, pincode, email, role, created_at
		FROM pincode_persona_map
		WHERE lower(email) = lower($1)
		ORDER BY pincode
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappings := make([]Mapping, 0)
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.ID, &m.Pincode, &m.Email, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

var _ Store = (*Repository)(nil)
