package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines profile data access
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates profile repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// GetByID returns ErrUserNotFound when no profile exists
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	query := `SELECT id, email, display_name, created_at FROM profiles WHERE id = $1`

	var p Profile
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("profile repository get: %w", err)
	}
	return &p, nil
}
