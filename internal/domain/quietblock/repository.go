package quietblock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines quiet block data access.
//
// Owner methods run in a transaction scoped to that owner so the database's
// row-level security policy applies. System methods are reserved for the
// reminder sweeper and run with the system scope.
type Repository interface {
	Create(ctx context.Context, b *QuietBlock) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*QuietBlock, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) ([]*QuietBlock, error)
	ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*QuietBlock, error)
	ExpireByOwner(ctx context.Context, ownerID uuid.UUID, now time.Time) (int64, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	ListSweepCandidates(ctx context.Context) ([]*QuietBlock, error)
	Deactivate(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error)
}

const blockColumns = `id, owner_id, title, start_at, end_at, active, reminder_sent, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

// NewRepository creates quiet block repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// asOwner runs fn with app.current_owner set for the transaction only
func (r *repository) asOwner(ctx context.Context, ownerID uuid.UUID, fn func(tx *sqlx.Tx) error) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT set_config('app.current_owner', $1, true)`, ownerID.String()); err != nil {
			return fmt.Errorf("set owner scope: %w", err)
		}
		return fn(tx)
	})
}

func (r *repository) asSystem(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT set_config('app.scope', 'system', true)`); err != nil {
			return fmt.Errorf("set system scope: %w", err)
		}
		return fn(tx)
	})
}

// Create inserts b unless an active block of the same owner overlaps it. The
// insert is conditional and runs under a per-owner advisory lock, so two
// concurrent requests can never both be admitted.
func (r *repository) Create(ctx context.Context, b *QuietBlock) error {
	return r.asOwner(ctx, b.OwnerID, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, b.OwnerID.String()); err != nil {
			return fmt.Errorf("quiet block repository lock: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO quiet_blocks (id, owner_id, title, start_at, end_at, active, reminder_sent, created_at, updated_at)
			SELECT $1, $2, $3, $4, $5, TRUE, FALSE, $6, $6
			WHERE NOT EXISTS (
				SELECT 1 FROM quiet_blocks
				WHERE owner_id = $2 AND active AND start_at < $5 AND end_at > $4
			)`,
			b.ID, b.OwnerID, b.Title, b.Start, b.End, b.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("quiet block repository create: %w", err)
		}

		if n, _ := res.RowsAffected(); n == 0 {
			var conflict QuietBlock
			err := tx.GetContext(ctx, &conflict, `
				SELECT `+blockColumns+` FROM quiet_blocks
				WHERE owner_id = $1 AND active AND start_at < $3 AND end_at > $2
				ORDER BY start_at LIMIT 1`,
				b.OwnerID, b.Start, b.End,
			)
			if err != nil {
				return &OverlapError{}
			}
			return &OverlapError{Conflict: &conflict}
		}

		b.Active = true
		b.ReminderSent = false
		b.UpdatedAt = b.CreatedAt
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*QuietBlock, error) {
	var b QuietBlock
	err := r.asOwner(ctx, ownerID, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &b, `SELECT `+blockColumns+` FROM quiet_blocks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlockNotFound
		}
		return nil, fmt.Errorf("quiet block repository get: %w", err)
	}
	return &b, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) ([]*QuietBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM quiet_blocks WHERE owner_id = $1`
	if !includeInactive {
		query += ` AND active`
	}
	query += ` ORDER BY start_at`

	var blocks []*QuietBlock
	err := r.asOwner(ctx, ownerID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &blocks, query, ownerID)
	})
	if err != nil {
		return nil, fmt.Errorf("quiet block repository list: %w", err)
	}
	return blocks, nil
}

func (r *repository) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*QuietBlock, error) {
	return r.ListByOwner(ctx, ownerID, false)
}

func (r *repository) ExpireByOwner(ctx context.Context, ownerID uuid.UUID, now time.Time) (int64, error) {
	var affected int64
	err := r.asOwner(ctx, ownerID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE quiet_blocks SET active = FALSE
			WHERE owner_id = $1 AND active AND end_at <= $2`,
			ownerID, now,
		)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("quiet block repository expire: %w", err)
	}
	return affected, nil
}

func (r *repository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	var affected int64
	err := r.asOwner(ctx, ownerID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM quiet_blocks WHERE id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("quiet block repository delete: %w", err)
	}
	if affected == 0 {
		return ErrBlockNotFound
	}
	return nil
}

// ListSweepCandidates returns every active block, reminded or not, so ended
// blocks are expired regardless of reminder state. Windowing happens in the
// sweeper, not in SQL.
func (r *repository) ListSweepCandidates(ctx context.Context) ([]*QuietBlock, error) {
	var blocks []*QuietBlock
	err := r.asSystem(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &blocks, `
			SELECT `+blockColumns+` FROM quiet_blocks
			WHERE active
			ORDER BY start_at`)
	})
	if err != nil {
		return nil, fmt.Errorf("quiet block repository list candidates: %w", err)
	}
	return blocks, nil
}

// Deactivate sets active = false for ids and returns the ids it actually
// flipped. Already inactive rows are left untouched, so repeating the call is
// harmless.
func (r *repository) Deactivate(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	var flipped []uuid.UUID
	err := r.asSystem(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &flipped, `
			UPDATE quiet_blocks SET active = FALSE
			WHERE id = ANY($1::uuid[]) AND active
			RETURNING id`,
			pq.StringArray(raw),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("quiet block repository deactivate: %w", err)
	}
	return flipped, nil
}

// MarkReminderSent flips reminder_sent once. It reports false when the row was
// already marked (or is gone).
func (r *repository) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	var affected int64
	err := r.asSystem(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE quiet_blocks SET reminder_sent = TRUE
			WHERE id = $1 AND NOT reminder_sent`,
			id,
		)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("quiet block repository mark reminded: %w", err)
	}
	return affected > 0, nil
}
