package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// ActionLogRepository stores the append-only admin audit trail. There is
// deliberately no update or delete operation.
type ActionLogRepository interface {
	Append(ctx context.Context, action *domain.AdminAction) error
	List(ctx context.Context, entityKind *domain.EntityKind, entityID *string, limit, offset int) ([]domain.AdminAction, error)
}

type actionLogRepository struct {
	pool *pgxpool.Pool
}

// NewActionLogRepository builds the repository.
func NewActionLogRepository(pool *pgxpool.Pool) ActionLogRepository {
	return &actionLogRepository{pool: pool}
}

func (r *actionLogRepository) Append(ctx context.Context, action *domain.AdminAction) error {
	const query = `
        INSERT INTO admin_actions (actor_id, action_kind, entity_kind, entity_id, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		action.ActorID,
		action.ActionKind,
		action.EntityKind,
		action.EntityID,
		action.OldValue,
		action.NewValue,
	).Scan(&action.ID, &action.CreatedAt)
}

func (r *actionLogRepository) List(ctx context.Context, entityKind *domain.EntityKind, entityID *string, limit, offset int) ([]domain.AdminAction, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
        SELECT id, actor_id, action_kind, entity_kind, entity_id, old_value, new_value, created_at
        FROM admin_actions WHERE 1=1`
	args := []any{}
	if entityKind != nil {
		args = append(args, *entityKind)
		query += ` AND entity_kind=$1`
	}
	if entityID != nil {
		args = append(args, *entityID)
		if len(args) == 1 {
			query += ` AND entity_id=$1`
		} else {
			query += ` AND entity_id=$2`
		}
	}
	query += ` ORDER BY created_at DESC`
	args = append(args, limit, offset)
	switch len(args) {
	case 2:
		query += ` LIMIT $1 OFFSET $2`
	case 3:
		query += ` LIMIT $2 OFFSET $3`
	case 4:
		query += ` LIMIT $3 OFFSET $4`
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AdminAction
	for rows.Next() {
		var action domain.AdminAction
		if err := rows.Scan(
			&action.ID,
			&action.ActorID,
			&action.ActionKind,
			&action.EntityKind,
			&action.EntityID,
			&action.OldValue,
			&action.NewValue,
			&action.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, action)
	}
	return result, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
