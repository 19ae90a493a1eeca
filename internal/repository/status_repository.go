package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// ErrStatusInUse is returned when deleting a status that tickets still
// reference. Deactivation is the supported path for retiring a status.
var ErrStatusInUse = errors.New("status is referenced by tickets")

// StatusRepository manages the per-department status taxonomy.
type StatusRepository interface {
	ListByDepartment(ctx context.Context, departmentID string, activeOnly bool) ([]domain.DynamicStatus, error)
	GetStatus(ctx context.Context, id string) (*domain.DynamicStatus, error)
	CreateStatus(ctx context.Context, status *domain.DynamicStatus) error
	UpdateStatus(ctx context.Context, id string, name *string, isFinal *bool) error
	ToggleStatus(ctx context.Context, id string) error
	DeleteStatus(ctx context.Context, id string) error

	ListSubstatuses(ctx context.Context, statusID string, activeOnly bool) ([]domain.DynamicSubstatus, error)
	GetSubstatus(ctx context.Context, id string) (*domain.DynamicSubstatus, error)
	CreateSubstatus(ctx context.Context, sub *domain.DynamicSubstatus) error
	UpdateSubstatus(ctx context.Context, id string, name *string) error
	ToggleSubstatus(ctx context.Context, id string) error
	DeleteSubstatus(ctx context.Context, id string) error
}

type statusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository builds the repository.
func NewStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &statusRepository{pool: pool}
}

func (r *statusRepository) ListByDepartment(ctx context.Context, departmentID string, activeOnly bool) ([]domain.DynamicStatus, error) {
	query := `
        SELECT id, department_id, name, position, is_final, is_active, created_at, updated_at
        FROM dynamic_statuses WHERE department_id=$1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DynamicStatus
	for rows.Next() {
		var status domain.DynamicStatus
		if err := rows.Scan(&status.ID, &status.DepartmentID, &status.Name, &status.Position,
			&status.IsFinal, &status.IsActive, &status.CreatedAt, &status.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

func (r *statusRepository) GetStatus(ctx context.Context, id string) (*domain.DynamicStatus, error) {
	const query = `
        SELECT id, department_id, name, position, is_final, is_active, created_at, updated_at
        FROM dynamic_statuses WHERE id=$1`
	var status domain.DynamicStatus
	if err := r.pool.QueryRow(ctx, query, id).Scan(&status.ID, &status.DepartmentID, &status.Name,
		&status.Position, &status.IsFinal, &status.IsActive, &status.CreatedAt, &status.UpdatedAt); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateStatus appends at the next position within the department,
// not-final and active.
func (r *statusRepository) CreateStatus(ctx context.Context, status *domain.DynamicStatus) error {
	const query = `
        INSERT INTO dynamic_statuses (department_id, name, position, is_final, is_active)
        VALUES ($1, $2,
                (SELECT COALESCE(MAX(position), 0) + 1 FROM dynamic_statuses WHERE department_id=$1),
                FALSE, TRUE)
        RETURNING id, position, is_final, is_active, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, status.DepartmentID, status.Name).
		Scan(&status.ID, &status.Position, &status.IsFinal, &status.IsActive, &status.CreatedAt, &status.UpdatedAt)
}

func (r *statusRepository) UpdateStatus(ctx context.Context, id string, name *string, isFinal *bool) error {
	const query = `
        UPDATE dynamic_statuses
        SET name = COALESCE($1, name), is_final = COALESCE($2, is_final), updated_at = NOW()
        WHERE id=$3`
	return r.execExpectingRow(ctx, query, name, isFinal, id)
}

func (r *statusRepository) ToggleStatus(ctx context.Context, id string) error {
	const query = `UPDATE dynamic_statuses SET is_active = NOT is_active, updated_at = NOW() WHERE id=$1`
	return r.execExpectingRow(ctx, query, id)
}

// DeleteStatus refuses to remove a status that tickets still reference,
// returning ErrStatusInUse. Positions of surviving statuses keep their
// gaps; nothing is renumbered.
func (r *statusRepository) DeleteStatus(ctx context.Context, id string) error {
	var referenced bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE status_id=$1)`, id).Scan(&referenced); err != nil {
		return err
	}
	if referenced {
		return ErrStatusInUse
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM dynamic_substatuses WHERE status_id=$1`, id); err != nil {
		return err
	}
	return r.execExpectingRow(ctx, `DELETE FROM dynamic_statuses WHERE id=$1`, id)
}

func (r *statusRepository) ListSubstatuses(ctx context.Context, statusID string, activeOnly bool) ([]domain.DynamicSubstatus, error) {
	query := `
        SELECT id, status_id, name, position, is_active, created_at, updated_at
        FROM dynamic_substatuses WHERE status_id=$1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, statusID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DynamicSubstatus
	for rows.Next() {
		var sub domain.DynamicSubstatus
		if err := rows.Scan(&sub.ID, &sub.StatusID, &sub.Name, &sub.Position,
			&sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func (r *statusRepository) GetSubstatus(ctx context.Context, id string) (*domain.DynamicSubstatus, error) {
	const query = `
        SELECT id, status_id, name, position, is_active, created_at, updated_at
        FROM dynamic_substatuses WHERE id=$1`
	var sub domain.DynamicSubstatus
	if err := r.pool.QueryRow(ctx, query, id).Scan(&sub.ID, &sub.StatusID, &sub.Name,
		&sub.Position, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *statusRepository) CreateSubstatus(ctx context.Context, sub *domain.DynamicSubstatus) error {
	const query = `
        INSERT INTO dynamic_substatuses (status_id, name, position, is_active)
        VALUES ($1, $2,
                (SELECT COALESCE(MAX(position), 0) + 1 FROM dynamic_substatuses WHERE status_id=$1),
                TRUE)
        RETURNING id, position, is_active, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, sub.StatusID, sub.Name).
		Scan(&sub.ID, &sub.Position, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *statusRepository) UpdateSubstatus(ctx context.Context, id string, name *string) error {
	const query = `
        UPDATE dynamic_substatuses SET name = COALESCE($1, name), updated_at = NOW() WHERE id=$2`
	return r.execExpectingRow(ctx, query, name, id)
}

func (r *statusRepository) ToggleSubstatus(ctx context.Context, id string) error {
	const query = `UPDATE dynamic_substatuses SET is_active = NOT is_active, updated_at = NOW() WHERE id=$1`
	return r.execExpectingRow(ctx, query, id)
}

// DeleteSubstatus nulls the reference out of any ticket carrying it
// before removing the row. Sub-status is presentation-only, so clearing
// it never changes a ticket's lifecycle state.
func (r *statusRepository) DeleteSubstatus(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE tickets SET substatus_id=NULL WHERE substatus_id=$1`, id); err != nil {
		return err
	}
	return r.execExpectingRow(ctx, `DELETE FROM dynamic_substatuses WHERE id=$1`, id)
}

func (r *statusRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
