package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Department, error)
	GetOversight(ctx context.Context) (*domain.Department, error)
	ListActive(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

const departmentColumns = `id, name, slug, is_oversight, is_active, created_at, updated_at`

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, slug, is_oversight, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.Slug,
		dept.IsOversight,
		dept.IsActive,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, slug=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		dept.Name,
		dept.Slug,
		dept.IsActive,
		dept.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	return r.fetchSingle(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id=$1`, id)
}

func (r *departmentRepository) GetBySlug(ctx context.Context, slug string) (*domain.Department, error) {
	return r.fetchSingle(ctx, `SELECT `+departmentColumns+` FROM departments WHERE slug=$1`, slug)
}

// GetOversight returns the single top-level oversight department.
func (r *departmentRepository) GetOversight(ctx context.Context) (*domain.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments WHERE is_oversight LIMIT 1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query).Scan(
		&dept.ID, &dept.Name, &dept.Slug, &dept.IsOversight, &dept.IsActive, &dept.CreatedAt, &dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Department, error) {
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&dept.ID, &dept.Name, &dept.Slug, &dept.IsOversight, &dept.IsActive, &dept.CreatedAt, &dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) ListActive(ctx context.Context) ([]domain.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments WHERE is_active ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Slug, &dept.IsOversight, &dept.IsActive,
			&dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
