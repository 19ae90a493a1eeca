package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// EmployeeRepository handles persistence for assignable employees.
// Employees are soft-deactivated only; rows referenced by tickets are
// never removed.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	ToggleActive(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	ListByDepartment(ctx context.Context, departmentID string, activeOnly bool) ([]domain.Employee, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (department_id, name, email, position, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		employee.DepartmentID,
		employee.Name,
		employee.Email,
		employee.Position,
		employee.IsActive,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	const query = `
        UPDATE employees SET name=$1, email=$2, position=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		employee.Name,
		employee.Email,
		employee.Position,
		employee.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) ToggleActive(ctx context.Context, id string) error {
	const query = `UPDATE employees SET is_active = NOT is_active, updated_at = NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	const query = `
        SELECT id, department_id, name, email, position, is_active, created_at, updated_at
        FROM employees WHERE id=$1`
	var employee domain.Employee
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&employee.ID,
		&employee.DepartmentID,
		&employee.Name,
		&employee.Email,
		&employee.Position,
		&employee.IsActive,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) ListByDepartment(ctx context.Context, departmentID string, activeOnly bool) ([]domain.Employee, error) {
	query := `
        SELECT id, department_id, name, email, position, is_active, created_at, updated_at
        FROM employees WHERE department_id=$1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(&employee.ID, &employee.DepartmentID, &employee.Name, &employee.Email,
			&employee.Position, &employee.IsActive, &employee.CreatedAt, &employee.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, employee)
	}
	return result, rows.Err()
}
