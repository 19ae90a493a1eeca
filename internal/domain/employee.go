package domain

import "time"

// Employee is an assignable member of a department. Employees are
// soft-deactivated, never hard-deleted, so ticket assignee references
// stay resolvable.
type Employee struct {
	ID           string
	DepartmentID string
	Name         string
	Email        *string
	Position     *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
