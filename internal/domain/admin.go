package domain

import "time"

// AdminRole scopes what departments an admin can act on.
type AdminRole string

const (
	// AdminRoleDepartment admins see and triage their own department only.
	AdminRoleDepartment AdminRole = "DEPARTMENT"
	// AdminRoleOversight admins see every department.
	AdminRoleOversight AdminRole = "OVERSIGHT"
)

// Admin is a dashboard account. Admins authenticate with email and
// password and receive a role-bearing bearer token.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AdminRole
	DepartmentID *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAccessDepartment reports whether the admin may act on tickets of
// the given department.
func (a *Admin) CanAccessDepartment(departmentID string) bool {
	if a.Role == AdminRoleOversight {
		return true
	}
	return a.DepartmentID != nil && *a.DepartmentID == departmentID
}
