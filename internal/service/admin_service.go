package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/feedback-service/internal/auth"
	"github.com/spec-kit/feedback-service/internal/config"
	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// AdminService coordinates admin authentication and the management
// surfaces: admin accounts, departments, employees and per-department
// integration settings.
type AdminService struct {
	admins      repository.AdminRepository
	departments repository.DepartmentRepository
	employees   repository.EmployeeRepository
	settings    repository.SettingsRepository
	actions     repository.ActionLogRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
}

// AdminDependencies encapsulates repo requirements for the admin service.
type AdminDependencies struct {
	AdminRepo      repository.AdminRepository
	DepartmentRepo repository.DepartmentRepository
	EmployeeRepo   repository.EmployeeRepository
	SettingsRepo   repository.SettingsRepository
	ActionLogRepo  repository.ActionLogRepository
}

// NewAdminService builds the service.
func NewAdminService(cfg config.Config, deps AdminDependencies) *AdminService {
	return &AdminService{
		admins:      deps.AdminRepo,
		departments: deps.DepartmentRepo,
		employees:   deps.EmployeeRepo,
		settings:    deps.SettingsRepo,
		actions:     deps.ActionLogRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for the HTTP auth middleware.
func (s *AdminService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates by email and password and issues a bearer token.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *AdminService) Login(ctx context.Context, email, password string) (*domain.Admin, string, time.Time, error) {
	admin, err := s.admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !admin.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(admin.ID, admin.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return admin, token, exp, nil
}

// ChangePassword verifies the current password before rehashing.
func (s *AdminService) ChangePassword(ctx context.Context, admin *domain.Admin, current, next string) error {
	if err := auth.ComparePassword(admin.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("current password incorrect")
	}
	if len(next) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	admin.PasswordHash = hash
	if err := s.admins.Update(ctx, admin); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// CreateAdmin registers a dashboard account. Oversight only.
func (s *AdminService) CreateAdmin(ctx context.Context, actor *domain.Admin, name, email, password string, role domain.AdminRole, departmentID *string) (*domain.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewValidationError("email required", nil)
	}
	if role == domain.AdminRoleDepartment && departmentID == nil {
		return nil, apperrors.NewValidationError("department admin needs a department", nil)
	}
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}
	if departmentID != nil {
		if _, err := s.departments.GetByID(ctx, *departmentID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	admin := &domain.Admin{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: departmentID,
		IsActive:     true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, actor, domain.ActionCreate, domain.EntityAdmin, admin.ID, nil, map[string]any{"email": email, "role": role})
	return admin, nil
}

// ListDepartments returns active departments for the intake picker.
func (s *AdminService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// CreateDepartment registers a routing destination. Oversight only.
func (s *AdminService) CreateDepartment(ctx context.Context, actor *domain.Admin, name, slug string, isOversight bool) (*domain.Department, error) {
	name = strings.TrimSpace(name)
	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" || slug == "" {
		return nil, apperrors.NewValidationError("name and slug required", nil)
	}
	if isOversight {
		if _, err := s.departments.GetOversight(ctx); err == nil {
			return nil, apperrors.NewConflict("an oversight department already exists", nil)
		} else if err != pgx.ErrNoRows {
			return nil, apperrors.MapError(err)
		}
	}
	dept := &domain.Department{
		Name:        name,
		Slug:        slug,
		IsOversight: isOversight,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, actor, domain.ActionCreate, domain.EntityDepartment, dept.ID, nil, map[string]any{"name": name, "slug": slug})
	return dept, nil
}

// ListEmployees returns a department's staff for the assignee picker.
func (s *AdminService) ListEmployees(ctx context.Context, admin *domain.Admin, departmentID string, activeOnly bool) ([]domain.Employee, error) {
	if !admin.CanAccessDepartment(departmentID) {
		return nil, apperrors.NewForbidden("department outside admin scope")
	}
	employees, err := s.employees.ListByDepartment(ctx, departmentID, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return employees, nil
}

// CreateEmployee adds an assignable staff member.
func (s *AdminService) CreateEmployee(ctx context.Context, admin *domain.Admin, departmentID, name, position string) (*domain.Employee, error) {
	if !admin.CanAccessDepartment(departmentID) {
		return nil, apperrors.NewForbidden("department outside admin scope")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("employee name required", nil)
	}
	employee := &domain.Employee{
		DepartmentID: departmentID,
		Name:         name,
		IsActive:     true,
	}
	if pos := strings.TrimSpace(position); pos != "" {
		employee.Position = &pos
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, admin, domain.ActionCreate, domain.EntityEmployee, employee.ID, nil, map[string]any{"name": name, "department_id": departmentID})
	return employee, nil
}

// UpdateEmployee renames an employee or changes their position.
func (s *AdminService) UpdateEmployee(ctx context.Context, admin *domain.Admin, employeeID string, name, position *string) (*domain.Employee, error) {
	employee, err := s.ownedEmployee(ctx, admin, employeeID)
	if err != nil {
		return nil, err
	}
	old := map[string]any{"name": employee.Name, "position": employee.Position}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.NewValidationError("employee name required", nil)
		}
		employee.Name = trimmed
	}
	if position != nil {
		if pos := strings.TrimSpace(*position); pos != "" {
			employee.Position = &pos
		} else {
			employee.Position = nil
		}
	}
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, admin, domain.ActionUpdateField, domain.EntityEmployee, employee.ID, old,
		map[string]any{"name": employee.Name, "position": employee.Position})
	return employee, nil
}

// ToggleEmployee deactivates or reactivates an employee. Employees are
// never hard-deleted so historical assignments keep resolving.
func (s *AdminService) ToggleEmployee(ctx context.Context, admin *domain.Admin, employeeID string) (*domain.Employee, error) {
	employee, err := s.ownedEmployee(ctx, admin, employeeID)
	if err != nil {
		return nil, err
	}
	if err := s.employees.ToggleActive(ctx, employeeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	old := employee.IsActive
	employee.IsActive = !employee.IsActive
	s.audit(ctx, admin, domain.ActionToggle, domain.EntityEmployee, employee.ID,
		map[string]any{"is_active": old}, map[string]any{"is_active": employee.IsActive})
	return employee, nil
}

// GetSettings returns a department's integration settings. A department
// with nothing configured yields empty settings, not an error.
func (s *AdminService) GetSettings(ctx context.Context, admin *domain.Admin, departmentID string) (*domain.DepartmentSettings, error) {
	if !admin.CanAccessDepartment(departmentID) {
		return nil, apperrors.NewForbidden("department outside admin scope")
	}
	settings, err := s.settings.Get(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return settings, nil
}

// UpdateSettings replaces a department's integration settings. Secrets
// never land in the audit trail; only which groups changed does.
func (s *AdminService) UpdateSettings(ctx context.Context, admin *domain.Admin, settings *domain.DepartmentSettings) (*domain.DepartmentSettings, error) {
	if !admin.CanAccessDepartment(settings.DepartmentID) {
		return nil, apperrors.NewForbidden("department outside admin scope")
	}
	if _, err := s.departments.GetByID(ctx, settings.DepartmentID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, admin, domain.ActionUpdateField, domain.EntitySettings, settings.DepartmentID, nil, map[string]any{
		"sheet_configured":   settings.SheetConfigured(),
		"chat_configured":    settings.ChatConfigured(),
		"tracker_configured": settings.TrackerConfigured(),
	})
	return settings, nil
}

func (s *AdminService) ownedEmployee(ctx context.Context, admin *domain.Admin, employeeID string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !admin.CanAccessDepartment(employee.DepartmentID) {
		return nil, apperrors.NewForbidden("employee outside admin department")
	}
	return employee, nil
}

func (s *AdminService) audit(ctx context.Context, actor *domain.Admin, kind domain.ActionKind, entity domain.EntityKind, entityID string, oldValue, newValue map[string]any) {
	if s.actions == nil {
		return
	}
	action := &domain.AdminAction{
		ActionKind: kind,
		EntityKind: entity,
		EntityID:   entityID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if actor != nil {
		action.ActorID = &actor.ID
	}
	_ = s.actions.Append(ctx, action)
}
