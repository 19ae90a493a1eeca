package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/dto"
	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/service"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// AdminHandler serves authentication and the management endpoints for
// admin accounts, departments, employees and integration settings.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// Login POST /auth/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	admin, token, exp, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		Admin:     adminResponse(admin),
	}})
}

// ChangePassword POST /auth/password/change.
func (h *AdminHandler) ChangePassword(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.ChangePassword(c.Context(), admin, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}

// Me GET /admin/me.
func (h *AdminHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": adminResponse(mustAdmin(c))})
}

// CreateAdmin POST /admin/admins. Oversight only.
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	actor := mustAdmin(c)
	var req dto.CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role := domain.AdminRole(req.Role)
	if role != domain.AdminRoleDepartment && role != domain.AdminRoleOversight {
		return apperrors.NewValidationError("unknown role", nil)
	}
	admin, err := h.service.CreateAdmin(c.Context(), actor, req.Name, req.Email, req.Password, role, req.DepartmentID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": adminResponse(admin)})
}

// ListDepartments GET /admin/departments.
func (h *AdminHandler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.service.ListDepartments(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(departments))
	for _, d := range departments {
		items = append(items, dto.DepartmentResponse{
			ID:          d.ID,
			Name:        d.Name,
			Slug:        d.Slug,
			IsOversight: d.IsOversight,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateDepartment POST /admin/departments. Oversight only.
func (h *AdminHandler) CreateDepartment(c *fiber.Ctx) error {
	actor := mustAdmin(c)
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.service.CreateDepartment(c.Context(), actor, req.Name, req.Slug, req.IsOversight)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.DepartmentResponse{
		ID:          dept.ID,
		Name:        dept.Name,
		Slug:        dept.Slug,
		IsOversight: dept.IsOversight,
	}})
}

// ListEmployees GET /admin/departments/:id/employees.
func (h *AdminHandler) ListEmployees(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	activeOnly := c.QueryBool("active_only", false)
	employees, err := h.service.ListEmployees(c.Context(), admin, c.Params("id"), activeOnly)
	if err != nil {
		return err
	}
	items := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		items = append(items, employeeResponse(&employees[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateEmployee POST /admin/employees.
func (h *AdminHandler) CreateEmployee(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" {
		return apperrors.NewValidationError("department_id required", nil)
	}
	employee, err := h.service.CreateEmployee(c.Context(), admin, req.DepartmentID, req.Name, req.Position)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": employeeResponse(employee)})
}

// UpdateEmployee PATCH /admin/employees/:id.
func (h *AdminHandler) UpdateEmployee(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.UpdateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	employee, err := h.service.UpdateEmployee(c.Context(), admin, c.Params("id"), req.Name, req.Position)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// ToggleEmployee POST /admin/employees/:id/toggle.
func (h *AdminHandler) ToggleEmployee(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	employee, err := h.service.ToggleEmployee(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// GetSettings GET /admin/departments/:id/settings.
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	settings, err := h.service.GetSettings(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(settings)})
}

// UpdateSettings PUT /admin/departments/:id/settings.
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	settings := &domain.DepartmentSettings{DepartmentID: c.Params("id")}
	if req.Sheet != nil {
		settings.Sheet = &domain.SheetCredentials{
			SpreadsheetID:       req.Sheet.SpreadsheetID,
			ServiceAccountEmail: req.Sheet.ServiceAccountEmail,
			PrivateKeyPEM:       req.Sheet.PrivateKeyPEM,
		}
	}
	if req.Chat != nil {
		settings.Chat = &domain.ChatCredentials{
			BotToken: req.Chat.BotToken,
			ChatID:   req.Chat.ChatID,
		}
	}
	settings.TrackerWebhookURL = req.TrackerWebhookURL

	updated, err := h.service.UpdateSettings(c.Context(), admin, settings)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsResponse(updated)})
}

func adminResponse(a *domain.Admin) dto.AdminResponse {
	return dto.AdminResponse{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Role:         string(a.Role),
		DepartmentID: a.DepartmentID,
		IsActive:     a.IsActive,
	}
}

func employeeResponse(e *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:           e.ID,
		DepartmentID: e.DepartmentID,
		Name:         e.Name,
		Position:     e.Position,
		IsActive:     e.IsActive,
	}
}

func settingsResponse(s *domain.DepartmentSettings) dto.SettingsResponse {
	resp := dto.SettingsResponse{
		DepartmentID:      s.DepartmentID,
		SheetConfigured:   s.SheetConfigured(),
		ChatConfigured:    s.ChatConfigured(),
		TrackerConfigured: s.TrackerConfigured(),
	}
	if s.Sheet != nil {
		resp.SpreadsheetID = s.Sheet.SpreadsheetID
	}
	if s.Chat != nil {
		resp.ChatID = s.Chat.ChatID
	}
	return resp
}
