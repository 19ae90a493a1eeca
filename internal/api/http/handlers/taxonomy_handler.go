package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/dto"
	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/service"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// TaxonomyHandler serves the per-department status builder endpoints.
type TaxonomyHandler struct {
	service *service.TaxonomyService
}

// NewTaxonomyHandler constructs handler.
func NewTaxonomyHandler(taxonomyService *service.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{service: taxonomyService}
}

// ListStatuses GET /admin/departments/:id/statuses.
func (h *TaxonomyHandler) ListStatuses(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	activeOnly := c.QueryBool("active_only", false)
	statuses, err := h.service.ListStatuses(c.Context(), admin, c.Params("id"), activeOnly)
	if err != nil {
		return err
	}
	items := make([]dto.StatusResponse, 0, len(statuses))
	for i := range statuses {
		items = append(items, statusResponse(&statuses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateStatus POST /admin/statuses.
func (h *TaxonomyHandler) CreateStatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.CreateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" {
		return apperrors.NewValidationError("department_id required", nil)
	}
	status, err := h.service.CreateStatus(c.Context(), admin, req.DepartmentID, req.Name, req.IsFinal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": statusResponse(status)})
}

// UpdateStatus PATCH /admin/statuses/:id.
func (h *TaxonomyHandler) UpdateStatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.UpdateStatusMetaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.service.RenameStatus(c.Context(), admin, c.Params("id"), req.Name, req.IsFinal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statusResponse(status)})
}

// ToggleStatus POST /admin/statuses/:id/toggle.
func (h *TaxonomyHandler) ToggleStatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	status, err := h.service.ToggleStatus(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statusResponse(status)})
}

// DeleteStatus DELETE /admin/statuses/:id.
func (h *TaxonomyHandler) DeleteStatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	if err := h.service.DeleteStatus(c.Context(), admin, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListSubstatuses GET /admin/statuses/:id/substatuses.
func (h *TaxonomyHandler) ListSubstatuses(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	activeOnly := c.QueryBool("active_only", false)
	subs, err := h.service.ListSubstatuses(c.Context(), admin, c.Params("id"), activeOnly)
	if err != nil {
		return err
	}
	items := make([]dto.SubstatusResponse, 0, len(subs))
	for i := range subs {
		items = append(items, substatusResponse(&subs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateSubstatus POST /admin/statuses/:id/substatuses.
func (h *TaxonomyHandler) CreateSubstatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.CreateSubstatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sub, err := h.service.CreateSubstatus(c.Context(), admin, c.Params("id"), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": substatusResponse(sub)})
}

// UpdateSubstatus PATCH /admin/substatuses/:id.
func (h *TaxonomyHandler) UpdateSubstatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.UpdateSubstatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sub, err := h.service.RenameSubstatus(c.Context(), admin, c.Params("id"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": substatusResponse(sub)})
}

// ToggleSubstatus POST /admin/substatuses/:id/toggle.
func (h *TaxonomyHandler) ToggleSubstatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	sub, err := h.service.ToggleSubstatus(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": substatusResponse(sub)})
}

// DeleteSubstatus DELETE /admin/substatuses/:id.
func (h *TaxonomyHandler) DeleteSubstatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	if err := h.service.DeleteSubstatus(c.Context(), admin, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func statusResponse(s *domain.DynamicStatus) dto.StatusResponse {
	return dto.StatusResponse{
		ID:           s.ID,
		DepartmentID: s.DepartmentID,
		Name:         s.Name,
		Position:     s.Position,
		IsFinal:      s.IsFinal,
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
	}
}

func substatusResponse(s *domain.DynamicSubstatus) dto.SubstatusResponse {
	return dto.SubstatusResponse{
		ID:        s.ID,
		StatusID:  s.StatusID,
		Name:      s.Name,
		Position:  s.Position,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
	}
}
