package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/dto"
	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/service"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// FeedbackHandler serves the public intake endpoints. No authentication:
// anyone on the internal network can file feedback.
type FeedbackHandler struct {
	tickets *service.TicketService
	admin   *service.AdminService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(tickets *service.TicketService, admin *service.AdminService) *FeedbackHandler {
	return &FeedbackHandler{tickets: tickets, admin: admin}
}

// Meta GET /feedback/meta returns the intake form enumerations.
func (h *FeedbackHandler) Meta(c *fiber.Ctx) error {
	departments, err := h.admin.ListDepartments(c.Context())
	if err != nil {
		return err
	}

	resp := dto.FeedbackMetaResponse{}
	for _, t := range domain.AllFeedbackTypes() {
		resp.Types = append(resp.Types, dto.FeedbackTypeEntry{Value: string(t), Label: t.Label()})
	}
	for _, r := range domain.AllSubmitterRoles() {
		resp.Roles = append(resp.Roles, string(r))
	}
	for _, d := range departments {
		resp.Departments = append(resp.Departments, dto.DepartmentResponse{
			ID:          d.ID,
			Name:        d.Name,
			Slug:        d.Slug,
			IsOversight: d.IsOversight,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Submit POST /feedback files a new ticket.
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" {
		return apperrors.NewValidationError("department_id required", nil)
	}

	ticket, outcomes, err := h.tickets.Submit(c.Context(), service.SubmitInput{
		DepartmentID:  req.DepartmentID,
		Role:          domain.SubmitterRole(req.Role),
		Type:          domain.FeedbackType(req.Type),
		Message:       req.Message,
		Object:        req.Object,
		Name:          req.Name,
		Contact:       req.Contact,
		IsAnonymous:   req.IsAnonymous,
		Urgency:       req.Urgency,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SubmitFeedbackResponse{
		ID:           ticket.ID,
		Status:       string(ticket.Status),
		Destinations: outcomeResponses(outcomes),
	}})
}

func outcomeResponses(outcomes []service.DestinationOutcome) []dto.OutcomeResponse {
	if len(outcomes) == 0 {
		return nil
	}
	items := make([]dto.OutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		items = append(items, dto.OutcomeResponse{
			DepartmentID: o.DepartmentID,
			Kind:         string(o.Kind),
			Status:       string(o.Status),
			Reason:       o.Reason,
		})
	}
	return items
}
