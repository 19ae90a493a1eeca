package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/dto"
	"github.com/spec-kit/feedback-service/internal/auth"
	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/service"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// TicketsHandler serves the admin dashboard ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// List GET /admin/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	tickets, err := h.service.List(c.Context(), admin, parseTicketQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// Meetings GET /admin/tickets/meetings returns the high-urgency bucket.
func (h *TicketsHandler) Meetings(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	tickets, err := h.service.Meetings(c.Context(), admin, parseTicketQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// Get GET /admin/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	ticket, err := h.service.Get(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateStatus PATCH /admin/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.StatusInput{StatusID: req.StatusID, SubstatusID: req.SubstatusID}
	if req.Status != nil {
		status := domain.LegacyStatus(strings.ToUpper(*req.Status))
		switch status {
		case domain.StatusNew, domain.StatusInProgress, domain.StatusResolved:
			input.Status = &status
		default:
			return apperrors.NewValidationError("unknown status", nil)
		}
	}

	ticket, outcomes, err := h.service.UpdateStatus(c.Context(), admin, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(ticket, outcomes)})
}

// SetDeadline PATCH /admin/tickets/:id/deadline.
func (h *TicketsHandler) SetDeadline(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.SetDeadlineRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, outcomes, err := h.service.SetDeadline(c.Context(), admin, c.Params("id"), req.Deadline)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(ticket, outcomes)})
}

// SetUrgency PATCH /admin/tickets/:id/urgency.
func (h *TicketsHandler) SetUrgency(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.SetUrgencyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, outcomes, err := h.service.SetUrgencyLevel(c.Context(), admin, c.Params("id"), req.Level)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(ticket, outcomes)})
}

// Assign PATCH /admin/tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, outcomes, err := h.service.Assign(c.Context(), admin, c.Params("id"), req.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mutationResponse(ticket, outcomes)})
}

// Redirect POST /admin/tickets/:id/redirect.
func (h *TicketsHandler) Redirect(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.RedirectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" {
		return apperrors.NewValidationError("department_id required", nil)
	}
	ticket, err := h.service.Redirect(c.Context(), admin, c.Params("id"), req.DepartmentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// SetFinalPhoto PATCH /admin/tickets/:id/final-photo.
func (h *TicketsHandler) SetFinalPhoto(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	var req dto.SetFinalPhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetFinalPhoto(c.Context(), admin, c.Params("id"), req.URL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Delete DELETE /admin/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	outcomes, err := h.service.Delete(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"destinations": outcomeResponses(outcomes)}})
}

// ClearAll DELETE /admin/tickets purges every ticket. Oversight only.
func (h *TicketsHandler) ClearAll(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	deleted, err := h.service.ClearAll(c.Context(), admin)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": deleted}})
}

// History GET /admin/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	entries, err := h.service.History(c.Context(), admin, c.Params("id"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ActionLogEntry, 0, len(entries))
	for i := range entries {
		items = append(items, actionLogEntry(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Dashboard GET /admin/departments/:id/dashboard.
func (h *TicketsHandler) Dashboard(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	counts, err := h.service.Dashboard(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		New:        counts.New,
		InProgress: counts.InProgress,
		Resolved:   counts.Resolved,
		Total:      counts.Total,
	}})
}

// Report GET /admin/departments/:id/report.
func (h *TicketsHandler) Report(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	to := time.Now()
	from := to.AddDate(0, -1, 0)
	if t := parseTime(c.Query("from")); t != nil {
		from = *t
	}
	if t := parseTime(c.Query("to")); t != nil {
		to = *t
	}
	report, err := h.service.BuildReport(c.Context(), admin, c.Params("id"), from, to)
	if err != nil {
		return err
	}
	byType := make(map[string]int64, len(report.ByType))
	for t, n := range report.ByType {
		byType[string(t)] = n
	}
	byUrgency := make(map[string]int64, len(report.ByUrgency))
	for level, n := range report.ByUrgency {
		label := domain.UrgencyLabel(level)
		if label == "" {
			label = "Unset"
		}
		byUrgency[label] = n
	}
	return c.JSON(fiber.Map{"data": dto.ReportResponse{
		DepartmentID: report.DepartmentID,
		From:         report.From,
		To:           report.To,
		ByType:       byType,
		ByUrgency:    byUrgency,
		Total:        report.Total,
	}})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if dept := c.Query("department_id"); dept != "" {
		filter.DepartmentID = &dept
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.LegacyStatus(strings.ToUpper(statusStr))
		filter.Status = &status
	}
	if statusID := c.Query("status_id"); statusID != "" {
		filter.StatusID = &statusID
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func mustAdmin(c *fiber.Ctx) *domain.Admin {
	admin, _ := auth.AdminFromContext(c)
	return admin
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return items
}

func mutationResponse(ticket *domain.Ticket, outcomes []service.DestinationOutcome) dto.TicketMutationResponse {
	return dto.TicketMutationResponse{
		Ticket:       dto.NewTicketResponse(ticket),
		Destinations: outcomeResponses(outcomes),
	}
}

func actionLogEntry(a *domain.AdminAction) dto.ActionLogEntry {
	return dto.ActionLogEntry{
		ID:         a.ID,
		ActorID:    a.ActorID,
		ActionKind: string(a.ActionKind),
		EntityKind: string(a.EntityKind),
		EntityID:   a.EntityID,
		OldValue:   a.OldValue,
		NewValue:   a.NewValue,
		CreatedAt:  a.CreatedAt,
	}
}
