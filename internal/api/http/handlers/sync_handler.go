package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/dto"
	"github.com/spec-kit/feedback-service/internal/service"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// SyncHandler serves the on-demand synchronization endpoints: inbound
// spreadsheet sweeps and task-tracker operations.
type SyncHandler struct {
	sync    *service.SyncService
	tracker *service.TrackerService
	tickets *service.TicketService
}

// NewSyncHandler constructs handler.
func NewSyncHandler(syncService *service.SyncService, trackerService *service.TrackerService, ticketService *service.TicketService) *SyncHandler {
	return &SyncHandler{sync: syncService, tracker: trackerService, tickets: ticketService}
}

// PullStatuses POST /admin/departments/:id/sync/sheet reads the status
// and sub-status columns back from the department's spreadsheet and
// applies edits made there.
func (h *SyncHandler) PullStatuses(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	departmentID := c.Params("id")
	if !admin.CanAccessDepartment(departmentID) {
		return apperrors.NewForbidden("department outside admin scope")
	}
	changed, err := h.sync.PullStatuses(c.Context(), departmentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SyncPullResponse{
		DepartmentID: departmentID,
		Changed:      changed,
	}})
}

// Resync POST /admin/tickets/:id/sync rewrites the ticket's full row in
// the configured spreadsheets, the retry path after a failed or partial
// outbound push.
func (h *SyncHandler) Resync(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	ticket, err := h.tickets.Get(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	outcomes := h.sync.Resync(c.Context(), ticket)
	return c.JSON(fiber.Map{"data": dto.TicketMutationResponse{
		Ticket:       dto.NewTicketResponse(ticket),
		Destinations: outcomeResponses(outcomes),
	}})
}

// CreateTask POST /admin/tickets/:id/tracker creates a task in the
// external tracker for the ticket and stores the returned id.
func (h *SyncHandler) CreateTask(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	// Scope check through the ticket service before touching the tracker.
	ticket, err := h.tickets.Get(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	updated, outcome, err := h.tracker.CreateTask(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketMutationResponse{
		Ticket:       dto.NewTicketResponse(updated),
		Destinations: outcomeResponses([]service.DestinationOutcome{outcome}),
	}})
}

// SyncTracker POST /admin/departments/:id/sync/tracker polls the
// tracker for every linked ticket of the department and pulls status
// changes back.
func (h *SyncHandler) SyncTracker(c *fiber.Ctx) error {
	admin := mustAdmin(c)
	departmentID := c.Params("id")
	if !admin.CanAccessDepartment(departmentID) {
		return apperrors.NewForbidden("department outside admin scope")
	}
	changed, failed, err := h.tracker.SyncDepartment(c.Context(), departmentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TrackerSyncResponse{
		DepartmentID: departmentID,
		Changed:      changed,
		Failed:       failed,
	}})
}
