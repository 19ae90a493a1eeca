package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/events"
	"github.com/spec-kit/feedback-service/internal/repository"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// TicketService coordinates the feedback ticket lifecycle: public
// submission and every admin dashboard mutation.
type TicketService struct {
	tickets     repository.TicketRepository
	statuses    repository.StatusRepository
	departments repository.DepartmentRepository
	employees   repository.EmployeeRepository
	actions     repository.ActionLogRepository
	dispatcher  events.Dispatcher
	syncer      Syncer
	notifier    Notifier
}

// TicketDependencies bundles what the ticket service needs.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	StatusRepo     repository.StatusRepository
	DepartmentRepo repository.DepartmentRepository
	EmployeeRepo   repository.EmployeeRepository
	ActionLogRepo  repository.ActionLogRepository
	Dispatcher     events.Dispatcher
	Syncer         Syncer
	Notifier       Notifier
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		statuses:    deps.StatusRepo,
		departments: deps.DepartmentRepo,
		employees:   deps.EmployeeRepo,
		actions:     deps.ActionLogRepo,
		dispatcher:  deps.Dispatcher,
		syncer:      deps.Syncer,
		notifier:    deps.Notifier,
	}
}

// SubmitInput describes the public intake payload.
type SubmitInput struct {
	DepartmentID  string
	Role          domain.SubmitterRole
	Type          domain.FeedbackType
	Message       string
	Object        string
	Name          string
	Contact       string
	IsAnonymous   bool
	Urgency       string
	AttachmentURL string
}

// StatusInput describes a status change: either a legacy status, or a
// dynamic status reference with an optional sub-status.
type StatusInput struct {
	Status      *domain.LegacyStatus
	StatusID    *string
	SubstatusID *string
}

// DashboardCounts summarizes a department's tickets by legacy status.
type DashboardCounts struct {
	New        int64 `json:"new"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	Total      int64 `json:"total"`
}

// Report aggregates a department's tickets by type over a date range.
type Report struct {
	DepartmentID string                        `json:"department_id"`
	From         time.Time                     `json:"from"`
	To           time.Time                     `json:"to"`
	ByType       map[domain.FeedbackType]int64 `json:"by_type"`
	ByUrgency    map[int]int64                 `json:"by_urgency"`
	Total        int64                         `json:"total"`
}

// Submit validates and persists a new ticket, then fans out the chat
// notification and sheet append. Submission succeeds once the store
// write lands; downstream outcomes are reported but never fail it.
func (s *TicketService) Submit(ctx context.Context, input SubmitInput) (*domain.Ticket, []DestinationOutcome, error) {
	if !input.Type.Valid() {
		return nil, nil, apperrors.NewValidationError("unknown feedback type", nil)
	}
	if !input.Role.Valid() {
		return nil, nil, apperrors.NewValidationError("unknown submitter role", nil)
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, nil, apperrors.NewValidationError("message required", nil)
	}

	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, nil, apperrors.NewValidationError("department inactive", nil)
	}

	ticket := &domain.Ticket{
		DepartmentID: dept.ID,
		Role:         input.Role,
		Type:         input.Type,
		Message:      strings.TrimSpace(input.Message),
		Object:       strings.TrimSpace(input.Object),
		IsAnonymous:  input.IsAnonymous,
		Status:       domain.StatusNew,
		Urgency:      strings.TrimSpace(input.Urgency),
	}
	// Anonymous submissions never store identifying fields.
	if !input.IsAnonymous {
		if name := strings.TrimSpace(input.Name); name != "" {
			ticket.Name = &name
		}
		if contact := strings.TrimSpace(input.Contact); contact != "" {
			ticket.Contact = &contact
		}
	}
	if url := strings.TrimSpace(input.AttachmentURL); url != "" {
		ticket.AttachmentURL = &url
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketID:     ticket.ID,
		DepartmentID: ticket.DepartmentID,
		Payload: events.TicketCreatedPayload{
			Type:    ticket.Type,
			Role:    ticket.Role,
			Urgency: ticket.Urgency,
		},
	})

	var outcomes []DestinationOutcome
	if s.notifier != nil {
		outcomes = append(outcomes, s.notifier.NotifyCreated(ctx, ticket)...)
	}
	if s.syncer != nil {
		outcomes = append(outcomes, s.syncer.PushCreate(ctx, ticket)...)
	}
	return ticket, outcomes, nil
}

// Get fetches a ticket, enforcing department scope.
func (s *TicketService) Get(ctx context.Context, admin *domain.Admin, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !admin.CanAccessDepartment(ticket.DepartmentID) {
		return nil, apperrors.NewForbidden("ticket outside admin department")
	}
	return ticket, nil
}

// List returns tickets newest-first, scoped to the admin's department
// unless the admin has oversight.
func (s *TicketService) List(ctx context.Context, admin *domain.Admin, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s.applyScope(&filter, admin)
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Meetings returns the meetings view bucket: tickets at or above the
// urgency floor.
func (s *TicketService) Meetings(ctx context.Context, admin *domain.Admin, filter repository.TicketFilter) ([]domain.Ticket, error) {
	floor := domain.MeetingsUrgencyFloor
	filter.UrgencyLevelMin = &floor
	return s.List(ctx, admin, filter)
}

// Dashboard returns per-status counts for a department.
func (s *TicketService) Dashboard(ctx context.Context, admin *domain.Admin, departmentID string) (*DashboardCounts, error) {
	if !admin.CanAccessDepartment(departmentID) {
		return nil, apperrors.NewForbidden("department outside admin scope")
	}
	counts, err := s.tickets.CountByStatus(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := &DashboardCounts{}
	for _, sc := range counts {
		switch sc.Status {
		case domain.StatusNew:
			result.New = sc.Count
		case domain.StatusInProgress:
			result.InProgress = sc.Count
		case domain.StatusResolved:
			result.Resolved = sc.Count
		}
		result.Total += sc.Count
	}
	return result, nil
}

// BuildReport aggregates ticket counts by type over a date range.
func (s *TicketService) BuildReport(ctx context.Context, admin *domain.Admin, departmentID string, from, to time.Time) (*Report, error) {
	if !admin.CanAccessDepartment(departmentID) {
		return nil, apperrors.NewForbidden("department outside admin scope")
	}
	counts, err := s.tickets.CountByType(ctx, departmentID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	urgencyCounts, err := s.tickets.CountByUrgency(ctx, departmentID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report := &Report{
		DepartmentID: departmentID,
		From:         from,
		To:           to,
		ByType:       map[domain.FeedbackType]int64{},
		ByUrgency:    map[int]int64{},
	}
	for _, tc := range counts {
		report.ByType[tc.Type] = tc.Count
		report.Total += tc.Count
	}
	for _, uc := range urgencyCounts {
		report.ByUrgency[uc.Level] = uc.Count
	}
	return report, nil
}

// UpdateStatus moves a ticket to a legacy or dynamic status. Any status
// change clears the sub-status unless a valid child of the new status is
// supplied; the legacy model never carries a sub-status because there is
// no dynamic parent to anchor it.
func (s *TicketService) UpdateStatus(ctx context.Context, admin *domain.Admin, ticketID string, input StatusInput) (*domain.Ticket, []DestinationOutcome, error) {
	ticket, err := s.Get(ctx, admin, ticketID)
	if err != nil {
		return nil, nil, err
	}

	var (
		legacy      domain.LegacyStatus
		statusID    *string
		substatusID *string
	)
	switch {
	case input.StatusID != nil:
		status, err := s.statuses.GetStatus(ctx, *input.StatusID)
		if err != nil {
			return nil, nil, apperrors.MapError(err)
		}
		if status.DepartmentID != ticket.DepartmentID {
			return nil, nil, apperrors.NewValidationError("status belongs to another department", nil)
		}
		if !status.IsActive {
			return nil, nil, apperrors.NewValidationError("status inactive", nil)
		}
		legacy = domain.StatusInProgress
		if status.IsFinal {
			legacy = domain.StatusResolved
		}
		statusID = &status.ID

		if input.SubstatusID != nil {
			sub, err := s.statuses.GetSubstatus(ctx, *input.SubstatusID)
			if err != nil {
				return nil, nil, apperrors.MapError(err)
			}
			if sub.StatusID != status.ID {
				return nil, nil, apperrors.NewValidationError("sub-status does not belong to status", nil)
			}
			substatusID = &sub.ID
		}
	case input.Status != nil:
		legacy = *input.Status
		if input.SubstatusID != nil {
			return nil, nil, apperrors.NewValidationError("sub-status requires a dynamic status", nil)
		}
	default:
		return nil, nil, apperrors.NewValidationError("status or status_id required", nil)
	}

	oldStatus := ticket.Status
	oldStatusID := ticket.StatusID
	oldSubstatusID := ticket.SubstatusID

	if err := s.tickets.UpdateStatus(ctx, ticket.ID, legacy, statusID, substatusID); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	ticket.Status = legacy
	ticket.StatusID = statusID
	ticket.SubstatusID = substatusID

	if err := s.recordAction(ctx, admin, domain.ActionUpdateStatus, domain.EntityTicket, ticket.ID,
		map[string]any{"status": oldStatus, "status_id": oldStatusID, "substatus_id": oldSubstatusID},
		map[string]any{"status": legacy, "status_id": statusID, "substatus_id": substatusID},
	); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketStatusChanged,
		TicketID:     ticket.ID,
		DepartmentID: ticket.DepartmentID,
		ActorID:      &admin.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:   oldStatus,
			NewStatus:   legacy,
			StatusID:    statusID,
			SubstatusID: substatusID,
		},
	})

	return ticket, s.pushField(ctx, ticket, SyncFieldStatus), nil
}

// SetDeadline stamps or clears the ticket deadline.
func (s *TicketService) SetDeadline(ctx context.Context, admin *domain.Admin, ticketID string, deadline *time.Time) (*domain.Ticket, []DestinationOutcome, error) {
	ticket, err := s.Get(ctx, admin, ticketID)
	if err != nil {
		return nil, nil, err
	}
	old := ticket.Deadline
	if err := s.tickets.UpdateDeadline(ctx, ticket.ID, deadline); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	ticket.Deadline = deadline

	if err := s.recordFieldAction(ctx, admin, ticket.ID, "deadline", old, deadline); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	s.publishFieldEvent(ctx, admin, ticket, "deadline", old, deadline)
	return ticket, s.pushField(ctx, ticket, SyncFieldDeadline), nil
}

// SetUrgencyLevel sets the 1-4 ordinal urgency.
func (s *TicketService) SetUrgencyLevel(ctx context.Context, admin *domain.Admin, ticketID string, level *int) (*domain.Ticket, []DestinationOutcome, error) {
	if level != nil && (*level < domain.UrgencyLow || *level > domain.UrgencyCritical) {
		return nil, nil, apperrors.NewValidationError("urgency level must be 1-4", nil)
	}
	ticket, err := s.Get(ctx, admin, ticketID)
	if err != nil {
		return nil, nil, err
	}
	old := ticket.UrgencyLevel
	if err := s.tickets.UpdateUrgencyLevel(ctx, ticket.ID, level); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	ticket.UrgencyLevel = level

	if err := s.recordFieldAction(ctx, admin, ticket.ID, "urgency_level", old, level); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	s.publishFieldEvent(ctx, admin, ticket, "urgency_level", old, level)
	return ticket, s.pushField(ctx, ticket, SyncFieldUrgency), nil
}

// Assign attaches an active employee of the owning department, or clears
// the assignment when employeeID is nil.
func (s *TicketService) Assign(ctx context.Context, admin *domain.Admin, ticketID string, employeeID *string) (*domain.Ticket, []DestinationOutcome, error) {
	ticket, err := s.Get(ctx, admin, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if employeeID != nil {
		employee, err := s.employees.GetByID(ctx, *employeeID)
		if err != nil {
			return nil, nil, apperrors.MapError(err)
		}
		if !employee.IsActive {
			return nil, nil, apperrors.NewValidationError("employee inactive", nil)
		}
		if employee.DepartmentID != ticket.DepartmentID {
			return nil, nil, apperrors.NewValidationError("employee belongs to another department", nil)
		}
	}

	old := ticket.AssigneeID
	if err := s.tickets.UpdateAssignee(ctx, ticket.ID, employeeID); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	ticket.AssigneeID = employeeID

	if err := s.recordFieldAction(ctx, admin, ticket.ID, "assignee", old, employeeID); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	s.publishFieldEvent(ctx, admin, ticket, "assignee", old, employeeID)
	return ticket, s.pushField(ctx, ticket, SyncFieldAssignee), nil
}

// SetFinalPhoto attaches the completion photo. Only terminal tickets
// accept one: legacy resolved, or a dynamic status flagged final.
func (s *TicketService) SetFinalPhoto(ctx context.Context, admin *domain.Admin, ticketID string, url *string) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, admin, ticketID)
	if err != nil {
		return nil, err
	}
	terminal := ticket.Status == domain.StatusResolved
	if !terminal && ticket.StatusID != nil {
		if status, err := s.statuses.GetStatus(ctx, *ticket.StatusID); err == nil && status.IsFinal {
			terminal = true
		}
	}
	if !terminal {
		return nil, apperrors.NewValidationError("final photo requires a terminal status", nil)
	}

	old := ticket.FinalPhotoURL
	if err := s.tickets.UpdateFinalPhoto(ctx, ticket.ID, url); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.FinalPhotoURL = url

	if err := s.recordFieldAction(ctx, admin, ticket.ID, "final_photo", old, url); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishFieldEvent(ctx, admin, ticket, "final_photo", old, url)
	return ticket, nil
}

// Redirect moves a ticket to another department. The department change,
// assignment clear and redirected-from stamp land in one statement; a
// second redirect overwrites redirected-from, keeping no chain.
func (s *TicketService) Redirect(ctx context.Context, admin *domain.Admin, ticketID, newDepartmentID string) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, admin, ticketID)
	if err != nil {
		return nil, err
	}
	if newDepartmentID == ticket.DepartmentID {
		return nil, apperrors.NewValidationError("ticket already in department", nil)
	}
	dept, err := s.departments.GetByID(ctx, newDepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewValidationError("department inactive", nil)
	}

	from := ticket.DepartmentID
	if err := s.tickets.Redirect(ctx, ticket.ID, dept.ID, from); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.DepartmentID = dept.ID
	ticket.RedirectedFrom = &from
	ticket.AssigneeID = nil

	if err := s.recordAction(ctx, admin, domain.ActionRedirect, domain.EntityTicket, ticket.ID,
		map[string]any{"department_id": from},
		map[string]any{"department_id": dept.ID},
	); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketRedirected,
		TicketID:     ticket.ID,
		DepartmentID: ticket.DepartmentID,
		ActorID:      &admin.ID,
		Payload: events.TicketRedirectedPayload{
			FromDepartmentID: from,
			ToDepartmentID:   dept.ID,
		},
	})
	return ticket, nil
}

// Delete removes the ticket from the store and then, independently
// best-effort, clears its row from both configured spreadsheets. Store
// deletion succeeds even when the spreadsheet clears fail.
func (s *TicketService) Delete(ctx context.Context, admin *domain.Admin, ticketID string) ([]DestinationOutcome, error) {
	ticket, err := s.Get(ctx, admin, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.recordAction(ctx, admin, domain.ActionDelete, domain.EntityTicket, ticket.ID,
		map[string]any{"department_id": ticket.DepartmentID},
		nil,
	); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketDeleted,
		TicketID:     ticket.ID,
		DepartmentID: ticket.DepartmentID,
		ActorID:      &admin.ID,
		Payload:      events.TicketDeletedPayload{DepartmentID: ticket.DepartmentID},
	})

	if s.syncer == nil {
		return nil, nil
	}
	return s.syncer.PushDelete(ctx, ticket.ID, ticket.DepartmentID), nil
}

// ClearAll purges every ticket from the store. Oversight only; the
// spreadsheets are left untouched (operators clear mirrors by hand or
// re-point the settings), so only the count is reported back.
func (s *TicketService) ClearAll(ctx context.Context, admin *domain.Admin) (int64, error) {
	if admin.Role != domain.AdminRoleOversight {
		return 0, apperrors.NewForbidden("only oversight can purge tickets")
	}
	count, err := s.tickets.Count(ctx, nil)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if err := s.tickets.ClearAll(ctx); err != nil {
		return 0, apperrors.MapError(err)
	}
	if err := s.recordAction(ctx, admin, domain.ActionDelete, domain.EntityTicket, "*",
		map[string]any{"count": count}, nil,
	); err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// History returns the audit trail entries for a ticket.
func (s *TicketService) History(ctx context.Context, admin *domain.Admin, ticketID string, limit, offset int) ([]domain.AdminAction, error) {
	if _, err := s.Get(ctx, admin, ticketID); err != nil {
		return nil, err
	}
	kind := domain.EntityTicket
	entries, err := s.actions.List(ctx, &kind, &ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) applyScope(filter *repository.TicketFilter, admin *domain.Admin) {
	if admin == nil || admin.Role == domain.AdminRoleOversight {
		return
	}
	if admin.DepartmentID != nil {
		filter.DepartmentID = admin.DepartmentID
	}
}

func (s *TicketService) pushField(ctx context.Context, ticket *domain.Ticket, field SyncField) []DestinationOutcome {
	if s.syncer == nil {
		return nil
	}
	return s.syncer.PushField(ctx, ticket, field)
}

func (s *TicketService) recordFieldAction(ctx context.Context, admin *domain.Admin, ticketID, field string, oldValue, newValue any) error {
	return s.recordAction(ctx, admin, domain.ActionUpdateField, domain.EntityTicket, ticketID,
		map[string]any{field: oldValue},
		map[string]any{field: newValue},
	)
}

func (s *TicketService) recordAction(ctx context.Context, admin *domain.Admin, kind domain.ActionKind, entity domain.EntityKind, entityID string, oldValue, newValue map[string]any) error {
	if s.actions == nil {
		return nil
	}
	action := &domain.AdminAction{
		ActionKind: kind,
		EntityKind: entity,
		EntityID:   entityID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if admin != nil {
		action.ActorID = &admin.ID
	}
	return s.actions.Append(ctx, action)
}

func (s *TicketService) publishFieldEvent(ctx context.Context, admin *domain.Admin, ticket *domain.Ticket, field string, oldValue, newValue any) {
	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketFieldChanged,
		TicketID:     ticket.ID,
		DepartmentID: ticket.DepartmentID,
		ActorID:      &admin.ID,
		Payload: events.TicketFieldChangedPayload{
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
