package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/sheets"
)

// SyncField names the ticket fields mirrored outbound on change.
type SyncField string

const (
	SyncFieldStatus   SyncField = "status"
	SyncFieldDeadline SyncField = "deadline"
	SyncFieldUrgency  SyncField = "urgency"
	SyncFieldAssignee SyncField = "assignee"
)

// Syncer pushes ticket state into the mirrored spreadsheets.
type Syncer interface {
	PushCreate(ctx context.Context, ticket *domain.Ticket) []DestinationOutcome
	PushField(ctx context.Context, ticket *domain.Ticket, field SyncField) []DestinationOutcome
	PushDelete(ctx context.Context, ticketID, departmentID string) []DestinationOutcome
}

// SyncService is the bidirectional spreadsheet glue: it pushes field
// changes to the owning department's sheet and the oversight sheet, and
// pulls status/sub-status columns back in on demand.
type SyncService struct {
	tickets      repository.TicketRepository
	statuses     repository.StatusRepository
	departments  repository.DepartmentRepository
	employees    repository.EmployeeRepository
	settings     repository.SettingsRepository
	sheetFactory sheets.Factory
	logger       *zap.Logger
}

// SyncDependencies bundles what the sync service needs.
type SyncDependencies struct {
	TicketRepo     repository.TicketRepository
	StatusRepo     repository.StatusRepository
	DepartmentRepo repository.DepartmentRepository
	EmployeeRepo   repository.EmployeeRepository
	SettingsRepo   repository.SettingsRepository
	SheetFactory   sheets.Factory
	Logger         *zap.Logger
}

// NewSyncService constructs the service.
func NewSyncService(deps SyncDependencies) *SyncService {
	return &SyncService{
		tickets:      deps.TicketRepo,
		statuses:     deps.StatusRepo,
		departments:  deps.DepartmentRepo,
		employees:    deps.EmployeeRepo,
		settings:     deps.SettingsRepo,
		sheetFactory: deps.SheetFactory,
		logger:       deps.Logger,
	}
}

type sheetDestination struct {
	departmentID   string
	departmentName string
	creds          domain.SheetCredentials
}

// destinations resolves the owning department's sheet and, when the
// owner is not the oversight department, the oversight sheet. Unconfigured
// sheets are reported as skipped outcomes by the callers.
func (s *SyncService) destinations(ctx context.Context, departmentID string) ([]sheetDestination, []DestinationOutcome, error) {
	owner, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, nil, err
	}

	candidates := []*domain.Department{owner}
	if !owner.IsOversight {
		oversight, err := s.departments.GetOversight(ctx)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, err
		}
		if oversight != nil {
			candidates = append(candidates, oversight)
		}
	}

	var dests []sheetDestination
	var skipped []DestinationOutcome
	for _, dept := range candidates {
		settings, err := s.settings.Get(ctx, dept.ID)
		if err != nil {
			return nil, nil, err
		}
		if !settings.SheetConfigured() {
			skipped = append(skipped, skippedOutcome(dept.ID, DestinationSheet, "sheet not configured"))
			continue
		}
		dests = append(dests, sheetDestination{
			departmentID:   dept.ID,
			departmentName: dept.Name,
			creds:          *settings.Sheet,
		})
	}
	return dests, skipped, nil
}

// PushCreate appends the full 16-column row to each configured sheet.
func (s *SyncService) PushCreate(ctx context.Context, ticket *domain.Ticket) []DestinationOutcome {
	dests, outcomes, err := s.destinations(ctx, ticket.DepartmentID)
	if err != nil {
		s.logger.Warn("resolve sheet destinations failed", zap.Error(err))
		return append(outcomes, failedOutcome(ticket.DepartmentID, DestinationSheet, err))
	}

	statusLabel, substatusLabel := s.statusLabels(ctx, ticket)
	assigneeName := s.assigneeName(ctx, ticket)

	for _, dest := range dests {
		client, err := s.sheetFactory(ctx, dest.creds, false)
		if err != nil {
			outcomes = append(outcomes, failedOutcome(dest.departmentID, DestinationSheet, err))
			continue
		}
		row := sheets.TicketRow(ticket, dest.departmentName, statusLabel, substatusLabel, assigneeName)
		if err := client.AppendRow(ctx, row); err != nil {
			s.logger.Warn("sheet append failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("department_id", dest.departmentID),
				zap.Error(err))
			outcomes = append(outcomes, failedOutcome(dest.departmentID, DestinationSheet, err))
			continue
		}
		outcomes = append(outcomes, syncedOutcome(dest.departmentID, DestinationSheet))
	}
	return outcomes
}

// Resync rewrites the ticket's full row in each configured sheet,
// appending it where it is missing. This is the manual retry path for
// tickets whose earlier pushes failed or whose rows were hand-edited.
func (s *SyncService) Resync(ctx context.Context, ticket *domain.Ticket) []DestinationOutcome {
	dests, outcomes, err := s.destinations(ctx, ticket.DepartmentID)
	if err != nil {
		s.logger.Warn("resolve sheet destinations failed", zap.Error(err))
		return append(outcomes, failedOutcome(ticket.DepartmentID, DestinationSheet, err))
	}

	statusLabel, substatusLabel := s.statusLabels(ctx, ticket)
	assigneeName := s.assigneeName(ctx, ticket)

	for _, dest := range dests {
		client, err := s.sheetFactory(ctx, dest.creds, false)
		if err != nil {
			outcomes = append(outcomes, failedOutcome(dest.departmentID, DestinationSheet, err))
			continue
		}
		values := sheets.TicketRow(ticket, dest.departmentName, statusLabel, substatusLabel, assigneeName)

		row, found, err := client.FindRow(ctx, ticket.ID)
		if err != nil {
			outcomes = append(outcomes, failedOutcome(dest.departmentID, DestinationSheet, err))
			continue
		}
		if found {
			err = client.UpdateCells(ctx, sheets.RowRange(row), [][]interface{}{values})
		} else {
			err = client.AppendRow(ctx, values)
		}
		if err != nil {
			s.logger.Warn("sheet resync failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("department_id", dest.departmentID),
				zap.Error(err))
			outcomes = append(outcomes, failedOutcome(dest.departmentID, DestinationSheet, err))
			continue
		}
		outcomes = append(outcomes, syncedOutcome(dest.departmentID, DestinationSheet))
	}
	return outcomes
}

// PushField reflects one changed field (the status/sub-status pair counts
// as one) into each configured sheet. A ticket ID absent from a sheet is
// a skipped outcome, never an error: the row may not have been synced
// outbound yet.
func (s *SyncService) PushField(ctx context.Context, ticket *domain.Ticket, field SyncField) []DestinationOutcome {
	dests, outcomes, err := s.destinations(ctx, ticket.DepartmentID)
	if err != nil {
		s.logger.Warn("resolve sheet destinations failed", zap.Error(err))
		return append(outcomes, failedOutcome(ticket.DepartmentID, DestinationSheet, err))
	}

	for _, dest := range dests {
		outcome := s.pushFieldTo(ctx, dest, ticket, field)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *SyncService) pushFieldTo(ctx context.Context, dest sheetDestination, ticket *domain.Ticket, field SyncField) DestinationOutcome {
	client, err := s.sheetFactory(ctx, dest.creds, false)
	if err != nil {
		return failedOutcome(dest.departmentID, DestinationSheet, err)
	}
	row, found, err := client.FindRow(ctx, ticket.ID)
	if err != nil {
		return failedOutcome(dest.departmentID, DestinationSheet, err)
	}
	if !found {
		return skippedOutcome(dest.departmentID, DestinationSheet, "ticket row not present in sheet")
	}

	var rangeA1 string
	var values [][]interface{}
	switch field {
	case SyncFieldStatus:
		statusLabel, substatusLabel := s.statusLabels(ctx, ticket)
		rangeA1 = sheets.StatusRange(row)
		values = [][]interface{}{{statusLabel, substatusLabel}}
	case SyncFieldDeadline:
		deadline := ""
		if ticket.Deadline != nil {
			deadline = ticket.Deadline.Format("2006-01-02")
		}
		rangeA1 = sheets.DeadlineCell(row)
		values = [][]interface{}{{deadline}}
	case SyncFieldUrgency:
		label := ""
		if ticket.UrgencyLevel != nil {
			label = domain.UrgencyLabel(*ticket.UrgencyLevel)
		}
		rangeA1 = sheets.UrgencyCell(row)
		values = [][]interface{}{{label}}
	case SyncFieldAssignee:
		rangeA1 = sheets.AssigneeCell(row)
		values = [][]interface{}{{s.assigneeName(ctx, ticket)}}
	default:
		return skippedOutcome(dest.departmentID, DestinationSheet, "field not mirrored")
	}

	if err := client.UpdateCells(ctx, rangeA1, values); err != nil {
		s.logger.Warn("sheet cell update failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("range", rangeA1),
			zap.Error(err))
		return failedOutcome(dest.departmentID, DestinationSheet, err)
	}
	return syncedOutcome(dest.departmentID, DestinationSheet)
}

// PushDelete clears the ticket's row from each configured sheet. The
// store deletion has already happened; every outcome here is advisory.
func (s *SyncService) PushDelete(ctx context.Context, ticketID, departmentID string) []DestinationOutcome {
	dests, outcomes, err := s.destinations(ctx, departmentID)
	if err != nil {
		s.logger.Warn("resolve sheet destinations failed", zap.Error(err))
		return append(outcomes, failedOutcome(departmentID, DestinationSheet, err))
	}

	for _, dest := range dests {
		client, err := s.sheetFactory(ctx, dest.creds, false)
		if err != nil {
			outcomes = append(outcomes, failedOutcome(dest.departmentID, DestinationSheet, err))
			continue
		}
		row, found, err := client.FindRow(ctx, ticketID)
		if err != nil {
			outcomes = append(outcomes, failedOutcome(dest.departmentID, DestinationSheet, err))
			continue
		}
		if !found {
			outcomes = append(outcomes, skippedOutcome(dest.departmentID, DestinationSheet, "ticket row not present in sheet"))
			continue
		}
		if err := client.ClearRow(ctx, row); err != nil {
			outcomes = append(outcomes, failedOutcome(dest.departmentID, DestinationSheet, err))
			continue
		}
		outcomes = append(outcomes, syncedOutcome(dest.departmentID, DestinationSheet))
	}
	return outcomes
}

// PullStatuses reads the department sheet's ID/status/sub-status columns
// and reconciles them into the store. Sheet text resolves against the
// department's active dynamic statuses case-insensitively, falling back
// to the legacy three-label map. A sub-status that does not belong to
// the resolved status is discarded, not rejected. Rows whose ID is
// unknown, or whose ticket belongs to another department, are skipped.
// This is last-writer-wins: a sheet edit always overrides the store,
// and two concurrent runs are not deduplicated.
func (s *SyncService) PullStatuses(ctx context.Context, departmentID string) (int, error) {
	settings, err := s.settings.Get(ctx, departmentID)
	if err != nil {
		return 0, err
	}
	if !settings.SheetConfigured() {
		return 0, nil
	}

	client, err := s.sheetFactory(ctx, *settings.Sheet, true)
	if err != nil {
		return 0, err
	}
	rows, err := client.ReadStatusColumns(ctx)
	if err != nil {
		return 0, err
	}

	statuses, err := s.statuses.ListByDepartment(ctx, departmentID, true)
	if err != nil {
		return 0, err
	}
	statusByName := make(map[string]domain.DynamicStatus, len(statuses))
	for _, st := range statuses {
		statusByName[domain.NormalizeLabel(st.Name)] = st
	}

	changed := 0
	for _, row := range rows {
		ticket, err := s.tickets.GetByID(ctx, row.TicketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return changed, err
		}
		if ticket.DepartmentID != departmentID {
			continue
		}

		legacy, statusID, substatusID, ok := s.resolveRow(ctx, row, statusByName)
		if !ok {
			continue
		}
		if ticket.Status == legacy && strPtrEqual(ticket.StatusID, statusID) && strPtrEqual(ticket.SubstatusID, substatusID) {
			continue
		}
		if err := s.tickets.UpdateStatus(ctx, ticket.ID, legacy, statusID, substatusID); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

func (s *SyncService) resolveRow(ctx context.Context, row sheets.StatusRow, statusByName map[string]domain.DynamicStatus) (domain.LegacyStatus, *string, *string, bool) {
	if st, ok := statusByName[domain.NormalizeLabel(row.Status)]; ok {
		legacy := domain.StatusInProgress
		if st.IsFinal {
			legacy = domain.StatusResolved
		}
		statusID := st.ID

		var substatusID *string
		if row.Substatus != "" {
			subs, err := s.statuses.ListSubstatuses(ctx, st.ID, true)
			if err != nil {
				s.logger.Warn("list substatuses failed", zap.String("status_id", st.ID), zap.Error(err))
			} else {
				for _, sub := range subs {
					if domain.NormalizeLabel(sub.Name) == domain.NormalizeLabel(row.Substatus) {
						id := sub.ID
						substatusID = &id
						break
					}
				}
			}
		}
		return legacy, &statusID, substatusID, true
	}

	if legacy, ok := domain.LegacyStatusFromLabel(row.Status); ok {
		// Legacy model carries no dynamic references; the sub-status
		// column is meaningless without a dynamic parent and is dropped.
		return legacy, nil, nil, true
	}
	return "", nil, nil, false
}

func (s *SyncService) statusLabels(ctx context.Context, ticket *domain.Ticket) (string, string) {
	statusLabel := ticket.Status.Label()
	substatusLabel := ""
	if ticket.StatusID != nil {
		if st, err := s.statuses.GetStatus(ctx, *ticket.StatusID); err == nil {
			statusLabel = st.Name
		}
	}
	if ticket.SubstatusID != nil {
		if sub, err := s.statuses.GetSubstatus(ctx, *ticket.SubstatusID); err == nil {
			substatusLabel = sub.Name
		}
	}
	return statusLabel, substatusLabel
}

func (s *SyncService) assigneeName(ctx context.Context, ticket *domain.Ticket) string {
	if ticket.AssigneeID == nil {
		return ""
	}
	employee, err := s.employees.GetByID(ctx, *ticket.AssigneeID)
	if err != nil {
		return ""
	}
	return employee.Name
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
