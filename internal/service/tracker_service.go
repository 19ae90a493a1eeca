package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/tracker"
)

// TrackerService creates external tracker tasks for tickets and polls
// their remote status back into the store.
type TrackerService struct {
	tickets     repository.TicketRepository
	departments repository.DepartmentRepository
	settings    repository.SettingsRepository
	api         tracker.API
	concurrency int
	logger      *zap.Logger
}

// NewTrackerService constructs the service. concurrency bounds the
// parallel status polls of SyncDepartment.
func NewTrackerService(tickets repository.TicketRepository, departments repository.DepartmentRepository, settings repository.SettingsRepository, api tracker.API, concurrency int, logger *zap.Logger) *TrackerService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &TrackerService{
		tickets:     tickets,
		departments: departments,
		settings:    settings,
		api:         api,
		concurrency: concurrency,
		logger:      logger,
	}
}

// CreateTask posts the ticket as a task to the owning department's
// webhook and stores the returned external id. An unset webhook is a
// skipped outcome.
func (s *TrackerService) CreateTask(ctx context.Context, ticketID string) (*domain.Ticket, DestinationOutcome, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, DestinationOutcome{}, err
	}
	settings, err := s.settings.Get(ctx, ticket.DepartmentID)
	if err != nil {
		return nil, DestinationOutcome{}, err
	}
	if !settings.TrackerConfigured() {
		return ticket, skippedOutcome(ticket.DepartmentID, DestinationTracker, "tracker webhook not configured"), nil
	}

	dept, err := s.departments.GetByID(ctx, ticket.DepartmentID)
	if err != nil {
		return nil, DestinationOutcome{}, err
	}

	payload := tracker.BuildTaskPayload(ticket, dept.Name)
	taskID, err := s.api.CreateTask(ctx, *settings.TrackerWebhookURL, payload)
	if err != nil {
		s.logger.Warn("tracker task creation failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return ticket, failedOutcome(ticket.DepartmentID, DestinationTracker, err), nil
	}

	if err := s.tickets.UpdateExternalTask(ctx, ticket.ID, &taskID); err != nil {
		return nil, DestinationOutcome{}, err
	}
	ticket.ExternalTaskID = &taskID
	return ticket, syncedOutcome(ticket.DepartmentID, DestinationTracker), nil
}

// SyncDepartment polls the remote status of every ticket in the
// department that carries an external task id, with bounded concurrency,
// and overwrites the store's legacy status when the mapped value
// differs. Last-writer-wins, same as the spreadsheet pull. Returns the
// number of tickets changed; individual poll failures are logged and
// counted, not fatal.
func (s *TrackerService) SyncDepartment(ctx context.Context, departmentID string) (changed int, failed int, err error) {
	settings, err := s.settings.Get(ctx, departmentID)
	if err != nil {
		return 0, 0, err
	}
	if !settings.TrackerConfigured() {
		return 0, 0, nil
	}
	webhookURL := *settings.TrackerWebhookURL

	tickets, err := s.tickets.ListWithExternalTask(ctx, departmentID)
	if err != nil {
		return 0, 0, err
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, s.concurrency)
	)
	for i := range tickets {
		ticket := tickets[i]
		wg.Add(1)
		semaphore <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			didChange, pollErr := s.syncTicket(ctx, webhookURL, &ticket)
			mu.Lock()
			defer mu.Unlock()
			if pollErr != nil {
				failed++
				return
			}
			if didChange {
				changed++
			}
		}()
	}
	wg.Wait()
	return changed, failed, nil
}

func (s *TrackerService) syncTicket(ctx context.Context, webhookURL string, ticket *domain.Ticket) (bool, error) {
	code, err := s.api.GetTaskStatus(ctx, webhookURL, *ticket.ExternalTaskID)
	if err != nil {
		s.logger.Warn("tracker status poll failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("task_id", *ticket.ExternalTaskID),
			zap.Error(err))
		return false, err
	}

	status, ok := tracker.StatusForCode(code)
	if !ok || status == ticket.Status {
		return false, nil
	}

	// The tracker speaks the legacy model only; moving a ticket there
	// drops its dynamic references, and sub-status cannot outlive a
	// status change.
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, status, nil, nil); err != nil {
		s.logger.Warn("tracker status apply failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return false, err
	}
	return true, nil
}
