package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/feedback-service/internal/chat"
	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
)

// Notifier fans a ticket-created message out to chat destinations.
type Notifier interface {
	NotifyCreated(ctx context.Context, ticket *domain.Ticket) []DestinationOutcome
}

// NotificationService posts creation notices to the owning department's
// chat and the oversight chat. Each POST is independent best-effort:
// failures are logged and reported in the outcome list, never surfaced
// to the submitter.
type NotificationService struct {
	departments repository.DepartmentRepository
	settings    repository.SettingsRepository
	sender      chat.Sender
	logger      *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(departments repository.DepartmentRepository, settings repository.SettingsRepository, sender chat.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		departments: departments,
		settings:    settings,
		sender:      sender,
		logger:      logger,
	}
}

// NotifyCreated formats the fixed template and posts it to every
// configured chat destination for the ticket.
func (n *NotificationService) NotifyCreated(ctx context.Context, ticket *domain.Ticket) []DestinationOutcome {
	owner, err := n.departments.GetByID(ctx, ticket.DepartmentID)
	if err != nil {
		n.logger.Warn("resolve department failed", zap.Error(err))
		return []DestinationOutcome{failedOutcome(ticket.DepartmentID, DestinationChat, err)}
	}

	candidates := []*domain.Department{owner}
	if !owner.IsOversight {
		oversight, err := n.departments.GetOversight(ctx)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			n.logger.Warn("resolve oversight department failed", zap.Error(err))
		}
		if oversight != nil {
			candidates = append(candidates, oversight)
		}
	}

	text := chat.FormatTicketMessage(ticket, owner.Name)

	var outcomes []DestinationOutcome
	for _, dept := range candidates {
		settings, err := n.settings.Get(ctx, dept.ID)
		if err != nil {
			outcomes = append(outcomes, failedOutcome(dept.ID, DestinationChat, err))
			continue
		}
		if !settings.ChatConfigured() {
			outcomes = append(outcomes, skippedOutcome(dept.ID, DestinationChat, "chat not configured"))
			continue
		}
		if err := n.sender.SendMessage(ctx, *settings.Chat, text); err != nil {
			n.logger.Warn("chat notification failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("department_id", dept.ID),
				zap.Error(err))
			outcomes = append(outcomes, failedOutcome(dept.ID, DestinationChat, err))
			continue
		}
		outcomes = append(outcomes, syncedOutcome(dept.ID, DestinationChat))
	}
	return outcomes
}
