package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/events"
	"github.com/spec-kit/feedback-service/internal/repository"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// TaxonomyService manages per-department dynamic statuses and their
// sub-statuses.
type TaxonomyService struct {
	statuses   repository.StatusRepository
	actions    repository.ActionLogRepository
	dispatcher events.Dispatcher
}

// NewTaxonomyService constructs the service.
func NewTaxonomyService(statuses repository.StatusRepository, actions repository.ActionLogRepository, dispatcher events.Dispatcher) *TaxonomyService {
	return &TaxonomyService{statuses: statuses, actions: actions, dispatcher: dispatcher}
}

// ListStatuses returns a department's statuses ordered by position. Admin
// views include inactive entries; intake-facing callers pass activeOnly.
func (s *TaxonomyService) ListStatuses(ctx context.Context, admin *domain.Admin, departmentID string, activeOnly bool) ([]domain.DynamicStatus, error) {
	if admin != nil && !admin.CanAccessDepartment(departmentID) {
		return nil, apperrors.NewForbidden("department outside admin scope")
	}
	statuses, err := s.statuses.ListByDepartment(ctx, departmentID, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return statuses, nil
}

// CreateStatus appends a named status to a department's ladder.
func (s *TaxonomyService) CreateStatus(ctx context.Context, admin *domain.Admin, departmentID, name string, isFinal bool) (*domain.DynamicStatus, error) {
	if !admin.CanAccessDepartment(departmentID) {
		return nil, apperrors.NewForbidden("department outside admin scope")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("status name required", nil)
	}
	status := &domain.DynamicStatus{
		DepartmentID: departmentID,
		Name:         name,
		IsFinal:      isFinal,
	}
	if err := s.statuses.CreateStatus(ctx, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, admin, domain.ActionCreate, domain.EntityStatus, status.ID, nil, map[string]any{"name": name, "is_final": isFinal})
	s.publish(ctx, status.DepartmentID, domain.EntityStatus, status.ID)
	return status, nil
}

// RenameStatus updates the name and/or final flag of a status.
func (s *TaxonomyService) RenameStatus(ctx context.Context, admin *domain.Admin, statusID string, name *string, isFinal *bool) (*domain.DynamicStatus, error) {
	status, err := s.ownedStatus(ctx, admin, statusID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.NewValidationError("status name required", nil)
		}
		name = &trimmed
	}
	old := map[string]any{"name": status.Name, "is_final": status.IsFinal}
	if err := s.statuses.UpdateStatus(ctx, statusID, name, isFinal); err != nil {
		return nil, apperrors.MapError(err)
	}
	if name != nil {
		status.Name = *name
	}
	if isFinal != nil {
		status.IsFinal = *isFinal
	}
	s.audit(ctx, admin, domain.ActionUpdateField, domain.EntityStatus, status.ID, old, map[string]any{"name": status.Name, "is_final": status.IsFinal})
	s.publish(ctx, status.DepartmentID, domain.EntityStatus, status.ID)
	return status, nil
}

// ToggleStatus flips a status between active and inactive. Inactive
// statuses stay on tickets that already carry them but stop being
// assignable.
func (s *TaxonomyService) ToggleStatus(ctx context.Context, admin *domain.Admin, statusID string) (*domain.DynamicStatus, error) {
	status, err := s.ownedStatus(ctx, admin, statusID)
	if err != nil {
		return nil, err
	}
	if err := s.statuses.ToggleStatus(ctx, statusID); err != nil {
		return nil, apperrors.MapError(err)
	}
	old := status.IsActive
	status.IsActive = !status.IsActive
	s.audit(ctx, admin, domain.ActionToggle, domain.EntityStatus, status.ID,
		map[string]any{"is_active": old}, map[string]any{"is_active": status.IsActive})
	s.publish(ctx, status.DepartmentID, domain.EntityStatus, status.ID)
	return status, nil
}

// DeleteStatus removes a status and its sub-statuses. Deletion is
// refused while any ticket still references the status; deactivate
// instead.
func (s *TaxonomyService) DeleteStatus(ctx context.Context, admin *domain.Admin, statusID string) error {
	status, err := s.ownedStatus(ctx, admin, statusID)
	if err != nil {
		return err
	}
	if err := s.statuses.DeleteStatus(ctx, statusID); err != nil {
		if errors.Is(err, repository.ErrStatusInUse) {
			return apperrors.NewConflict("status still referenced by tickets", nil)
		}
		return apperrors.MapError(err)
	}
	s.audit(ctx, admin, domain.ActionDelete, domain.EntityStatus, statusID, map[string]any{"name": status.Name}, nil)
	s.publish(ctx, status.DepartmentID, domain.EntityStatus, statusID)
	return nil
}

// ListSubstatuses returns a status's sub-statuses ordered by position.
func (s *TaxonomyService) ListSubstatuses(ctx context.Context, admin *domain.Admin, statusID string, activeOnly bool) ([]domain.DynamicSubstatus, error) {
	if _, err := s.ownedStatus(ctx, admin, statusID); err != nil {
		return nil, err
	}
	subs, err := s.statuses.ListSubstatuses(ctx, statusID, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return subs, nil
}

// CreateSubstatus appends a sub-status under a status.
func (s *TaxonomyService) CreateSubstatus(ctx context.Context, admin *domain.Admin, statusID, name string) (*domain.DynamicSubstatus, error) {
	if _, err := s.ownedStatus(ctx, admin, statusID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("sub-status name required", nil)
	}
	sub := &domain.DynamicSubstatus{StatusID: statusID, Name: name}
	if err := s.statuses.CreateSubstatus(ctx, sub); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit(ctx, admin, domain.ActionCreate, domain.EntitySubstatus, sub.ID, nil, map[string]any{"name": name, "status_id": statusID})
	s.publishForStatus(ctx, admin, statusID, domain.EntitySubstatus, sub.ID)
	return sub, nil
}

// RenameSubstatus updates a sub-status name.
func (s *TaxonomyService) RenameSubstatus(ctx context.Context, admin *domain.Admin, substatusID, name string) (*domain.DynamicSubstatus, error) {
	sub, err := s.ownedSubstatus(ctx, admin, substatusID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("sub-status name required", nil)
	}
	old := sub.Name
	if err := s.statuses.UpdateSubstatus(ctx, substatusID, &name); err != nil {
		return nil, apperrors.MapError(err)
	}
	sub.Name = name
	s.audit(ctx, admin, domain.ActionUpdateField, domain.EntitySubstatus, sub.ID,
		map[string]any{"name": old}, map[string]any{"name": name})
	s.publishForStatus(ctx, admin, sub.StatusID, domain.EntitySubstatus, sub.ID)
	return sub, nil
}

// ToggleSubstatus flips a sub-status between active and inactive.
func (s *TaxonomyService) ToggleSubstatus(ctx context.Context, admin *domain.Admin, substatusID string) (*domain.DynamicSubstatus, error) {
	sub, err := s.ownedSubstatus(ctx, admin, substatusID)
	if err != nil {
		return nil, err
	}
	if err := s.statuses.ToggleSubstatus(ctx, substatusID); err != nil {
		return nil, apperrors.MapError(err)
	}
	old := sub.IsActive
	sub.IsActive = !sub.IsActive
	s.audit(ctx, admin, domain.ActionToggle, domain.EntitySubstatus, sub.ID,
		map[string]any{"is_active": old}, map[string]any{"is_active": sub.IsActive})
	s.publishForStatus(ctx, admin, sub.StatusID, domain.EntitySubstatus, sub.ID)
	return sub, nil
}

// DeleteSubstatus removes a sub-status, first detaching it from any
// tickets that still reference it.
func (s *TaxonomyService) DeleteSubstatus(ctx context.Context, admin *domain.Admin, substatusID string) error {
	sub, err := s.ownedSubstatus(ctx, admin, substatusID)
	if err != nil {
		return err
	}
	if err := s.statuses.DeleteSubstatus(ctx, substatusID); err != nil {
		return apperrors.MapError(err)
	}
	s.audit(ctx, admin, domain.ActionDelete, domain.EntitySubstatus, substatusID, map[string]any{"name": sub.Name}, nil)
	s.publishForStatus(ctx, admin, sub.StatusID, domain.EntitySubstatus, substatusID)
	return nil
}

func (s *TaxonomyService) ownedStatus(ctx context.Context, admin *domain.Admin, statusID string) (*domain.DynamicStatus, error) {
	status, err := s.statuses.GetStatus(ctx, statusID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if admin != nil && !admin.CanAccessDepartment(status.DepartmentID) {
		return nil, apperrors.NewForbidden("status outside admin department")
	}
	return status, nil
}

func (s *TaxonomyService) ownedSubstatus(ctx context.Context, admin *domain.Admin, substatusID string) (*domain.DynamicSubstatus, error) {
	sub, err := s.statuses.GetSubstatus(ctx, substatusID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := s.ownedStatus(ctx, admin, sub.StatusID); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *TaxonomyService) audit(ctx context.Context, admin *domain.Admin, kind domain.ActionKind, entity domain.EntityKind, entityID string, oldValue, newValue map[string]any) {
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
	if admin != nil {
		action.ActorID = &admin.ID
	}
	_ = s.actions.Append(ctx, action)
}

func (s *TaxonomyService) publish(ctx context.Context, departmentID string, entity domain.EntityKind, entityID string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:           uuid.NewString(),
		Type:         events.EventTaxonomyChanged,
		DepartmentID: departmentID,
		Timestamp:    time.Now(),
		Payload:      events.TaxonomyChangedPayload{EntityKind: entity, EntityID: entityID},
	})
}

func (s *TaxonomyService) publishForStatus(ctx context.Context, admin *domain.Admin, statusID string, entity domain.EntityKind, entityID string) {
	status, err := s.ownedStatus(ctx, admin, statusID)
	if err != nil {
		return
	}
	s.publish(ctx, status.DepartmentID, entity, entityID)
}
