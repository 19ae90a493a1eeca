package dto

import "time"

// UpdateStatusRequest changes a ticket's status. Either the legacy
// status value or a dynamic status id is given, never both.
type UpdateStatusRequest struct {
	Status      *string `json:"status"`
	StatusID    *string `json:"status_id"`
	SubstatusID *string `json:"substatus_id"`
}

// SetDeadlineRequest stamps or clears the deadline.
type SetDeadlineRequest struct {
	Deadline *time.Time `json:"deadline"`
}

// SetUrgencyRequest sets or clears the 1-4 urgency level.
type SetUrgencyRequest struct {
	Level *int `json:"level"`
}

// AssignRequest attaches or clears an assignee.
type AssignRequest struct {
	EmployeeID *string `json:"employee_id"`
}

// RedirectRequest moves the ticket to another department.
type RedirectRequest struct {
	DepartmentID string `json:"department_id"`
}

// SetFinalPhotoRequest attaches or clears the completion photo.
type SetFinalPhotoRequest struct {
	URL *string `json:"url"`
}

// TicketMutationResponse pairs the updated ticket with downstream
// destination outcomes.
type TicketMutationResponse struct {
	Ticket       TicketResponse    `json:"ticket"`
	Destinations []OutcomeResponse `json:"destinations,omitempty"`
}

// ActionLogEntry is one audit trail row.
type ActionLogEntry struct {
	ID         string         `json:"id"`
	ActorID    *string        `json:"actor_id,omitempty"`
	ActionKind string         `json:"action_kind"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	OldValue   map[string]any `json:"old_value,omitempty"`
	NewValue   map[string]any `json:"new_value,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ReportResponse aggregates ticket counts by type and urgency over a
// range. Urgency keys are the display labels; "Unset" collects tickets
// without an urgency level.
type ReportResponse struct {
	DepartmentID string           `json:"department_id"`
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	ByType       map[string]int64 `json:"by_type"`
	ByUrgency    map[string]int64 `json:"by_urgency"`
	Total        int64            `json:"total"`
}
