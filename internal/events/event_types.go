package events

import (
	"time"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketFieldChanged  EventType = "ticket_field_changed"
	EventTicketRedirected    EventType = "ticket_redirected"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventTaxonomyChanged     EventType = "taxonomy_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketID     string      `json:"ticket_id,omitempty"`
	DepartmentID string      `json:"department_id"`
	ActorID      *string     `json:"actor_id,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Type    domain.FeedbackType  `json:"type"`
	Role    domain.SubmitterRole `json:"role"`
	Urgency string               `json:"urgency,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus     domain.LegacyStatus `json:"old_status"`
	NewStatus     domain.LegacyStatus `json:"new_status"`
	StatusID      *string             `json:"status_id,omitempty"`
	SubstatusID   *string             `json:"substatus_id,omitempty"`
	StatusName    string              `json:"status_name,omitempty"`
	SubstatusName string              `json:"substatus_name,omitempty"`
}

// TicketFieldChangedPayload payload for deadline/urgency/assignee/photo edits.
type TicketFieldChangedPayload struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value,omitempty"`
	NewValue any    `json:"new_value,omitempty"`
}

// TicketRedirectedPayload payload.
type TicketRedirectedPayload struct {
	FromDepartmentID string `json:"from_department_id"`
	ToDepartmentID   string `json:"to_department_id"`
}

// TicketDeletedPayload payload; carries what the row clears need since
// the store row is already gone when handlers run.
type TicketDeletedPayload struct {
	DepartmentID string `json:"department_id"`
}

// TaxonomyChangedPayload payload.
type TaxonomyChangedPayload struct {
	EntityKind domain.EntityKind `json:"entity_kind"`
	EntityID   string            `json:"entity_id"`
}
