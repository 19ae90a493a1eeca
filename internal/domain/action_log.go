package domain

import "time"

// ActionKind identifies what an admin did.
type ActionKind string

const (
	ActionCreate       ActionKind = "CREATE"
	ActionUpdateStatus ActionKind = "UPDATE_STATUS"
	ActionUpdateField  ActionKind = "UPDATE_FIELD"
	ActionRedirect     ActionKind = "REDIRECT"
	ActionDelete       ActionKind = "DELETE"
	ActionToggle       ActionKind = "TOGGLE_ACTIVE"
)

// EntityKind identifies what the action touched.
type EntityKind string

const (
	EntityTicket     EntityKind = "TICKET"
	EntityStatus     EntityKind = "STATUS"
	EntitySubstatus  EntityKind = "SUBSTATUS"
	EntityEmployee   EntityKind = "EMPLOYEE"
	EntitySettings   EntityKind = "SETTINGS"
	EntityAdmin      EntityKind = "ADMIN"
	EntityDepartment EntityKind = "DEPARTMENT"
)

// AdminAction is an append-only audit trail entry. Entries are never
// mutated or deleted.
type AdminAction struct {
	ID         string
	ActorID    *string
	ActionKind ActionKind
	EntityKind EntityKind
	EntityID   string
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
