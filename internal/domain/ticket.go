package domain

import "time"

// FeedbackType enumerates the fixed categories a submitter chooses from.
type FeedbackType string

const (
	FeedbackTypeRemark     FeedbackType = "REMARK"
	FeedbackTypeSuggestion FeedbackType = "SUGGESTION"
	FeedbackTypeSafety     FeedbackType = "SAFETY"
	FeedbackTypeGratitude  FeedbackType = "GRATITUDE"
)

// Label returns the display name used in spreadsheets and chat messages.
func (t FeedbackType) Label() string {
	switch t {
	case FeedbackTypeRemark:
		return "Remark"
	case FeedbackTypeSuggestion:
		return "Suggestion"
	case FeedbackTypeSafety:
		return "Safety Issue"
	case FeedbackTypeGratitude:
		return "Gratitude"
	default:
		return string(t)
	}
}

// Emoji returns the chat marker for the type.
func (t FeedbackType) Emoji() string {
	switch t {
	case FeedbackTypeRemark:
		return "\U0001F4DD"
	case FeedbackTypeSuggestion:
		return "\U0001F4A1"
	case FeedbackTypeSafety:
		return "⚠️"
	case FeedbackTypeGratitude:
		return "\U0001F64F"
	default:
		return ""
	}
}

// Valid reports whether the type is one of the fixed categories.
func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackTypeRemark, FeedbackTypeSuggestion, FeedbackTypeSafety, FeedbackTypeGratitude:
		return true
	}
	return false
}

// AllFeedbackTypes lists the fixed categories in display order.
func AllFeedbackTypes() []FeedbackType {
	return []FeedbackType{FeedbackTypeRemark, FeedbackTypeSuggestion, FeedbackTypeSafety, FeedbackTypeGratitude}
}

// SubmitterRole identifies who is filing the feedback.
type SubmitterRole string

const (
	RoleEmployee   SubmitterRole = "EMPLOYEE"
	RoleContractor SubmitterRole = "CONTRACTOR"
	RoleVisitor    SubmitterRole = "VISITOR"
)

// Label returns the display name for the role.
func (r SubmitterRole) Label() string {
	switch r {
	case RoleEmployee:
		return "Employee"
	case RoleContractor:
		return "Contractor"
	case RoleVisitor:
		return "Visitor"
	default:
		return string(r)
	}
}

// Valid reports whether the role is known.
func (r SubmitterRole) Valid() bool {
	switch r {
	case RoleEmployee, RoleContractor, RoleVisitor:
		return true
	}
	return false
}

// AllSubmitterRoles lists the known roles in display order.
func AllSubmitterRoles() []SubmitterRole {
	return []SubmitterRole{RoleEmployee, RoleContractor, RoleVisitor}
}

// LegacyStatus is the fixed three-state lifecycle that predates the
// department-defined status taxonomy. Tickets without a dynamic status
// reference still live on this model.
type LegacyStatus string

const (
	StatusNew        LegacyStatus = "NEW"
	StatusInProgress LegacyStatus = "IN_PROGRESS"
	StatusResolved   LegacyStatus = "RESOLVED"
)

// Label returns the display name written to the spreadsheet status column.
func (s LegacyStatus) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	default:
		return string(s)
	}
}

// LegacyStatusFromLabel resolves a spreadsheet label back to the enum.
// Matching is case-insensitive; ok is false for unknown labels.
func LegacyStatusFromLabel(label string) (LegacyStatus, bool) {
	switch NormalizeLabel(label) {
	case "new":
		return StatusNew, true
	case "in progress":
		return StatusInProgress, true
	case "resolved":
		return StatusResolved, true
	}
	return "", false
}

// Urgency levels form a 1-4 ordinal; nil means unset.
const (
	UrgencyLow      = 1
	UrgencyMedium   = 2
	UrgencyHigh     = 3
	UrgencyCritical = 4
)

// MeetingsUrgencyFloor is the minimum urgency level that places a ticket
// in the meetings view bucket.
const MeetingsUrgencyFloor = UrgencyHigh

// UrgencyLabel returns the spreadsheet label for an urgency level.
func UrgencyLabel(level int) string {
	switch level {
	case UrgencyLow:
		return "Low"
	case UrgencyMedium:
		return "Medium"
	case UrgencyHigh:
		return "High"
	case UrgencyCritical:
		return "Critical"
	default:
		return ""
	}
}

// Ticket is one submitted feedback item and its administrative state.
// Role, type and message are immutable after submission; everything else
// is mutated only through admin dashboard operations.
type Ticket struct {
	ID           string
	DepartmentID string
	Role         SubmitterRole
	Type         FeedbackType
	Message      string
	Object       string
	Name         *string
	Contact      *string
	IsAnonymous  bool

	Status      LegacyStatus
	StatusID    *string
	SubstatusID *string

	AssigneeID     *string
	Deadline       *time.Time
	Urgency        string
	UrgencyLevel   *int
	RedirectedFrom *string
	AttachmentURL  *string
	FinalPhotoURL  *string
	ExternalTaskID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubmitterName is the name written to external destinations: the stored
// name, or "Anonymous" when the submitter opted out.
func (t *Ticket) SubmitterName() string {
	if t.IsAnonymous || t.Name == nil || *t.Name == "" {
		return "Anonymous"
	}
	return *t.Name
}
