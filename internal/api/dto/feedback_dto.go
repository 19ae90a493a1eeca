package dto

import (
	"time"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// SubmitFeedbackRequest is the public intake payload.
type SubmitFeedbackRequest struct {
	DepartmentID  string `json:"department_id"`
	Role          string `json:"role"`
	Type          string `json:"type"`
	Message       string `json:"message"`
	Object        string `json:"object"`
	Name          string `json:"name"`
	Contact       string `json:"contact"`
	IsAnonymous   bool   `json:"is_anonymous"`
	Urgency       string `json:"urgency"`
	AttachmentURL string `json:"attachment_url"`
}

// SubmitFeedbackResponse acknowledges intake and reports where the
// ticket landed downstream.
type SubmitFeedbackResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Destinations []OutcomeResponse `json:"destinations,omitempty"`
}

// OutcomeResponse reports one downstream destination result.
type OutcomeResponse struct {
	DepartmentID string `json:"department_id"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
}

// DepartmentResponse is the intake department picker entry.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	IsOversight bool   `json:"is_oversight"`
}

// FeedbackMetaResponse lists the valid intake enumerations.
type FeedbackMetaResponse struct {
	Types       []FeedbackTypeEntry  `json:"types"`
	Roles       []string             `json:"roles"`
	Departments []DepartmentResponse `json:"departments"`
}

// FeedbackTypeEntry pairs a type value with its display label.
type FeedbackTypeEntry struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TicketResponse is the admin-facing ticket view.
type TicketResponse struct {
	ID             string     `json:"id"`
	DepartmentID   string     `json:"department_id"`
	Role           string     `json:"role"`
	Type           string     `json:"type"`
	Message        string     `json:"message"`
	Object         string     `json:"object,omitempty"`
	Name           string     `json:"name"`
	Contact        *string    `json:"contact,omitempty"`
	IsAnonymous    bool       `json:"is_anonymous"`
	Status         string     `json:"status"`
	StatusID       *string    `json:"status_id,omitempty"`
	SubstatusID    *string    `json:"substatus_id,omitempty"`
	AssigneeID     *string    `json:"assignee_id,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Urgency        string     `json:"urgency,omitempty"`
	UrgencyLevel   *int       `json:"urgency_level,omitempty"`
	UrgencyLabel   string     `json:"urgency_label,omitempty"`
	RedirectedFrom *string    `json:"redirected_from,omitempty"`
	AttachmentURL  *string    `json:"attachment_url,omitempty"`
	FinalPhotoURL  *string    `json:"final_photo_url,omitempty"`
	ExternalTaskID *string    `json:"external_task_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket to its API shape. The submitter
// name collapses to "Anonymous" here so no handler can leak the stored
// identity by accident.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:             t.ID,
		DepartmentID:   t.DepartmentID,
		Role:           string(t.Role),
		Type:           string(t.Type),
		Message:        t.Message,
		Object:         t.Object,
		Name:           t.SubmitterName(),
		IsAnonymous:    t.IsAnonymous,
		Status:         string(t.Status),
		StatusID:       t.StatusID,
		SubstatusID:    t.SubstatusID,
		AssigneeID:     t.AssigneeID,
		Deadline:       t.Deadline,
		Urgency:        t.Urgency,
		UrgencyLevel:   t.UrgencyLevel,
		RedirectedFrom: t.RedirectedFrom,
		AttachmentURL:  t.AttachmentURL,
		FinalPhotoURL:  t.FinalPhotoURL,
		ExternalTaskID: t.ExternalTaskID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if !t.IsAnonymous {
		resp.Contact = t.Contact
	}
	if t.UrgencyLevel != nil {
		resp.UrgencyLabel = domain.UrgencyLabel(*t.UrgencyLevel)
	}
	return resp
}
