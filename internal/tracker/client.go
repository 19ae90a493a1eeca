// Package tracker creates and polls tasks in the external task-tracker
// through a per-department webhook URL.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// Priority codes understood by the tracker.
const (
	PriorityNormal = 1
	PriorityHigh   = 2
)

// TaskPayload is what gets posted to the tracker webhook.
type TaskPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	Responsible string   `json:"responsible_id"`
	Creator     string   `json:"created_by"`
	Tags        []string `json:"tags"`
}

// API is the tracker surface used by the sync service.
type API interface {
	CreateTask(ctx context.Context, webhookURL string, payload TaskPayload) (string, error)
	GetTaskStatus(ctx context.Context, webhookURL, taskID string) (int, error)
}

// Client implements API over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a tracker client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

type createTaskResponse struct {
	Result struct {
		Task struct {
			ID json.Number `json:"id"`
		} `json:"task"`
	} `json:"result"`
}

// CreateTask posts a task payload and returns the external task id.
func (c *Client) CreateTask(ctx context.Context, webhookURL string, payload TaskPayload) (string, error) {
	if webhookURL == "" {
		return "", fmt.Errorf("tracker webhook not configured")
	}

	body, err := json.Marshal(map[string]any{"fields": payload})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(webhookURL, "/") + "/tasks.task.add.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("tracker returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed createTaskResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	taskID := parsed.Result.Task.ID.String()
	if taskID == "" {
		return "", fmt.Errorf("tracker response missing task id")
	}
	return taskID, nil
}

type taskStatusResponse struct {
	Result struct {
		Task struct {
			Status json.Number `json:"status"`
		} `json:"task"`
	} `json:"result"`
}

// GetTaskStatus fetches the remote numeric status code of a task.
func (c *Client) GetTaskStatus(ctx context.Context, webhookURL, taskID string) (int, error) {
	if webhookURL == "" {
		return 0, fmt.Errorf("tracker webhook not configured")
	}

	url := fmt.Sprintf("%s/tasks.task.get.json?taskId=%s", strings.TrimRight(webhookURL, "/"), taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get task: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("tracker returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed taskStatusResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("parse response: %w", err)
	}
	code, err := parsed.Result.Task.Status.Int64()
	if err != nil {
		return 0, fmt.Errorf("non-numeric task status: %w", err)
	}
	return int(code), nil
}

// PriorityForTicket maps urgency onto the tracker's coarse scale: high
// for urgent tickets, normal for everything else.
func PriorityForTicket(ticket *domain.Ticket) int {
	if ticket.UrgencyLevel != nil && *ticket.UrgencyLevel >= domain.UrgencyHigh {
		return PriorityHigh
	}
	if strings.EqualFold(ticket.Urgency, "urgent") {
		return PriorityHigh
	}
	return PriorityNormal
}

// StatusForCode maps the tracker's numeric status codes onto the legacy
// three-state model. ok is false for unknown codes, which leave the
// ticket untouched.
func StatusForCode(code int) (domain.LegacyStatus, bool) {
	switch code {
	case 1, 2:
		return domain.StatusNew, true
	case 3, 4:
		return domain.StatusInProgress, true
	case 5:
		return domain.StatusResolved, true
	}
	return "", false
}

// BuildTaskPayload renders the multi-line tracker description embedding
// type, urgency, department, contact, message and the internal id.
func BuildTaskPayload(ticket *domain.Ticket, departmentName string) TaskPayload {
	urgency := ticket.Urgency
	if ticket.UrgencyLevel != nil {
		urgency = domain.UrgencyLabel(*ticket.UrgencyLevel)
	}
	contact := ""
	if ticket.Contact != nil {
		contact = *ticket.Contact
	}
	description := fmt.Sprintf(
		"Type: %s\nUrgency: %s\nDepartment: %s\nContact: %s\n\n%s\n\nInternal ID: %s",
		ticket.Type.Label(), urgency, departmentName, contact, ticket.Message, ticket.ID,
	)
	return TaskPayload{
		Title:       fmt.Sprintf("[%s] %s", ticket.Type.Label(), departmentName),
		Description: description,
		Priority:    PriorityForTicket(ticket),
		Responsible: "1",
		Creator:     "1",
		Tags:        []string{"feedback", strings.ToLower(string(ticket.Type))},
	}
}
