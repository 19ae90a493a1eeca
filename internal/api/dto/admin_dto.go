package dto

import "time"

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     AdminResponse `json:"admin"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateAdminRequest registers a dashboard account.
type CreateAdminRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id"`
}

// AdminResponse is the account view; the hash never leaves the server.
type AdminResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
	IsActive     bool    `json:"is_active"`
}

// CreateDepartmentRequest registers a routing destination.
type CreateDepartmentRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	IsOversight bool   `json:"is_oversight"`
}

// CreateEmployeeRequest adds an assignable staff member.
type CreateEmployeeRequest struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	Position     string `json:"position"`
}

// UpdateEmployeeRequest renames an employee or changes their position.
type UpdateEmployeeRequest struct {
	Name     *string `json:"name"`
	Position *string `json:"position"`
}

// EmployeeResponse is one staff member.
type EmployeeResponse struct {
	ID           string  `json:"id"`
	DepartmentID string  `json:"department_id"`
	Name         string  `json:"name"`
	Position     *string `json:"position,omitempty"`
	IsActive     bool    `json:"is_active"`
}

// SheetCredentialsPayload configures the mirrored spreadsheet.
type SheetCredentialsPayload struct {
	SpreadsheetID       string `json:"spreadsheet_id"`
	ServiceAccountEmail string `json:"service_account_email"`
	PrivateKeyPEM       string `json:"private_key_pem"`
}

// ChatCredentialsPayload configures the chat destination.
type ChatCredentialsPayload struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// UpdateSettingsRequest replaces a department's integration settings.
// Omitting a group disables that integration.
type UpdateSettingsRequest struct {
	Sheet             *SheetCredentialsPayload `json:"sheet"`
	Chat              *ChatCredentialsPayload  `json:"chat"`
	TrackerWebhookURL *string                  `json:"tracker_webhook_url"`
}

// SettingsResponse reports which integrations are configured without
// echoing secrets back.
type SettingsResponse struct {
	DepartmentID      string `json:"department_id"`
	SheetConfigured   bool   `json:"sheet_configured"`
	SpreadsheetID     string `json:"spreadsheet_id,omitempty"`
	ChatConfigured    bool   `json:"chat_configured"`
	ChatID            string `json:"chat_id,omitempty"`
	TrackerConfigured bool   `json:"tracker_configured"`
}

// SyncPullResponse reports an inbound spreadsheet sweep.
type SyncPullResponse struct {
	DepartmentID string `json:"department_id"`
	Changed      int    `json:"changed"`
}

// TrackerSyncResponse reports a tracker polling sweep.
type TrackerSyncResponse struct {
	DepartmentID string `json:"department_id"`
	Changed      int    `json:"changed"`
	Failed       int    `json:"failed"`
}

// DashboardResponse is the per-status ticket count summary.
type DashboardResponse struct {
	New        int64 `json:"new"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	Total      int64 `json:"total"`
}
