package domain

import "time"

// SheetCredentials configure the mirrored spreadsheet for a department.
type SheetCredentials struct {
	SpreadsheetID       string
	ServiceAccountEmail string
	PrivateKeyPEM       string
}

// ChatCredentials configure the chat-bot destination for a department.
type ChatCredentials struct {
	BotToken string
	ChatID   string
}

// DepartmentSettings holds the per-department integration credential
// groups. Each group is independently optional; a nil group disables
// that integration for the department without error.
type DepartmentSettings struct {
	DepartmentID      string
	Sheet             *SheetCredentials
	Chat              *ChatCredentials
	TrackerWebhookURL *string
	UpdatedAt         time.Time
}

// SheetConfigured reports whether the spreadsheet mirror is usable.
func (s *DepartmentSettings) SheetConfigured() bool {
	return s != nil && s.Sheet != nil &&
		s.Sheet.SpreadsheetID != "" && s.Sheet.ServiceAccountEmail != "" && s.Sheet.PrivateKeyPEM != ""
}

// ChatConfigured reports whether chat notifications are usable.
func (s *DepartmentSettings) ChatConfigured() bool {
	return s != nil && s.Chat != nil && s.Chat.BotToken != "" && s.Chat.ChatID != ""
}

// TrackerConfigured reports whether the task-tracker webhook is set.
func (s *DepartmentSettings) TrackerConfigured() bool {
	return s != nil && s.TrackerWebhookURL != nil && *s.TrackerWebhookURL != ""
}
