package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// SettingsRepository stores per-department integration credentials.
type SettingsRepository interface {
	Get(ctx context.Context, departmentID string) (*domain.DepartmentSettings, error)
	Upsert(ctx context.Context, settings *domain.DepartmentSettings) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository builds the repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

// Get returns the settings row mapped into credential groups. A missing
// row yields empty settings, not an error: absence of credentials just
// disables the integrations.
func (r *settingsRepository) Get(ctx context.Context, departmentID string) (*domain.DepartmentSettings, error) {
	const query = `
        SELECT spreadsheet_id, service_account_email, private_key_pem,
               bot_token, chat_id, tracker_webhook_url, updated_at
        FROM department_settings WHERE department_id=$1`

	settings := &domain.DepartmentSettings{DepartmentID: departmentID}
	var (
		spreadsheetID, saEmail, privateKey *string
		botToken, chatID, webhookURL       *string
	)
	err := r.pool.QueryRow(ctx, query, departmentID).Scan(
		&spreadsheetID, &saEmail, &privateKey,
		&botToken, &chatID, &webhookURL, &settings.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return settings, nil
		}
		return nil, err
	}

	if deref(spreadsheetID) != "" && deref(saEmail) != "" && deref(privateKey) != "" {
		settings.Sheet = &domain.SheetCredentials{
			SpreadsheetID:       *spreadsheetID,
			ServiceAccountEmail: *saEmail,
			PrivateKeyPEM:       *privateKey,
		}
	}
	if deref(botToken) != "" && deref(chatID) != "" {
		settings.Chat = &domain.ChatCredentials{BotToken: *botToken, ChatID: *chatID}
	}
	if deref(webhookURL) != "" {
		settings.TrackerWebhookURL = webhookURL
	}
	return settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *domain.DepartmentSettings) error {
	const query = `
        INSERT INTO department_settings
            (department_id, spreadsheet_id, service_account_email, private_key_pem,
             bot_token, chat_id, tracker_webhook_url, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
        ON CONFLICT (department_id) DO UPDATE SET
            spreadsheet_id=EXCLUDED.spreadsheet_id,
            service_account_email=EXCLUDED.service_account_email,
            private_key_pem=EXCLUDED.private_key_pem,
            bot_token=EXCLUDED.bot_token,
            chat_id=EXCLUDED.chat_id,
            tracker_webhook_url=EXCLUDED.tracker_webhook_url,
            updated_at=NOW()`

	var spreadsheetID, saEmail, privateKey, botToken, chatID *string
	if settings.Sheet != nil {
		spreadsheetID = &settings.Sheet.SpreadsheetID
		saEmail = &settings.Sheet.ServiceAccountEmail
		privateKey = &settings.Sheet.PrivateKeyPEM
	}
	if settings.Chat != nil {
		botToken = &settings.Chat.BotToken
		chatID = &settings.Chat.ChatID
	}

	_, err := r.pool.Exec(ctx, query,
		settings.DepartmentID,
		spreadsheetID, saEmail, privateKey,
		botToken, chatID, settings.TrackerWebhookURL,
	)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
