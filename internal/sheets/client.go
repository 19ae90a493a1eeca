// Package sheets mirrors tickets into per-department Google spreadsheets.
//
// A spreadsheet row is 16 fixed columns:
//
//	A id, B created-at, C role, D type, E name-or-anonymous, F contact,
//	G message, H object, I department, J status, K sub-status,
//	L attachment URL, M external task id, N deadline, O urgency label,
//	P assignee name.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/spec-kit/feedback-service/internal/domain"
)

const (
	// RowWidth is the fixed column count of the mirror schema.
	RowWidth = 16

	scopeReadWrite = "https://www.googleapis.com/auth/spreadsheets"
	scopeReadOnly  = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// StatusRow is one inbound-sync row: the ticket ID from column A plus the
// textual status/sub-status from columns J and K.
type StatusRow struct {
	TicketID  string
	Status    string
	Substatus string
}

// Client is the minimal spreadsheet surface the sync service needs.
type Client interface {
	// FindRow scans column A for an exact ticket-ID match and returns the
	// 1-based row index. found is false when the ID is not present.
	FindRow(ctx context.Context, ticketID string) (row int, found bool, err error)
	// UpdateCells writes values into the given A1 range, leaving every
	// other cell untouched.
	UpdateCells(ctx context.Context, rangeA1 string, values [][]interface{}) error
	// AppendRow writes a full 16-column row at the first fully-empty row
	// of column A. Manually cleared rows in the middle of the sheet will
	// be reused, which can misplace tickets on a hand-edited sheet.
	AppendRow(ctx context.Context, values []interface{}) error
	// ClearRow blanks the 16 columns of the given row.
	ClearRow(ctx context.Context, row int) error
	// ReadStatusColumns returns columns A, J and K for inbound sync.
	ReadStatusColumns(ctx context.Context) ([]StatusRow, error)
}

// Factory builds a Client from stored department credentials. The sync
// service holds a Factory so tests can substitute a fake sheet.
type Factory func(ctx context.Context, creds domain.SheetCredentials, readOnly bool) (Client, error)

type client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// NewClient performs the service-account credential exchange: a JWT
// signed with the stored private key is exchanged at the Google token
// endpoint for a bearer token scoped to the spreadsheet capability.
func NewClient(ctx context.Context, creds domain.SheetCredentials, readOnly bool) (Client, error) {
	if creds.SpreadsheetID == "" || creds.ServiceAccountEmail == "" || creds.PrivateKeyPEM == "" {
		return nil, fmt.Errorf("incomplete sheet credentials")
	}
	scope := scopeReadWrite
	if readOnly {
		scope = scopeReadOnly
	}
	conf := &jwt.Config{
		Email:      creds.ServiceAccountEmail,
		PrivateKey: []byte(creds.PrivateKeyPEM),
		Scopes:     []string{scope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("build sheets service: %w", err)
	}
	return &client{svc: svc, spreadsheetID: creds.SpreadsheetID}, nil
}

func (c *client) FindRow(ctx context.Context, ticketID string) (int, bool, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, "A:A").Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("read id column: %w", err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if cellString(row[0]) == ticketID {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (c *client) UpdateCells(ctx context.Context, rangeA1 string, values [][]interface{}) error {
	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, rangeA1, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rangeA1, err)
	}
	return nil
}

func (c *client) AppendRow(ctx context.Context, values []interface{}) error {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, "A:A").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read id column: %w", err)
	}
	row := len(resp.Values) + 1
	for i, existing := range resp.Values {
		if len(existing) == 0 || cellString(existing[0]) == "" {
			row = i + 1
			break
		}
	}
	return c.UpdateCells(ctx, RowRange(row), [][]interface{}{values})
}

func (c *client) ClearRow(ctx context.Context, row int) error {
	blank := make([]interface{}, RowWidth)
	for i := range blank {
		blank[i] = ""
	}
	return c.UpdateCells(ctx, RowRange(row), [][]interface{}{blank})
}

func (c *client) ReadStatusColumns(ctx context.Context) ([]StatusRow, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, "A:K").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read status columns: %w", err)
	}
	result := make([]StatusRow, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		sr := StatusRow{TicketID: cellString(row[0])}
		if sr.TicketID == "" {
			continue
		}
		if len(row) > 9 {
			sr.Status = cellString(row[9])
		}
		if len(row) > 10 {
			sr.Substatus = cellString(row[10])
		}
		result = append(result, sr)
	}
	return result, nil
}

// RowRange returns the full A1 range of a row, e.g. "A7:P7".
func RowRange(row int) string {
	return fmt.Sprintf("A%d:P%d", row, row)
}

// StatusRange returns the status + sub-status pair range of a row (J:K).
func StatusRange(row int) string {
	return fmt.Sprintf("J%d:K%d", row, row)
}

// DeadlineCell returns the deadline cell of a row (column N).
func DeadlineCell(row int) string {
	return fmt.Sprintf("N%d", row)
}

// UrgencyCell returns the urgency label cell of a row (column O).
func UrgencyCell(row int) string {
	return fmt.Sprintf("O%d", row)
}

// AssigneeCell returns the assignee name cell of a row (column P).
func AssigneeCell(row int) string {
	return fmt.Sprintf("P%d", row)
}

// TicketRow renders a ticket into the fixed 16-column schema. Label
// lookups for department/status/assignee come from the caller since the
// sheet stores display names, not IDs.
func TicketRow(ticket *domain.Ticket, departmentName, statusLabel, substatusLabel, assigneeName string) []interface{} {
	deadline := ""
	if ticket.Deadline != nil {
		deadline = ticket.Deadline.Format("2006-01-02")
	}
	urgency := ""
	if ticket.UrgencyLevel != nil {
		urgency = domain.UrgencyLabel(*ticket.UrgencyLevel)
	}
	return []interface{}{
		ticket.ID,
		ticket.CreatedAt.Format(time.RFC3339),
		ticket.Role.Label(),
		ticket.Type.Label(),
		ticket.SubmitterName(),
		derefOrEmpty(ticket.Contact),
		ticket.Message,
		ticket.Object,
		departmentName,
		statusLabel,
		substatusLabel,
		derefOrEmpty(ticket.AttachmentURL),
		derefOrEmpty(ticket.ExternalTaskID),
		deadline,
		urgency,
		assigneeName,
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cellString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
