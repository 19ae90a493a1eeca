// Package chat posts ticket notifications to a bot-message endpoint
// identified by a bot token and chat identifier pair.
package chat

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

const messagePreviewLimit = 300

// Sender posts a message to a chat. Implemented by Client; faked in tests.
type Sender interface {
	SendMessage(ctx context.Context, creds domain.ChatCredentials, text string) error
}

// Client talks to the bot API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a chat client. baseURL is the bot API root, e.g.
// "https://api.telegram.org".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage performs one POST to the bot-message endpoint. A non-2xx
// response is an error; there is no retry.
func (c *Client) SendMessage(ctx context.Context, creds domain.ChatCredentials, text string) error {
	if creds.BotToken == "" || creds.ChatID == "" {
		return fmt.Errorf("chat credentials not configured")
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: creds.ChatID, Text: text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, creds.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bot endpoint returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// FormatTicketMessage renders the fixed notification template: emoji
// marker per type, type label, submitter or "Anonymous", department,
// object, and the message truncated to 300 runes.
func FormatTicketMessage(ticket *domain.Ticket, departmentName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s New %s\n", ticket.Type.Emoji(), ticket.Type.Label())
	fmt.Fprintf(&b, "From: %s (%s)\n", ticket.SubmitterName(), ticket.Role.Label())
	fmt.Fprintf(&b, "Department: %s\n", departmentName)
	if ticket.Object != "" {
		fmt.Fprintf(&b, "Object: %s\n", ticket.Object)
	}
	b.WriteString(truncateRunes(ticket.Message, messagePreviewLimit))
	return b.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
