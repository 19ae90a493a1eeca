package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/feedback-service/internal/domain"
)

func TestSendMessage(t *testing.T) {
	creds := domain.ChatCredentials{BotToken: "bot-token", ChatID: "-100123"}

	t.Run("posts chat id and text to the token path", func(t *testing.T) {
		var gotPath string
		var gotBody sendMessageRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("decode body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		if err := client.SendMessage(context.Background(), creds, "hello"); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
		if gotPath != "/botbot-token/sendMessage" {
			t.Errorf("path = %q", gotPath)
		}
		if gotBody.ChatID != "-100123" || gotBody.Text != "hello" {
			t.Errorf("body = %+v", gotBody)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"ok":false}`, http.StatusForbidden)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		err := client.SendMessage(context.Background(), creds, "hello")
		if err == nil {
			t.Fatal("expected error for 403")
		}
		if !strings.Contains(err.Error(), "403") {
			t.Errorf("error = %v, want status in message", err)
		}
	})

	t.Run("missing credentials fail before the network", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:0", time.Second)
		if err := client.SendMessage(context.Background(), domain.ChatCredentials{}, "hello"); err == nil {
			t.Fatal("expected error for empty credentials")
		}
	})
}

func TestFormatTicketMessage(t *testing.T) {
	base := func() *domain.Ticket {
		name := "Dana Smith"
		return &domain.Ticket{
			Type:    domain.FeedbackTypeSafety,
			Role:    domain.RoleEmployee,
			Name:    &name,
			Object:  "Stairwell B",
			Message: "broken handrail",
		}
	}

	t.Run("renders type, submitter, department and object", func(t *testing.T) {
		text := FormatTicketMessage(base(), "Maintenance")
		for _, want := range []string{
			"Safety Issue",
			"Dana Smith",
			"Department: Maintenance",
			"Object: Stairwell B",
			"broken handrail",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("message missing %q:\n%s", want, text)
			}
		}
	})

	t.Run("anonymous tickets say Anonymous", func(t *testing.T) {
		ticket := base()
		ticket.IsAnonymous = true
		ticket.Name = nil
		text := FormatTicketMessage(ticket, "Maintenance")
		if !strings.Contains(text, "Anonymous") {
			t.Errorf("message missing Anonymous:\n%s", text)
		}
	})

	t.Run("empty object line is omitted", func(t *testing.T) {
		ticket := base()
		ticket.Object = ""
		if strings.Contains(FormatTicketMessage(ticket, "Maintenance"), "Object:") {
			t.Error("object line should be omitted when empty")
		}
	})

	t.Run("long messages truncate to 300 runes", func(t *testing.T) {
		ticket := base()
		ticket.Message = strings.Repeat("д", 500)
		text := FormatTicketMessage(ticket, "Maintenance")
		lines := strings.Split(text, "\n")
		body := lines[len(lines)-1]
		if got := len([]rune(body)); got != 300 {
			t.Errorf("body runes = %d, want 300", got)
		}
		if !strings.HasSuffix(body, "…") {
			t.Error("truncated body should end with ellipsis")
		}
	})
}
