package sheets

import (
	"testing"
	"time"

	"github.com/spec-kit/feedback-service/internal/domain"
)

func TestRanges(t *testing.T) {
	if got := RowRange(7); got != "A7:P7" {
		t.Errorf("RowRange(7) = %q", got)
	}
	if got := StatusRange(12); got != "J12:K12" {
		t.Errorf("StatusRange(12) = %q", got)
	}
	if got := DeadlineCell(3); got != "N3" {
		t.Errorf("DeadlineCell(3) = %q", got)
	}
	if got := UrgencyCell(3); got != "O3" {
		t.Errorf("UrgencyCell(3) = %q", got)
	}
	if got := AssigneeCell(3); got != "P3" {
		t.Errorf("AssigneeCell(3) = %q", got)
	}
}

func TestTicketRow(t *testing.T) {
	name := "Dana Smith"
	contact := "ext. 4410"
	deadline := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	level := domain.UrgencyHigh
	ticket := &domain.Ticket{
		ID:           "tk-1",
		Role:         domain.RoleContractor,
		Type:         domain.FeedbackTypeSuggestion,
		Message:      "add bike racks",
		Object:       "Parking lot",
		Name:         &name,
		Contact:      &contact,
		Deadline:     &deadline,
		UrgencyLevel: &level,
		CreatedAt:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}

	row := TicketRow(ticket, "Facilities", "In Progress", "Waiting on parts", "Sam Lee")
	if len(row) != RowWidth {
		t.Fatalf("row width = %d, want %d", len(row), RowWidth)
	}
	want := map[int]string{
		0:  "tk-1",
		1:  "2026-03-01T09:30:00Z",
		4:  "Dana Smith",
		5:  "ext. 4410",
		6:  "add bike racks",
		7:  "Parking lot",
		8:  "Facilities",
		9:  "In Progress",
		10: "Waiting on parts",
		11: "",
		13: "2026-03-14",
		14: "High",
		15: "Sam Lee",
	}
	for col, value := range want {
		if row[col] != value {
			t.Errorf("column %d = %v, want %q", col, row[col], value)
		}
	}

	t.Run("anonymous without optional fields", func(t *testing.T) {
		bare := &domain.Ticket{ID: "tk-2", IsAnonymous: true, Role: domain.RoleVisitor, Type: domain.FeedbackTypeRemark}
		row := TicketRow(bare, "Facilities", "New", "", "")
		if row[4] != "Anonymous" {
			t.Errorf("name column = %v", row[4])
		}
		for _, col := range []int{5, 10, 13, 14, 15} {
			if row[col] != "" {
				t.Errorf("column %d = %v, want empty", col, row[col])
			}
		}
	})
}
