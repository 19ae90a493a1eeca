package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

type ticketFixture struct {
	service     *TicketService
	tickets     *fakeTicketRepo
	statuses    *fakeStatusRepo
	departments *fakeDepartmentRepo
	employees   *fakeEmployeeRepo
	settings    *fakeSettingsRepo
	actions     *fakeActionLog
	dispatcher  *capturedEvents
	sender      *fakeSender
	safety      *domain.Department
	oversight   *domain.Department
	safetySheet *fakeSheet
	overSheet   *fakeSheet
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	ctx := context.Background()

	f := &ticketFixture{
		tickets:     newFakeTicketRepo(),
		statuses:    newFakeStatusRepo(),
		departments: newFakeDepartmentRepo(),
		employees:   newFakeEmployeeRepo(),
		settings:    newFakeSettingsRepo(),
		actions:     &fakeActionLog{},
		dispatcher:  &capturedEvents{},
		sender:      &fakeSender{},
		safetySheet: newFakeSheet(),
		overSheet:   newFakeSheet(),
	}

	f.safety = &domain.Department{Name: "Safety", Slug: "safety", IsActive: true}
	f.oversight = &domain.Department{Name: "Oversight", Slug: "oversight", IsOversight: true, IsActive: true}
	if err := f.departments.Create(ctx, f.safety); err != nil {
		t.Fatal(err)
	}
	if err := f.departments.Create(ctx, f.oversight); err != nil {
		t.Fatal(err)
	}

	creds := func(sheetID string) *domain.SheetCredentials {
		return &domain.SheetCredentials{SpreadsheetID: sheetID, ServiceAccountEmail: "svc@example.com", PrivateKeyPEM: "key"}
	}
	_ = f.settings.Upsert(ctx, &domain.DepartmentSettings{
		DepartmentID: f.safety.ID,
		Sheet:        creds("safety-sheet"),
		Chat:         &domain.ChatCredentials{BotToken: "tok", ChatID: "chat-safety"},
	})
	_ = f.settings.Upsert(ctx, &domain.DepartmentSettings{
		DepartmentID: f.oversight.ID,
		Sheet:        creds("oversight-sheet"),
		Chat:         &domain.ChatCredentials{BotToken: "tok", ChatID: "chat-oversight"},
	})

	logger := zap.NewNop()
	syncer := NewSyncService(SyncDependencies{
		TicketRepo:     f.tickets,
		StatusRepo:     f.statuses,
		DepartmentRepo: f.departments,
		EmployeeRepo:   f.employees,
		SettingsRepo:   f.settings,
		SheetFactory: sheetFactoryFor(map[string]*fakeSheet{
			"safety-sheet":    f.safetySheet,
			"oversight-sheet": f.overSheet,
		}),
		Logger: logger,
	})
	notifier := NewNotificationService(f.departments, f.settings, f.sender, logger)

	f.service = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		StatusRepo:     f.statuses,
		DepartmentRepo: f.departments,
		EmployeeRepo:   f.employees,
		ActionLogRepo:  f.actions,
		Dispatcher:     f.dispatcher,
		Syncer:         syncer,
		Notifier:       notifier,
	})
	return f
}

func (f *ticketFixture) admin() *domain.Admin {
	return &domain.Admin{ID: "admin-1", Role: domain.AdminRoleDepartment, DepartmentID: &f.safety.ID, IsActive: true}
}

func (f *ticketFixture) oversightAdmin() *domain.Admin {
	return &domain.Admin{ID: "admin-2", Role: domain.AdminRoleOversight, IsActive: true}
}

func (f *ticketFixture) submit(t *testing.T, input SubmitInput) *domain.Ticket {
	t.Helper()
	if input.DepartmentID == "" {
		input.DepartmentID = f.safety.ID
	}
	if input.Role == "" {
		input.Role = domain.RoleEmployee
	}
	if input.Type == "" {
		input.Type = domain.FeedbackTypeRemark
	}
	if input.Message == "" {
		input.Message = "broken handrail on level 2"
	}
	ticket, _, err := f.service.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return ticket
}

func TestSubmit(t *testing.T) {
	t.Run("creates ticket with NEW status and fans out", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket, outcomes, err := f.service.Submit(context.Background(), SubmitInput{
			DepartmentID: f.safety.ID,
			Role:         domain.RoleEmployee,
			Type:         domain.FeedbackTypeSafety,
			Message:      "exposed wiring near dock 4",
			Name:         "Dana",
			Contact:      "dana@example.com",
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if ticket.Status != domain.StatusNew {
			t.Errorf("status = %s, want NEW", ticket.Status)
		}
		// Two chat destinations plus two sheet appends.
		if len(outcomes) != 4 {
			t.Fatalf("outcomes = %d, want 4", len(outcomes))
		}
		for _, o := range outcomes {
			if o.Status != OutcomeSynced {
				t.Errorf("%s/%s outcome = %s, want SYNCED", o.DepartmentID, o.Kind, o.Status)
			}
		}
		if len(f.safetySheet.rows) != 1 || len(f.overSheet.rows) != 1 {
			t.Errorf("sheet rows = %d/%d, want 1/1", len(f.safetySheet.rows), len(f.overSheet.rows))
		}
		if len(f.sender.messages) != 2 {
			t.Errorf("chat messages = %d, want 2", len(f.sender.messages))
		}
	})

	t.Run("anonymous drops identity", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{
			IsAnonymous: true,
			Name:        "Dana",
			Contact:     "dana@example.com",
		})
		if ticket.Name != nil || ticket.Contact != nil {
			t.Errorf("anonymous ticket kept identity: name=%v contact=%v", ticket.Name, ticket.Contact)
		}
		if got := ticket.SubmitterName(); got != "Anonymous" {
			t.Errorf("SubmitterName() = %q, want Anonymous", got)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		f := newTicketFixture(t)
		_, _, err := f.service.Submit(context.Background(), SubmitInput{
			DepartmentID: f.safety.ID,
			Role:         domain.RoleEmployee,
			Type:         domain.FeedbackType("COMPLAINT"),
			Message:      "x",
		})
		assertCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("rejects empty message", func(t *testing.T) {
		f := newTicketFixture(t)
		_, _, err := f.service.Submit(context.Background(), SubmitInput{
			DepartmentID: f.safety.ID,
			Role:         domain.RoleEmployee,
			Type:         domain.FeedbackTypeRemark,
			Message:      "   ",
		})
		assertCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("succeeds when chat fails", func(t *testing.T) {
		f := newTicketFixture(t)
		f.sender.err = context.DeadlineExceeded
		f.safetySheet.findErr = nil
		ticket, outcomes, err := f.service.Submit(context.Background(), SubmitInput{
			DepartmentID: f.safety.ID,
			Role:         domain.RoleVisitor,
			Type:         domain.FeedbackTypeGratitude,
			Message:      "great canteen crew",
		})
		if err != nil {
			t.Fatalf("Submit should not fail on downstream errors: %v", err)
		}
		if ticket.ID == "" {
			t.Fatal("ticket not stored")
		}
		failed := 0
		for _, o := range outcomes {
			if o.Status == OutcomeFailed {
				failed++
			}
		}
		if failed != 2 {
			t.Errorf("failed outcomes = %d, want 2 (both chats)", failed)
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("dynamic status derives legacy IN_PROGRESS", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		status := &domain.DynamicStatus{DepartmentID: f.safety.ID, Name: "Investigating"}
		_ = f.statuses.CreateStatus(context.Background(), status)

		updated, _, err := f.service.UpdateStatus(context.Background(), f.admin(), ticket.ID, StatusInput{StatusID: &status.ID})
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if updated.Status != domain.StatusInProgress {
			t.Errorf("legacy status = %s, want IN_PROGRESS", updated.Status)
		}
		if updated.StatusID == nil || *updated.StatusID != status.ID {
			t.Error("dynamic status reference not stored")
		}
	})

	t.Run("final dynamic status derives RESOLVED", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		status := &domain.DynamicStatus{DepartmentID: f.safety.ID, Name: "Done", IsFinal: true}
		_ = f.statuses.CreateStatus(context.Background(), status)

		updated, _, err := f.service.UpdateStatus(context.Background(), f.admin(), ticket.ID, StatusInput{StatusID: &status.ID})
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if updated.Status != domain.StatusResolved {
			t.Errorf("legacy status = %s, want RESOLVED", updated.Status)
		}
	})

	t.Run("substatus must belong to the new status", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		ctx := context.Background()
		statusA := &domain.DynamicStatus{DepartmentID: f.safety.ID, Name: "Investigating"}
		statusB := &domain.DynamicStatus{DepartmentID: f.safety.ID, Name: "Blocked"}
		_ = f.statuses.CreateStatus(ctx, statusA)
		_ = f.statuses.CreateStatus(ctx, statusB)
		subOfB := &domain.DynamicSubstatus{StatusID: statusB.ID, Name: "Waiting on vendor"}
		_ = f.statuses.CreateSubstatus(ctx, subOfB)

		_, _, err := f.service.UpdateStatus(ctx, f.admin(), ticket.ID, StatusInput{StatusID: &statusA.ID, SubstatusID: &subOfB.ID})
		assertCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("legacy status clears dynamic references", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		ctx := context.Background()
		status := &domain.DynamicStatus{DepartmentID: f.safety.ID, Name: "Investigating"}
		_ = f.statuses.CreateStatus(ctx, status)
		sub := &domain.DynamicSubstatus{StatusID: status.ID, Name: "On site"}
		_ = f.statuses.CreateSubstatus(ctx, sub)
		if _, _, err := f.service.UpdateStatus(ctx, f.admin(), ticket.ID, StatusInput{StatusID: &status.ID, SubstatusID: &sub.ID}); err != nil {
			t.Fatalf("dynamic update: %v", err)
		}

		legacy := domain.StatusResolved
		updated, _, err := f.service.UpdateStatus(ctx, f.admin(), ticket.ID, StatusInput{Status: &legacy})
		if err != nil {
			t.Fatalf("legacy update: %v", err)
		}
		if updated.StatusID != nil || updated.SubstatusID != nil {
			t.Error("legacy status change should clear dynamic references")
		}
	})

	t.Run("status of another department is rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		foreign := &domain.DynamicStatus{DepartmentID: f.oversight.ID, Name: "Elsewhere"}
		_ = f.statuses.CreateStatus(context.Background(), foreign)

		_, _, err := f.service.UpdateStatus(context.Background(), f.oversightAdmin(), ticket.ID, StatusInput{StatusID: &foreign.ID})
		assertCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("inactive status is rejected", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		ctx := context.Background()
		status := &domain.DynamicStatus{DepartmentID: f.safety.ID, Name: "Parked"}
		_ = f.statuses.CreateStatus(ctx, status)
		_ = f.statuses.ToggleStatus(ctx, status.ID)

		_, _, err := f.service.UpdateStatus(ctx, f.admin(), ticket.ID, StatusInput{StatusID: &status.ID})
		assertCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("pushes status cells to both sheets", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		legacy := domain.StatusInProgress
		_, outcomes, err := f.service.UpdateStatus(context.Background(), f.admin(), ticket.ID, StatusInput{Status: &legacy})
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		synced := 0
		for _, o := range outcomes {
			if o.Status == OutcomeSynced {
				synced++
			}
		}
		if synced != 2 {
			t.Errorf("synced outcomes = %d, want 2", synced)
		}
		if len(f.safetySheet.updates) != 1 {
			t.Errorf("safety sheet updates = %d, want 1", len(f.safetySheet.updates))
		}
	})
}

func TestTicketFieldMutations(t *testing.T) {
	t.Run("deadline set and cleared", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		deadline := time.Now().Add(48 * time.Hour)
		updated, _, err := f.service.SetDeadline(context.Background(), f.admin(), ticket.ID, &deadline)
		if err != nil {
			t.Fatalf("SetDeadline: %v", err)
		}
		if updated.Deadline == nil {
			t.Fatal("deadline not set")
		}
		updated, _, err = f.service.SetDeadline(context.Background(), f.admin(), ticket.ID, nil)
		if err != nil {
			t.Fatalf("clear deadline: %v", err)
		}
		if updated.Deadline != nil {
			t.Error("deadline not cleared")
		}
	})

	t.Run("urgency level bounds", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		if _, _, err := f.service.SetUrgencyLevel(context.Background(), f.admin(), ticket.ID, intPtr(5)); err == nil {
			t.Error("level 5 should be rejected")
		}
		if _, _, err := f.service.SetUrgencyLevel(context.Background(), f.admin(), ticket.ID, intPtr(0)); err == nil {
			t.Error("level 0 should be rejected")
		}
		updated, _, err := f.service.SetUrgencyLevel(context.Background(), f.admin(), ticket.ID, intPtr(domain.UrgencyCritical))
		if err != nil {
			t.Fatalf("SetUrgencyLevel: %v", err)
		}
		if updated.UrgencyLevel == nil || *updated.UrgencyLevel != domain.UrgencyCritical {
			t.Error("urgency level not stored")
		}
	})

	t.Run("assign requires active employee of owning department", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		ctx := context.Background()

		other := &domain.Employee{DepartmentID: f.oversight.ID, Name: "Pat", IsActive: true}
		_ = f.employees.Create(ctx, other)
		if _, _, err := f.service.Assign(ctx, f.admin(), ticket.ID, &other.ID); err == nil {
			t.Error("foreign-department employee should be rejected")
		}

		inactive := &domain.Employee{DepartmentID: f.safety.ID, Name: "Lee", IsActive: false}
		_ = f.employees.Create(ctx, inactive)
		if _, _, err := f.service.Assign(ctx, f.admin(), ticket.ID, &inactive.ID); err == nil {
			t.Error("inactive employee should be rejected")
		}

		ok := &domain.Employee{DepartmentID: f.safety.ID, Name: "Sam", IsActive: true}
		_ = f.employees.Create(ctx, ok)
		updated, _, err := f.service.Assign(ctx, f.admin(), ticket.ID, &ok.ID)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if updated.AssigneeID == nil || *updated.AssigneeID != ok.ID {
			t.Error("assignee not stored")
		}
	})

	t.Run("final photo requires terminal status", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		ctx := context.Background()
		url := "https://files.example.com/photo.jpg"

		if _, err := f.service.SetFinalPhoto(ctx, f.admin(), ticket.ID, &url); err == nil {
			t.Error("final photo on NEW ticket should be rejected")
		}

		legacy := domain.StatusResolved
		if _, _, err := f.service.UpdateStatus(ctx, f.admin(), ticket.ID, StatusInput{Status: &legacy}); err != nil {
			t.Fatal(err)
		}
		updated, err := f.service.SetFinalPhoto(ctx, f.admin(), ticket.ID, &url)
		if err != nil {
			t.Fatalf("SetFinalPhoto: %v", err)
		}
		if updated.FinalPhotoURL == nil {
			t.Error("final photo not stored")
		}
	})
}

func TestRedirect(t *testing.T) {
	t.Run("moves department, clears assignee, stamps origin", func(t *testing.T) {
		f := newTicketFixture(t)
		ctx := context.Background()
		ticket := f.submit(t, SubmitInput{})
		emp := &domain.Employee{DepartmentID: f.safety.ID, Name: "Sam", IsActive: true}
		_ = f.employees.Create(ctx, emp)
		if _, _, err := f.service.Assign(ctx, f.admin(), ticket.ID, &emp.ID); err != nil {
			t.Fatal(err)
		}

		moved, err := f.service.Redirect(ctx, f.admin(), ticket.ID, f.oversight.ID)
		if err != nil {
			t.Fatalf("Redirect: %v", err)
		}
		if moved.DepartmentID != f.oversight.ID {
			t.Errorf("department = %s, want %s", moved.DepartmentID, f.oversight.ID)
		}
		if moved.AssigneeID != nil {
			t.Error("assignee should be cleared on redirect")
		}
		if moved.RedirectedFrom == nil || *moved.RedirectedFrom != f.safety.ID {
			t.Error("redirected_from not stamped with origin")
		}
	})

	t.Run("second redirect overwrites origin, no chain", func(t *testing.T) {
		f := newTicketFixture(t)
		ctx := context.Background()
		third := &domain.Department{Name: "Facilities", Slug: "facilities", IsActive: true}
		_ = f.departments.Create(ctx, third)
		ticket := f.submit(t, SubmitInput{})
		oversight := f.oversightAdmin()

		if _, err := f.service.Redirect(ctx, oversight, ticket.ID, f.oversight.ID); err != nil {
			t.Fatal(err)
		}
		moved, err := f.service.Redirect(ctx, oversight, ticket.ID, third.ID)
		if err != nil {
			t.Fatal(err)
		}
		if moved.RedirectedFrom == nil || *moved.RedirectedFrom != f.oversight.ID {
			t.Errorf("redirected_from = %v, want %s (overwrite, not chain)", moved.RedirectedFrom, f.oversight.ID)
		}
	})

	t.Run("rejects same department", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{})
		_, err := f.service.Redirect(context.Background(), f.admin(), ticket.ID, f.safety.ID)
		assertCode(t, err, "VALIDATION_FAILED")
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes ticket and clears sheet rows", func(t *testing.T) {
		f := newTicketFixture(t)
		ctx := context.Background()
		ticket := f.submit(t, SubmitInput{})

		outcomes, err := f.service.Delete(ctx, f.admin(), ticket.ID)
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := f.service.Get(ctx, f.oversightAdmin(), ticket.ID); err == nil {
			t.Error("ticket should be gone from the store")
		}
		if len(f.safetySheet.cleared) != 1 || len(f.overSheet.cleared) != 1 {
			t.Errorf("cleared rows = %d/%d, want 1/1", len(f.safetySheet.cleared), len(f.overSheet.cleared))
		}
		for _, o := range outcomes {
			if o.Status != OutcomeSynced {
				t.Errorf("outcome %s/%s = %s, want SYNCED", o.DepartmentID, o.Kind, o.Status)
			}
		}
	})

	t.Run("store delete succeeds when sheet row is absent", func(t *testing.T) {
		f := newTicketFixture(t)
		ctx := context.Background()
		ticket := f.submit(t, SubmitInput{})
		f.safetySheet.rows = nil // someone hand-deleted the row

		outcomes, err := f.service.Delete(ctx, f.admin(), ticket.ID)
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		var sawSkip bool
		for _, o := range outcomes {
			if o.DepartmentID == f.safety.ID && o.Status == OutcomeSkipped {
				sawSkip = true
			}
		}
		if !sawSkip {
			t.Error("missing row should be reported as skipped, not failed")
		}
	})
}

func TestClearAll(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	f.submit(t, SubmitInput{})
	f.submit(t, SubmitInput{DepartmentID: f.oversight.ID})

	t.Run("department admin forbidden", func(t *testing.T) {
		_, err := f.service.ClearAll(ctx, f.admin())
		assertCode(t, err, "FORBIDDEN")
	})

	t.Run("oversight purges everything", func(t *testing.T) {
		deleted, err := f.service.ClearAll(ctx, f.oversightAdmin())
		if err != nil {
			t.Fatalf("ClearAll: %v", err)
		}
		if deleted != 2 {
			t.Errorf("deleted = %d, want 2", deleted)
		}
		remaining, _ := f.tickets.Count(ctx, nil)
		if remaining != 0 {
			t.Errorf("remaining = %d, want 0", remaining)
		}
	})
}

func TestBuildReport(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	f.submit(t, SubmitInput{Type: domain.FeedbackTypeRemark})
	f.submit(t, SubmitInput{Type: domain.FeedbackTypeRemark})
	urgent := f.submit(t, SubmitInput{Type: domain.FeedbackTypeSafety})
	if _, _, err := f.service.SetUrgencyLevel(ctx, f.admin(), urgent.ID, intPtr(domain.UrgencyHigh)); err != nil {
		t.Fatal(err)
	}

	report, err := f.service.BuildReport(ctx, f.admin(), f.safety.ID, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if report.Total != 3 {
		t.Errorf("total = %d, want 3", report.Total)
	}
	if report.ByType[domain.FeedbackTypeRemark] != 2 || report.ByType[domain.FeedbackTypeSafety] != 1 {
		t.Errorf("by_type = %v", report.ByType)
	}
	if report.ByUrgency[domain.UrgencyHigh] != 1 || report.ByUrgency[0] != 2 {
		t.Errorf("by_urgency = %v", report.ByUrgency)
	}

	t.Run("foreign department forbidden", func(t *testing.T) {
		_, err := f.service.BuildReport(ctx, f.admin(), f.oversight.ID, time.Now().Add(-time.Hour), time.Now())
		assertCode(t, err, "FORBIDDEN")
	})
}

func TestScopeAndViews(t *testing.T) {
	t.Run("department admin cannot see foreign ticket", func(t *testing.T) {
		f := newTicketFixture(t)
		ticket := f.submit(t, SubmitInput{DepartmentID: f.oversight.ID})
		_, err := f.service.Get(context.Background(), f.admin(), ticket.ID)
		assertCode(t, err, "FORBIDDEN")
	})

	t.Run("list is forced to admin department", func(t *testing.T) {
		f := newTicketFixture(t)
		f.submit(t, SubmitInput{})
		f.submit(t, SubmitInput{DepartmentID: f.oversight.ID})

		mine, err := f.service.List(context.Background(), f.admin(), repository.TicketFilter{Limit: 50})
		if err != nil {
			t.Fatal(err)
		}
		for _, ticket := range mine {
			if ticket.DepartmentID != f.safety.ID {
				t.Errorf("leaked ticket of department %s", ticket.DepartmentID)
			}
		}

		all, err := f.service.List(context.Background(), f.oversightAdmin(), repository.TicketFilter{Limit: 50})
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 {
			t.Errorf("oversight sees %d tickets, want 2", len(all))
		}
	})

	t.Run("meetings bucket filters by urgency floor", func(t *testing.T) {
		f := newTicketFixture(t)
		ctx := context.Background()
		low := f.submit(t, SubmitInput{})
		high := f.submit(t, SubmitInput{})
		if _, _, err := f.service.SetUrgencyLevel(ctx, f.admin(), low.ID, intPtr(domain.UrgencyMedium)); err != nil {
			t.Fatal(err)
		}
		if _, _, err := f.service.SetUrgencyLevel(ctx, f.admin(), high.ID, intPtr(domain.UrgencyHigh)); err != nil {
			t.Fatal(err)
		}

		bucket, err := f.service.Meetings(ctx, f.admin(), repository.TicketFilter{Limit: 50})
		if err != nil {
			t.Fatal(err)
		}
		if len(bucket) != 1 || bucket[0].ID != high.ID {
			t.Errorf("meetings bucket = %v, want only the high-urgency ticket", bucket)
		}
	})

	t.Run("dashboard counts by legacy status", func(t *testing.T) {
		f := newTicketFixture(t)
		ctx := context.Background()
		f.submit(t, SubmitInput{})
		resolved := f.submit(t, SubmitInput{})
		legacy := domain.StatusResolved
		if _, _, err := f.service.UpdateStatus(ctx, f.admin(), resolved.ID, StatusInput{Status: &legacy}); err != nil {
			t.Fatal(err)
		}

		counts, err := f.service.Dashboard(ctx, f.admin(), f.safety.ID)
		if err != nil {
			t.Fatal(err)
		}
		if counts.New != 1 || counts.Resolved != 1 || counts.Total != 2 {
			t.Errorf("counts = %+v, want new=1 resolved=1 total=2", counts)
		}
	})

	t.Run("history records the audit trail", func(t *testing.T) {
		f := newTicketFixture(t)
		ctx := context.Background()
		ticket := f.submit(t, SubmitInput{})
		legacy := domain.StatusInProgress
		if _, _, err := f.service.UpdateStatus(ctx, f.admin(), ticket.ID, StatusInput{Status: &legacy}); err != nil {
			t.Fatal(err)
		}
		if _, _, err := f.service.SetUrgencyLevel(ctx, f.admin(), ticket.ID, intPtr(2)); err != nil {
			t.Fatal(err)
		}

		entries, err := f.service.History(ctx, f.admin(), ticket.ID, 50, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 2 {
			t.Fatalf("history entries = %d, want 2", len(entries))
		}
		if entries[0].ActionKind != domain.ActionUpdateStatus {
			t.Errorf("first entry = %s, want UPDATE_STATUS", entries[0].ActionKind)
		}
	})
}

func TestEventsPublished(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.submit(t, SubmitInput{})
	legacy := domain.StatusInProgress
	if _, _, err := f.service.UpdateStatus(ctx, f.admin(), ticket.ID, StatusInput{Status: &legacy}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.Redirect(ctx, f.admin(), ticket.ID, f.oversight.ID); err != nil {
		t.Fatal(err)
	}

	want := []interface{}{"ticket_created", "ticket_status_changed", "ticket_redirected"}
	got := f.dispatcher.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code != code {
		t.Fatalf("error code = %s, want %s (%v)", domainErr.Code, code, err)
	}
}
