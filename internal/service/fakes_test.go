package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/events"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/sheets"
	"github.com/spec-kit/feedback-service/internal/tracker"
)

// In-memory repository fakes. IDs are assigned sequentially so tests
// stay deterministic.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = r.nextID("ticket")
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if filter.DepartmentID != nil && t.DepartmentID != *filter.DepartmentID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.StatusID != nil && (t.StatusID == nil || *t.StatusID != *filter.StatusID) {
			continue
		}
		if filter.UrgencyLevelMin != nil && (t.UrgencyLevel == nil || *t.UrgencyLevel < *filter.UrgencyLevelMin) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTicketRepo) mutate(id string, fn func(*domain.Ticket)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(ticket)
	ticket.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.LegacyStatus, statusID, substatusID *string) error {
	return r.mutate(id, func(t *domain.Ticket) {
		t.Status = status
		t.StatusID = statusID
		t.SubstatusID = substatusID
	})
}

func (r *fakeTicketRepo) UpdateDeadline(_ context.Context, id string, deadline *time.Time) error {
	return r.mutate(id, func(t *domain.Ticket) { t.Deadline = deadline })
}

func (r *fakeTicketRepo) UpdateUrgencyLevel(_ context.Context, id string, level *int) error {
	return r.mutate(id, func(t *domain.Ticket) { t.UrgencyLevel = level })
}

func (r *fakeTicketRepo) UpdateAssignee(_ context.Context, id string, assigneeID *string) error {
	return r.mutate(id, func(t *domain.Ticket) { t.AssigneeID = assigneeID })
}

func (r *fakeTicketRepo) UpdateFinalPhoto(_ context.Context, id string, url *string) error {
	return r.mutate(id, func(t *domain.Ticket) { t.FinalPhotoURL = url })
}

func (r *fakeTicketRepo) UpdateExternalTask(_ context.Context, id string, taskID *string) error {
	return r.mutate(id, func(t *domain.Ticket) { t.ExternalTaskID = taskID })
}

func (r *fakeTicketRepo) Redirect(_ context.Context, id, newDepartmentID, redirectedFrom string) error {
	return r.mutate(id, func(t *domain.Ticket) {
		t.DepartmentID = newDepartmentID
		t.RedirectedFrom = &redirectedFrom
		t.AssigneeID = nil
	})
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) Count(_ context.Context, departmentID *string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tickets {
		if departmentID == nil || t.DepartmentID == *departmentID {
			n++
		}
	}
	return n, nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context, departmentID string) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.LegacyStatus]int64{}
	for _, t := range r.tickets {
		if t.DepartmentID == departmentID {
			counts[t.Status]++
		}
	}
	var out []repository.StatusCount
	for status, n := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (r *fakeTicketRepo) CountByType(_ context.Context, departmentID string, from, to time.Time) ([]repository.TypeCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.FeedbackType]int64{}
	for _, t := range r.tickets {
		if t.DepartmentID != departmentID || t.CreatedAt.Before(from) || t.CreatedAt.After(to) {
			continue
		}
		counts[t.Type]++
	}
	var out []repository.TypeCount
	for typ, n := range counts {
		out = append(out, repository.TypeCount{Type: typ, Count: n})
	}
	return out, nil
}

func (r *fakeTicketRepo) CountByUrgency(_ context.Context, departmentID string, from, to time.Time) ([]repository.UrgencyCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[int]int64{}
	for _, t := range r.tickets {
		if t.DepartmentID != departmentID || t.CreatedAt.Before(from) || t.CreatedAt.After(to) {
			continue
		}
		level := 0
		if t.UrgencyLevel != nil {
			level = *t.UrgencyLevel
		}
		counts[level]++
	}
	var out []repository.UrgencyCount
	for level, n := range counts {
		out = append(out, repository.UrgencyCount{Level: level, Count: n})
	}
	return out, nil
}

func (r *fakeTicketRepo) ListWithExternalTask(_ context.Context, departmentID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.DepartmentID == departmentID && t.ExternalTaskID != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ClearAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = map[string]*domain.Ticket{}
	return nil
}

type fakeStatusRepo struct {
	mu          sync.Mutex
	seq         int
	statuses    map[string]*domain.DynamicStatus
	substatuses map[string]*domain.DynamicSubstatus
	referenced  map[string]bool
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{
		statuses:    map[string]*domain.DynamicStatus{},
		substatuses: map[string]*domain.DynamicSubstatus{},
		referenced:  map[string]bool{},
	}
}

func (r *fakeStatusRepo) ListByDepartment(_ context.Context, departmentID string, activeOnly bool) ([]domain.DynamicStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DynamicStatus
	for _, s := range r.statuses {
		if s.DepartmentID != departmentID {
			continue
		}
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeStatusRepo) GetStatus(_ context.Context, id string) (*domain.DynamicStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStatusRepo) CreateStatus(_ context.Context, status *domain.DynamicStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if status.ID == "" {
		status.ID = fmt.Sprintf("status-%d", r.seq)
	}
	status.Position = r.seq
	status.IsActive = true
	copied := *status
	r.statuses[status.ID] = &copied
	return nil
}

func (r *fakeStatusRepo) UpdateStatus(_ context.Context, id string, name *string, isFinal *bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if name != nil {
		s.Name = *name
	}
	if isFinal != nil {
		s.IsFinal = *isFinal
	}
	return nil
}

func (r *fakeStatusRepo) ToggleStatus(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.IsActive = !s.IsActive
	return nil
}

func (r *fakeStatusRepo) DeleteStatus(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.statuses[id]; !ok {
		return pgx.ErrNoRows
	}
	if r.referenced[id] {
		return repository.ErrStatusInUse
	}
	for subID, sub := range r.substatuses {
		if sub.StatusID == id {
			delete(r.substatuses, subID)
		}
	}
	delete(r.statuses, id)
	return nil
}

func (r *fakeStatusRepo) ListSubstatuses(_ context.Context, statusID string, activeOnly bool) ([]domain.DynamicSubstatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DynamicSubstatus
	for _, sub := range r.substatuses {
		if sub.StatusID != statusID {
			continue
		}
		if activeOnly && !sub.IsActive {
			continue
		}
		out = append(out, *sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeStatusRepo) GetSubstatus(_ context.Context, id string) (*domain.DynamicSubstatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.substatuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeStatusRepo) CreateSubstatus(_ context.Context, sub *domain.DynamicSubstatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if sub.ID == "" {
		sub.ID = fmt.Sprintf("substatus-%d", r.seq)
	}
	sub.Position = r.seq
	sub.IsActive = true
	copied := *sub
	r.substatuses[sub.ID] = &copied
	return nil
}

func (r *fakeStatusRepo) UpdateSubstatus(_ context.Context, id string, name *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.substatuses[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if name != nil {
		sub.Name = *name
	}
	return nil
}

func (r *fakeStatusRepo) ToggleSubstatus(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.substatuses[id]
	if !ok {
		return pgx.ErrNoRows
	}
	sub.IsActive = !sub.IsActive
	return nil
}

func (r *fakeStatusRepo) DeleteSubstatus(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.substatuses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.substatuses, id)
	return nil
}

type fakeDepartmentRepo struct {
	mu          sync.Mutex
	seq         int
	departments map[string]*domain.Department
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{departments: map[string]*domain.Department{}}
}

func (r *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if dept.ID == "" {
		dept.ID = fmt.Sprintf("dept-%d", r.seq)
	}
	copied := *dept
	r.departments[dept.ID] = &copied
	return nil
}

func (r *fakeDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *dept
	r.departments[dept.ID] = &copied
	return nil
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *dept
	return &copied, nil
}

func (r *fakeDepartmentRepo) GetBySlug(_ context.Context, slug string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dept := range r.departments {
		if dept.Slug == slug {
			copied := *dept
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) GetOversight(_ context.Context) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dept := range r.departments {
		if dept.IsOversight {
			copied := *dept
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) ListActive(_ context.Context) ([]domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Department
	for _, dept := range r.departments {
		if dept.IsActive {
			out = append(out, *dept)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	seq       int
	employees map[string]*domain.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: map[string]*domain.Employee{}}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, employee *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if employee.ID == "" {
		employee.ID = fmt.Sprintf("emp-%d", r.seq)
	}
	copied := *employee
	r.employees[employee.ID] = &copied
	return nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, employee *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[employee.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *employee
	r.employees[employee.ID] = &copied
	return nil
}

func (r *fakeEmployeeRepo) ToggleActive(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	employee, ok := r.employees[id]
	if !ok {
		return pgx.ErrNoRows
	}
	employee.IsActive = !employee.IsActive
	return nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	employee, ok := r.employees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *employee
	return &copied, nil
}

func (r *fakeEmployeeRepo) ListByDepartment(_ context.Context, departmentID string, activeOnly bool) ([]domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Employee
	for _, e := range r.employees {
		if e.DepartmentID != departmentID {
			continue
		}
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*domain.DepartmentSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: map[string]*domain.DepartmentSettings{}}
}

func (r *fakeSettingsRepo) Get(_ context.Context, departmentID string) (*domain.DepartmentSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.settings[departmentID]; ok {
		copied := *s
		return &copied, nil
	}
	return &domain.DepartmentSettings{DepartmentID: departmentID}, nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, settings *domain.DepartmentSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *settings
	r.settings[settings.DepartmentID] = &copied
	return nil
}

type fakeActionLog struct {
	mu      sync.Mutex
	entries []domain.AdminAction
}

func (r *fakeActionLog) Append(_ context.Context, action *domain.AdminAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	action.ID = fmt.Sprintf("action-%d", len(r.entries)+1)
	action.CreatedAt = time.Now()
	r.entries = append(r.entries, *action)
	return nil
}

func (r *fakeActionLog) List(_ context.Context, entityKind *domain.EntityKind, entityID *string, limit, offset int) ([]domain.AdminAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AdminAction
	for _, entry := range r.entries {
		if entityKind != nil && entry.EntityKind != *entityKind {
			continue
		}
		if entityID != nil && entry.EntityID != *entityID {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

type fakeAdminRepo struct {
	mu     sync.Mutex
	seq    int
	admins map[string]*domain.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: map[string]*domain.Admin{}}
}

func (r *fakeAdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if admin.ID == "" {
		admin.ID = fmt.Sprintf("admin-%d", r.seq)
	}
	copied := *admin
	r.admins[admin.ID] = &copied
	return nil
}

func (r *fakeAdminRepo) Update(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[admin.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *admin
	r.admins[admin.ID] = &copied
	return nil
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *admin
	return &copied, nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, admin := range r.admins {
		if admin.Email == email {
			copied := *admin
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// fakeSheet records mutations; rows are keyed by ticket ID.
type fakeSheet struct {
	mu         sync.Mutex
	rows       [][]interface{}
	statusRows []sheets.StatusRow
	updates    map[string][][]interface{}
	cleared    []int
	findErr    error
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{updates: map[string][][]interface{}{}}
}

func (f *fakeSheet) FindRow(_ context.Context, ticketID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return 0, false, f.findErr
	}
	for i, row := range f.rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == ticketID {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeSheet) UpdateCells(_ context.Context, rangeA1 string, values [][]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[rangeA1] = values
	return nil
}

func (f *fakeSheet) AppendRow(_ context.Context, values []interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, values)
	return nil
}

func (f *fakeSheet) ClearRow(_ context.Context, row int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, row)
	return nil
}

func (f *fakeSheet) ReadStatusColumns(_ context.Context) ([]sheets.StatusRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusRows, nil
}

// sheetFactoryFor returns a Factory resolving each spreadsheet ID to its
// fake, failing for unknown IDs.
func sheetFactoryFor(sheetsByID map[string]*fakeSheet) sheets.Factory {
	return func(_ context.Context, creds domain.SheetCredentials, _ bool) (sheets.Client, error) {
		sheet, ok := sheetsByID[creds.SpreadsheetID]
		if !ok {
			return nil, fmt.Errorf("unknown spreadsheet %q", creds.SpreadsheetID)
		}
		return sheet, nil
	}
}

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	chatIDs  []string
	err      error
}

func (f *fakeSender) SendMessage(_ context.Context, creds domain.ChatCredentials, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	f.chatIDs = append(f.chatIDs, creds.ChatID)
	return nil
}

type fakeTrackerAPI struct {
	mu       sync.Mutex
	nextID   string
	statuses map[string]int
	created  []tracker.TaskPayload
	err      error
}

func newFakeTrackerAPI() *fakeTrackerAPI {
	return &fakeTrackerAPI{statuses: map[string]int{}}
}

func (f *fakeTrackerAPI) CreateTask(_ context.Context, _ string, payload tracker.TaskPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, payload)
	if f.nextID == "" {
		return "1", nil
	}
	return f.nextID, nil
}

func (f *fakeTrackerAPI) GetTaskStatus(_ context.Context, _ string, taskID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	code, ok := f.statuses[taskID]
	if !ok {
		return 0, fmt.Errorf("task %s not found", taskID)
	}
	return code, nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) Publish(_ context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) Subscribe(events.EventType, events.EventHandler) {}

func (c *capturedEvents) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
