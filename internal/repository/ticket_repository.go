package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// TicketFilter captures dashboard listing parameters.
type TicketFilter struct {
	DepartmentID    *string
	Status          *domain.LegacyStatus
	StatusID        *string
	UrgencyLevelMin *int
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Limit           int
	Offset          int
}

// StatusCount pairs a legacy status with how many tickets carry it.
type StatusCount struct {
	Status domain.LegacyStatus
	Count  int64
}

// TypeCount pairs a feedback type with how many tickets carry it.
type TypeCount struct {
	Type  domain.FeedbackType
	Count int64
}

// UrgencyCount pairs an urgency level with how many tickets carry it.
// Level 0 collects tickets with no urgency set.
type UrgencyCount struct {
	Level int
	Count int64
}

// TicketRepository encapsulates ticket persistence. Every write is a
// single-row statement; the redirect update intentionally bundles its
// three field changes into one statement.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.LegacyStatus, statusID, substatusID *string) error
	UpdateDeadline(ctx context.Context, id string, deadline *time.Time) error
	UpdateUrgencyLevel(ctx context.Context, id string, level *int) error
	UpdateAssignee(ctx context.Context, id string, assigneeID *string) error
	UpdateFinalPhoto(ctx context.Context, id string, url *string) error
	UpdateExternalTask(ctx context.Context, id string, taskID *string) error
	Redirect(ctx context.Context, id, newDepartmentID, redirectedFrom string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, departmentID *string) (int64, error)
	CountByStatus(ctx context.Context, departmentID string) ([]StatusCount, error)
	CountByType(ctx context.Context, departmentID string, from, to time.Time) ([]TypeCount, error)
	CountByUrgency(ctx context.Context, departmentID string, from, to time.Time) ([]UrgencyCount, error)
	ListWithExternalTask(ctx context.Context, departmentID string) ([]domain.Ticket, error)
	ClearAll(ctx context.Context) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, department_id, role, type, message, object, name, contact, is_anonymous,
               status, status_id, substatus_id, assignee_id, deadline, urgency, urgency_level,
               redirected_from, attachment_url, final_photo_url, external_task_id, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (department_id, role, type, message, object, name, contact, is_anonymous,
                             status, urgency, urgency_level, attachment_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.DepartmentID,
		ticket.Role,
		ticket.Type,
		ticket.Message,
		ticket.Object,
		ticket.Name,
		ticket.Contact,
		ticket.IsAnonymous,
		ticket.Status,
		ticket.Urgency,
		ticket.UrgencyLevel,
		ticket.AttachmentURL,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("status_id=$%d", len(args)))
	}
	if filter.UrgencyLevelMin != nil {
		args = append(args, *filter.UrgencyLevelMin)
		clauses = append(clauses, fmt.Sprintf("urgency_level >= $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// UpdateStatus writes the status triple and clears the sub-status
// implicitly when the caller passes nil. Callers own the parentage
// invariant; the repository writes exactly what it is given.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.LegacyStatus, statusID, substatusID *string) error {
	const query = `
        UPDATE tickets SET status=$1, status_id=$2, substatus_id=$3, updated_at=NOW()
        WHERE id=$4`
	return r.execExpectingRow(ctx, query, status, statusID, substatusID, id)
}

func (r *ticketRepository) UpdateDeadline(ctx context.Context, id string, deadline *time.Time) error {
	const query = `UPDATE tickets SET deadline=$1, updated_at=NOW() WHERE id=$2`
	return r.execExpectingRow(ctx, query, deadline, id)
}

func (r *ticketRepository) UpdateUrgencyLevel(ctx context.Context, id string, level *int) error {
	const query = `UPDATE tickets SET urgency_level=$1, updated_at=NOW() WHERE id=$2`
	return r.execExpectingRow(ctx, query, level, id)
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, id string, assigneeID *string) error {
	const query = `UPDATE tickets SET assignee_id=$1, updated_at=NOW() WHERE id=$2`
	return r.execExpectingRow(ctx, query, assigneeID, id)
}

func (r *ticketRepository) UpdateFinalPhoto(ctx context.Context, id string, url *string) error {
	const query = `UPDATE tickets SET final_photo_url=$1, updated_at=NOW() WHERE id=$2`
	return r.execExpectingRow(ctx, query, url, id)
}

func (r *ticketRepository) UpdateExternalTask(ctx context.Context, id string, taskID *string) error {
	const query = `UPDATE tickets SET external_task_id=$1, updated_at=NOW() WHERE id=$2`
	return r.execExpectingRow(ctx, query, taskID, id)
}

// Redirect moves the ticket to a new department, clears the assignee and
// stamps redirected_from in one statement. A second redirect overwrites
// redirected_from; no chain is kept.
func (r *ticketRepository) Redirect(ctx context.Context, id, newDepartmentID, redirectedFrom string) error {
	const query = `
        UPDATE tickets SET department_id=$1, redirected_from=$2, assignee_id=NULL, updated_at=NOW()
        WHERE id=$3`
	return r.execExpectingRow(ctx, query, newDepartmentID, redirectedFrom, id)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tickets WHERE id=$1`
	return r.execExpectingRow(ctx, query, id)
}

func (r *ticketRepository) Count(ctx context.Context, departmentID *string) (int64, error) {
	var count int64
	if departmentID != nil {
		err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE department_id=$1`, *departmentID).Scan(&count)
		return count, err
	}
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context, departmentID string) ([]StatusCount, error) {
	const query = `
        SELECT status, COUNT(*) FROM tickets WHERE department_id=$1
        GROUP BY status`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByType(ctx context.Context, departmentID string, from, to time.Time) ([]TypeCount, error) {
	const query = `
        SELECT type, COUNT(*) FROM tickets
        WHERE department_id=$1 AND created_at >= $2 AND created_at <= $3
        GROUP BY type`
	rows, err := r.pool.Query(ctx, query, departmentID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		result = append(result, tc)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByUrgency(ctx context.Context, departmentID string, from, to time.Time) ([]UrgencyCount, error) {
	const query = `
        SELECT COALESCE(urgency_level, 0), COUNT(*) FROM tickets
        WHERE department_id=$1 AND created_at >= $2 AND created_at <= $3
        GROUP BY COALESCE(urgency_level, 0)`
	rows, err := r.pool.Query(ctx, query, departmentID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []UrgencyCount
	for rows.Next() {
		var uc UrgencyCount
		if err := rows.Scan(&uc.Level, &uc.Count); err != nil {
			return nil, err
		}
		result = append(result, uc)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ListWithExternalTask(ctx context.Context, departmentID string) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE department_id=$1 AND external_task_id IS NOT NULL
        ORDER BY created_at DESC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ClearAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tickets`)
	return err
}

func (r *ticketRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.DepartmentID,
		&ticket.Role,
		&ticket.Type,
		&ticket.Message,
		&ticket.Object,
		&ticket.Name,
		&ticket.Contact,
		&ticket.IsAnonymous,
		&ticket.Status,
		&ticket.StatusID,
		&ticket.SubstatusID,
		&ticket.AssigneeID,
		&ticket.Deadline,
		&ticket.Urgency,
		&ticket.UrgencyLevel,
		&ticket.RedirectedFrom,
		&ticket.AttachmentURL,
		&ticket.FinalPhotoURL,
		&ticket.ExternalTaskID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
